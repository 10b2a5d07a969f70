// Package types 定义 Assemble 协议 SDK 的领域类型
package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EventVisibility 活动可见性
type EventVisibility uint8

const (
	VisibilityPublic     EventVisibility = 0
	VisibilityPrivate    EventVisibility = 1
	VisibilityInviteOnly EventVisibility = 2
)

// String 返回可见性名称
func (v EventVisibility) String() string {
	switch v {
	case VisibilityPublic:
		return "PUBLIC"
	case VisibilityPrivate:
		return "PRIVATE"
	case VisibilityInviteOnly:
		return "INVITE_ONLY"
	default:
		return "UNKNOWN"
	}
}

// IsValid 检查可见性取值是否已知
func (v EventVisibility) IsValid() bool {
	return v <= VisibilityInviteOnly
}

// EventStatus 活动状态
type EventStatus uint8

const (
	EventStatusActive    EventStatus = 0
	EventStatusCancelled EventStatus = 1
	EventStatusCompleted EventStatus = 2
)

// String 返回状态名称
func (s EventStatus) String() string {
	switch s {
	case EventStatusActive:
		return "ACTIVE"
	case EventStatusCancelled:
		return "CANCELLED"
	case EventStatusCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// RSVPStatus 用户回复状态
type RSVPStatus uint8

const (
	RSVPNotGoing RSVPStatus = 0
	RSVPMaybe    RSVPStatus = 1
	RSVPGoing    RSVPStatus = 2
)

// String 返回回复状态名称
func (s RSVPStatus) String() string {
	switch s {
	case RSVPNotGoing:
		return "NOT_GOING"
	case RSVPMaybe:
		return "MAYBE"
	case RSVPGoing:
		return "GOING"
	default:
		return "UNKNOWN"
	}
}

// IsValid 检查回复状态取值是否已知
func (s RSVPStatus) IsValid() bool {
	return s <= RSVPGoing
}

// Event 链上活动视图
//
// 合约 getter 只暴露 basePrice/startTime/capacity/venueId/visibility/status，
// 标题、描述等元数据只在创建时提交，读取时使用占位值。
type Event struct {
	ID          *big.Int        `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ImageURI    string          `json:"image_uri"`
	StartTime   uint64          `json:"start_time"`
	EndTime     uint64          `json:"end_time"`
	Capacity    uint32          `json:"capacity"`
	VenueID     uint16          `json:"venue_id"`
	Visibility  EventVisibility `json:"visibility"`
	Status      EventStatus     `json:"status"`
	BasePrice   *big.Int        `json:"base_price"`
	Organizer   common.Address  `json:"organizer"`
	IsCancelled bool            `json:"is_cancelled"`

	// 可选的位置与场馆信息（由调用方或索引补全）
	Location  *Coordinates `json:"location,omitempty"`
	VenueName string       `json:"venue_name,omitempty"`
	VenueHash common.Hash  `json:"venue_hash,omitempty"`
}

// EventsResponse 分页活动查询结果
type EventsResponse struct {
	Events  []*Event `json:"events"`
	Total   uint64   `json:"total"`
	HasMore bool     `json:"has_more"`
}

// CreateEventParams 创建活动参数
type CreateEventParams struct {
	Title         string
	Description   string
	ImageURI      string
	StartTime     uint64
	EndTime       uint64
	Capacity      uint64
	VenueID       *big.Int
	Visibility    EventVisibility
	Tiers         []TicketTier
	PaymentSplits []PaymentSplit

	// Location 为 nil 时不做坐标校验
	Location  *Coordinates
	VenueName string
}

// EventInvitation 私有活动邀请
type EventInvitation struct {
	EventID   *big.Int         `json:"event_id"`
	Event     *Event           `json:"event,omitempty"`
	Invitee   common.Address   `json:"invitee"`
	Organizer common.Address   `json:"organizer"`
	InvitedAt uint64           `json:"invited_at"`
	Block     uint64           `json:"block"`
	Status    InvitationStatus `json:"status"`
}

// InvitationStatus 邀请状态
type InvitationStatus uint8

const (
	InvitationPending  InvitationStatus = 0
	InvitationAccepted InvitationStatus = 1
	InvitationDeclined InvitationStatus = 2
)

// String 返回邀请状态名称
func (s InvitationStatus) String() string {
	switch s {
	case InvitationPending:
		return "PENDING"
	case InvitationAccepted:
		return "ACCEPTED"
	case InvitationDeclined:
		return "DECLINED"
	default:
		return "UNKNOWN"
	}
}
