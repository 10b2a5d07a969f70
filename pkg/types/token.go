package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenType 代币类型标签，占 token id 的 [224,232) 位
type TokenType uint8

const (
	TokenTypeNone            TokenType = 0
	TokenTypeEventTicket     TokenType = 1
	TokenTypeAttendanceBadge TokenType = 2
	TokenTypeOrganizerCred   TokenType = 3
	TokenTypeVenueCred       TokenType = 4

	// TokenTypeUnknown 未识别标签的归一值，不会出现在链上编码中
	TokenTypeUnknown TokenType = 0xFF
)

// KnownTokenTypes 已知的全部标签
var KnownTokenTypes = []TokenType{
	TokenTypeNone,
	TokenTypeEventTicket,
	TokenTypeAttendanceBadge,
	TokenTypeOrganizerCred,
	TokenTypeVenueCred,
}

// IsValid 检查标签是否为已知的五种之一
func (t TokenType) IsValid() bool {
	return t <= TokenTypeVenueCred
}

// Normalize 未知标签归一为 TokenTypeUnknown
func (t TokenType) Normalize() TokenType {
	if t.IsValid() {
		return t
	}
	return TokenTypeUnknown
}

// String 返回标签名称
func (t TokenType) String() string {
	switch t {
	case TokenTypeNone:
		return "NONE"
	case TokenTypeEventTicket:
		return "EVENT_TICKET"
	case TokenTypeAttendanceBadge:
		return "ATTENDANCE_BADGE"
	case TokenTypeOrganizerCred:
		return "ORGANIZER_CRED"
	case TokenTypeVenueCred:
		return "VENUE_CRED"
	default:
		return "UNKNOWN"
	}
}

// DisplayName 返回可读名称
func (t TokenType) DisplayName() string {
	switch t {
	case TokenTypeNone:
		return "None"
	case TokenTypeEventTicket:
		return "Event Ticket"
	case TokenTypeAttendanceBadge:
		return "Attendance Badge"
	case TokenTypeOrganizerCred:
		return "Organizer Credential"
	case TokenTypeVenueCred:
		return "Venue Credential"
	default:
		return "Unknown"
	}
}

// TokenIDComponents token id 的四个字段
//
// EventID 占 96 位；VENUE_CRED 时该槽位存放场馆键。
type TokenIDComponents struct {
	Type    TokenType `json:"token_type"`
	EventID *big.Int  `json:"event_id"`
	TierID  uint64    `json:"tier_id"`
	Serial  uint64    `json:"serial_number"`
}

// Equal 字段逐一比较
func (c TokenIDComponents) Equal(o TokenIDComponents) bool {
	if c.Type != o.Type || c.TierID != o.TierID || c.Serial != o.Serial {
		return false
	}
	a, b := c.EventID, o.EventID
	if a == nil {
		a = new(big.Int)
	}
	if b == nil {
		b = new(big.Int)
	}
	return a.Cmp(b) == 0
}

// SoulboundToken 不可转让代币
type SoulboundToken struct {
	TokenID   *big.Int       `json:"token_id"`
	TokenType TokenType      `json:"token_type"`
	Owner     common.Address `json:"owner"`
	Balance   *big.Int       `json:"balance"`
	MintedAt  uint64         `json:"minted_at"`
	EventID   *big.Int       `json:"event_id,omitempty"`
	VenueKey  *big.Int       `json:"venue_key,omitempty"`
}

// TokenHolding 某地址持有的代币
type TokenHolding struct {
	TokenID    *big.Int          `json:"token_id"`
	Components TokenIDComponents `json:"components"`
	Balance    *big.Int          `json:"balance"`
}
