package indexer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// 记录类别，决定存储键前缀
const (
	KindTransfer       = "transfer"
	KindEventCreated   = "created"
	KindEventCancelled = "cancelled"
	KindInvitation     = "invite"
	KindRefund         = "refund"
	KindPlatformFee    = "fee"
	KindTicketPurchase = "purchase"
)

// LogMeta 日志在链上的位置
type LogMeta struct {
	Block    uint64      `json:"block"`
	TxHash   common.Hash `json:"tx_hash"`
	LogIndex uint        `json:"log_index"`
}

// Transfer 代币转移（含铸造与销毁）
type Transfer struct {
	LogMeta
	Caller  common.Address `json:"caller"`
	From    common.Address `json:"from"`
	To      common.Address `json:"to"`
	TokenID *big.Int       `json:"token_id"`
	Amount  *big.Int       `json:"amount"`
}

// EventCreated 活动创建
type EventCreated struct {
	LogMeta
	EventID   *big.Int       `json:"event_id"`
	Organizer common.Address `json:"organizer"`
	StartTime *big.Int       `json:"start_time"`
}

// EventCancelled 活动取消
type EventCancelled struct {
	LogMeta
	EventID   *big.Int       `json:"event_id"`
	Organizer common.Address `json:"organizer"`
	Timestamp *big.Int       `json:"timestamp"`
}

// Invitation 邀请或撤销邀请
type Invitation struct {
	LogMeta
	EventID   *big.Int       `json:"event_id"`
	Invitee   common.Address `json:"invitee"`
	Organizer common.Address `json:"organizer"`
	Revoked   bool           `json:"revoked"`
}

// RefundClaimed 退款领取
type RefundClaimed struct {
	LogMeta
	EventID    *big.Int       `json:"event_id"`
	User       common.Address `json:"user"`
	Amount     *big.Int       `json:"amount"`
	RefundType string         `json:"refund_type"` // "ticket" / "tip"
}

// PlatformFee 平台费分配
type PlatformFee struct {
	LogMeta
	EventID  *big.Int       `json:"event_id"`
	Referrer common.Address `json:"referrer"`
	Amount   *big.Int       `json:"amount"`
	FeeBps   *big.Int       `json:"fee_bps"`
}

// TicketPurchase 购票
type TicketPurchase struct {
	LogMeta
	EventID  *big.Int       `json:"event_id"`
	Buyer    common.Address `json:"buyer"`
	Quantity *big.Int       `json:"quantity"`
	Price    *big.Int       `json:"price"`
}
