package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TicketTier 票档
type TicketTier struct {
	Name          string   `json:"name"`
	Price         *big.Int `json:"price"`
	MaxSupply     uint64   `json:"max_supply"`
	Sold          uint64   `json:"sold"`
	StartSaleTime uint64   `json:"start_sale_time"`
	EndSaleTime   uint64   `json:"end_sale_time"`
	Transferrable bool     `json:"transferrable"`
}

// Ticket 用户持有的门票
type Ticket struct {
	EventID *big.Int       `json:"event_id"`
	TierID  uint64         `json:"tier_id"`
	TokenID *big.Int       `json:"token_id"`
	Owner   common.Address `json:"owner"`
	Balance *big.Int       `json:"balance"`
	IsUsed  bool           `json:"is_used"`
}

// TicketsResponse 门票查询结果
type TicketsResponse struct {
	Tickets []*Ticket `json:"tickets"`
	Total   int       `json:"total"`
}

// PurchaseTicketsParams 购票参数
//
// Referrer 为零地址且 PlatformFeeBps 为 0 时使用不带平台费的合约重载。
type PurchaseTicketsParams struct {
	EventID        *big.Int
	TierID         uint64
	Quantity       uint64
	Referrer       common.Address
	PlatformFeeBps uint64
	// Value 为 nil 时通过 calculatePrice 读取总价
	Value *big.Int
}

// HasPlatformFee 是否需要携带推荐人和平台费
func (p PurchaseTicketsParams) HasPlatformFee() bool {
	return p.Referrer != (common.Address{}) || p.PlatformFeeBps > 0
}

// CheckInParams 签到参数
type CheckInParams struct {
	EventID       *big.Int
	TicketTokenID *big.Int
	Attendee      common.Address
}

// AttendanceProof 出席证明
type AttendanceProof struct {
	EventID   *big.Int       `json:"event_id"`
	Attendee  common.Address `json:"attendee"`
	Timestamp uint64         `json:"timestamp"`
	TokenID   *big.Int       `json:"token_id"`
}

// ERC20PurchaseParams ERC20 购票参数
type ERC20PurchaseParams struct {
	EventID  *big.Int
	TierID   uint64
	Quantity uint64
	Token    common.Address
}

// ERC20PurchaseWithFeeParams 带平台费的 ERC20 购票参数
type ERC20PurchaseWithFeeParams struct {
	ERC20PurchaseParams
	Referrer       common.Address
	PlatformFeeBps uint64
}

// ERC20TipParams ERC20 打赏参数
type ERC20TipParams struct {
	EventID *big.Int
	Token   common.Address
	Amount  *big.Int
}

// ERC20TipWithFeeParams 带平台费的 ERC20 打赏参数
type ERC20TipWithFeeParams struct {
	ERC20TipParams
	Referrer       common.Address
	PlatformFeeBps uint64
}
