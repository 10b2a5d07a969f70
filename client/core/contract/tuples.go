package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// 结构体字段名与 ABI 字段名按 abi.ToCamelCase 对应，用于打包参数与解码返回值。

// EventParams createEvent 的 params 参数
type EventParams struct {
	Title       string
	Description string
	ImageUri    string
	StartTime   *big.Int
	EndTime     *big.Int
	Capacity    *big.Int
	VenueId     *big.Int
	Visibility  uint8
}

// TicketTier 票档
type TicketTier struct {
	Name          string
	Price         *big.Int
	MaxSupply     *big.Int
	Sold          *big.Int
	StartSaleTime *big.Int
	EndSaleTime   *big.Int
	Transferrable bool
}

// PaymentSplit 收入分成
type PaymentSplit struct {
	Recipient   common.Address
	BasisPoints *big.Int
}

// Comment 评论
type Comment struct {
	Author    common.Address
	Timestamp *big.Int
	Content   string
	ParentId  *big.Int
	IsDeleted bool
	Likes     *big.Int
}

// EventRecord events(uint256) 的返回值
type EventRecord struct {
	BasePrice  *big.Int
	StartTime  uint64
	Capacity   uint32
	VenueId    uint16
	Visibility uint8
	Status     uint8
}

// RefundAmounts getRefundAmounts 的返回值
type RefundAmounts struct {
	TicketRefund *big.Int
	TipRefund    *big.Int
}
