package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RefundType 退款类型
type RefundType uint8

const (
	RefundTicket RefundType = 0
	RefundTip    RefundType = 1
)

// String 返回退款类型名称，与合约 RefundClaimed 事件中的字符串一致
func (r RefundType) String() string {
	if r == RefundTip {
		return "tip"
	}
	return "ticket"
}

// ParseRefundType 解析 RefundClaimed 事件中的类型字符串
func ParseRefundType(s string) RefundType {
	if s == "tip" {
		return RefundTip
	}
	return RefundTicket
}

// RefundAmounts 可退金额
type RefundAmounts struct {
	TicketRefund *big.Int `json:"ticket_refund"`
	TipRefund    *big.Int `json:"tip_refund"`
}

// Total 总可退金额
func (r RefundAmounts) Total() *big.Int {
	sum := new(big.Int)
	if r.TicketRefund != nil {
		sum.Add(sum, r.TicketRefund)
	}
	if r.TipRefund != nil {
		sum.Add(sum, r.TipRefund)
	}
	return sum
}

// RefundRecord 已领取的退款
type RefundRecord struct {
	EventID    *big.Int       `json:"event_id"`
	User       common.Address `json:"user"`
	RefundType RefundType     `json:"refund_type"`
	Amount     *big.Int       `json:"amount"`
	ClaimedAt  uint64         `json:"claimed_at"`
	Block      uint64         `json:"block"`
	TxHash     common.Hash    `json:"transaction_hash"`
}

// RefundEligibility 退款资格
type RefundEligibility struct {
	CanClaim    bool          `json:"can_claim"`
	Amounts     RefundAmounts `json:"amounts"`
	Deadline    uint64        `json:"deadline"`
	IsCancelled bool          `json:"is_cancelled"`
	Reason      string        `json:"reason,omitempty"`
}

// PlatformFeeStats 平台费统计
type PlatformFeeStats struct {
	TotalEarnings     *big.Int `json:"total_earnings"`
	TotalTransactions int      `json:"total_transactions"`
	AverageFee        *big.Int `json:"average_fee"`
}

// ReferrerStats 推荐人统计
type ReferrerStats struct {
	Referrer       common.Address `json:"referrer"`
	TotalEarnings  *big.Int       `json:"total_earnings"`
	TotalReferrals int            `json:"total_referrals"`
	Rank           int            `json:"rank"`
}

// CostEstimate 购票总成本估算
type CostEstimate struct {
	BaseCost    *big.Int `json:"base_cost"`
	PlatformFee *big.Int `json:"platform_fee"`
	TotalCost   *big.Int `json:"total_cost"`
	FeePercent  float64  `json:"fee_percentage"`
}

// GasEstimate 交易 gas 估算
type GasEstimate struct {
	Gas      uint64   `json:"gas"`
	GasPrice *big.Int `json:"gas_price"`
	Cost     *big.Int `json:"cost"`
}

// RefundClaimStatus 退款领取状态
type RefundClaimStatus struct {
	TicketRefundClaimed bool `json:"ticket_refund_claimed"`
	TipRefundClaimed    bool `json:"tip_refund_claimed"`
}
