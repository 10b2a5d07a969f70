package utils

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/assemble-go/pkg/sdkerrors"
	"github.com/weisyn/assemble-go/pkg/types"
)

// 协议约束
const (
	MaxBasisPoints      = 10_000
	MaxPlatformFeeBps   = 500
	MaxProtocolFeeBps   = 10_000
	MaxTicketQuantity   = 50
	MaxPaymentSplits    = 20
	MaxEventCapacity    = 100_000
	MaxInvitees         = 100
	MaxCommentLength    = 1000
	MaxTimestampHorizon = 365 * 24 * time.Hour
)

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// ========================================
// 地址
// ========================================

// IsValidAddress 检查 0x 前缀的 40 位十六进制地址
func IsValidAddress(address string) bool {
	return addressPattern.MatchString(address)
}

// ValidateAddress 校验并解析地址
//
// field 为空时默认 "address"。
func ValidateAddress(address, field string) (common.Address, error) {
	if field == "" {
		field = "address"
	}
	if !IsValidAddress(address) {
		return common.Address{}, sdkerrors.Validationf(field, "Invalid %s: %s", field, address)
	}
	return common.HexToAddress(address), nil
}

// RequireNonZeroAddress 零地址视为无效
func RequireNonZeroAddress(address common.Address, field string) error {
	if address == (common.Address{}) {
		return sdkerrors.Validationf(field, "Invalid %s: %s", field, address.Hex())
	}
	return nil
}

// ========================================
// 时间
// ========================================

// ToUnixTimestamp 转换为秒级时间戳
func ToUnixTimestamp(t time.Time) uint64 {
	if t.Unix() < 0 {
		return 0
	}
	return uint64(t.Unix())
}

// FromUnixTimestamp 秒级时间戳转换为 time.Time
func FromUnixTimestamp(ts uint64) time.Time {
	return time.Unix(int64(ts), 0)
}

// IsValidTimestamp 时间戳为正且不晚于 now 之后一年
func IsValidTimestamp(ts uint64, now time.Time) bool {
	return ts > 0 && ts < ToUnixTimestamp(now.Add(MaxTimestampHorizon))
}

// ValidateEventTiming 开始时间在未来，结束时间晚于开始时间
func ValidateEventTiming(start, end uint64, now time.Time) error {
	if start <= ToUnixTimestamp(now) {
		return sdkerrors.Validation("Event start time must be in the future", "startTime")
	}
	if end <= start {
		return sdkerrors.Validation("Event end time must be after start time", "endTime")
	}
	return nil
}

// ========================================
// 基点
// ========================================

// BasisPointsToPercent 基点转百分比
func BasisPointsToPercent(bps uint64) float64 {
	return float64(bps) / 100
}

// PercentToBasisPoints 百分比转基点，四舍五入
func PercentToBasisPoints(percent float64) uint64 {
	if percent <= 0 {
		return 0
	}
	return uint64(math.Floor(percent*100 + 0.5))
}

// ValidateBasisPoints 基点在 [0, max] 之间
func ValidateBasisPoints(bps, max uint64) error {
	if bps > max {
		return sdkerrors.Validation(fmt.Sprintf("Basis points must be between 0 and %d", max), "basisPoints")
	}
	return nil
}

// ValidatePlatformFee 平台费不超过 500 基点
func ValidatePlatformFee(bps uint64) error {
	if bps > MaxPlatformFeeBps {
		return sdkerrors.Validation("Platform fee cannot exceed 5%", "platformFeeBps")
	}
	return nil
}

// ========================================
// 活动参数
// ========================================

// ValidateCapacity 容量在 1..100000
func ValidateCapacity(capacity uint64) error {
	if capacity == 0 || capacity > MaxEventCapacity {
		return sdkerrors.Validation("Event capacity must be between 1 and 100,000", "capacity")
	}
	return nil
}

// ValidateTicketQuantity 单次购票数量在 1..50
func ValidateTicketQuantity(quantity uint64) error {
	if quantity == 0 || quantity > MaxTicketQuantity {
		return sdkerrors.Validation("Ticket quantity must be between 1 and 50", "quantity")
	}
	return nil
}

// ValidatePaymentSplits 分账数量 1..20，合计正好 10000 基点
func ValidatePaymentSplits(splits []types.PaymentSplit) error {
	if len(splits) == 0 {
		return sdkerrors.Validation("At least one payment split is required", "paymentSplits")
	}
	if len(splits) > MaxPaymentSplits {
		return sdkerrors.Validation("Maximum 20 payment splits allowed", "paymentSplits")
	}

	var total uint64
	for _, s := range splits {
		total += s.BasisPoints
	}
	if total != MaxBasisPoints {
		return sdkerrors.Validation("Payment splits must total exactly 100% (10,000 basis points)", "paymentSplits")
	}

	for _, s := range splits {
		if err := RequireNonZeroAddress(s.Recipient, "payment split recipient"); err != nil {
			return err
		}
		if err := ValidateBasisPoints(s.BasisPoints, MaxBasisPoints); err != nil {
			return err
		}
	}
	return nil
}

// ValidateEventID 活动 ID 必须为正
func ValidateEventID(eventID *big.Int) error {
	if eventID == nil || eventID.Sign() <= 0 {
		return sdkerrors.Validation("Event ID must be positive", "eventId")
	}
	return nil
}

// ValidatePositiveAmount 金额必须大于 0
func ValidatePositiveAmount(amount *big.Int, field string) error {
	if amount == nil || amount.Sign() <= 0 {
		return sdkerrors.Validationf(field, "%s must be greater than 0", field)
	}
	return nil
}
