package assemble

import (
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/assemble-go/client/core/contract"
	logpkg "github.com/weisyn/assemble-go/internal/core/infrastructure/log"
	logInterface "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
	"github.com/weisyn/assemble-go/pkg/types"
	"github.com/weisyn/assemble-go/pkg/utils"
)

const (
	// DefaultPlatformFeeBps 默认平台费 2.5%
	DefaultPlatformFeeBps = 250

	minReasonableFeeBps = 50
)

// PlatformFeeManager 推荐人平台费的计算与统计
type PlatformFeeManager struct {
	s      *Session
	logger logInterface.Logger
}

// NewPlatformFeeManager 创建平台费管理器
func NewPlatformFeeManager(s *Session) *PlatformFeeManager {
	return &PlatformFeeManager{s: s, logger: logpkg.WithModule(s.logger, "assemble.fees")}
}

func validateFeeBps(bps uint64) error {
	if bps > utils.MaxBasisPoints {
		return sdkerrors.Validation("Fee basis points must be between 0 and 10000", "feeBps")
	}
	return nil
}

// CalculatePlatformFee amount * bps / 10000，向下取整
func (m *PlatformFeeManager) CalculatePlatformFee(amount *big.Int, bps uint64) (*big.Int, error) {
	if err := validateFeeBps(bps); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, sdkerrors.Validation("Amount must not be negative", "amount")
	}
	return platformFee(amount, bps), nil
}

func platformFee(amount *big.Int, bps uint64) *big.Int {
	fee := new(big.Int).Mul(amount, u64(bps))
	return fee.Quo(fee, u64(utils.MaxBasisPoints))
}

// CalculateTotalPrice 基础价加平台费，返回 (平台费, 总价)
func (m *PlatformFeeManager) CalculateTotalPrice(basePrice *big.Int, bps uint64) (fee, total *big.Int, err error) {
	fee, err = m.CalculatePlatformFee(basePrice, bps)
	if err != nil {
		return nil, nil, err
	}
	return fee, new(big.Int).Add(basePrice, fee), nil
}

// BpsToPercentage 基点转百分比
func (m *PlatformFeeManager) BpsToPercentage(bps uint64) float64 {
	return utils.BasisPointsToPercent(bps)
}

// PercentageToBps 百分比转基点，范围 0..100
func (m *PlatformFeeManager) PercentageToBps(percent float64) (uint64, error) {
	if percent < 0 || percent > 100 {
		return 0, sdkerrors.Validation("Percentage must be between 0 and 100", "percentage")
	}
	return utils.PercentToBasisPoints(percent), nil
}

// ValidatePlatformFeeBps 是否不超过合约上限 500 基点
func (m *PlatformFeeManager) ValidatePlatformFeeBps(bps uint64) bool {
	return bps <= utils.MaxPlatformFeeBps
}

// IsReasonableFeeRate 0.5% 到 5% 之间
func (m *PlatformFeeManager) IsReasonableFeeRate(bps uint64) bool {
	return bps >= minReasonableFeeBps && bps <= utils.MaxPlatformFeeBps
}

// GetDefaultPlatformFee 默认平台费基点
func (m *PlatformFeeManager) GetDefaultPlatformFee() uint64 {
	return DefaultPlatformFeeBps
}

// EstimateTotalCost 购买 quantity 张单价 basePrice 的门票的总成本
func (m *PlatformFeeManager) EstimateTotalCost(basePrice *big.Int, quantity, bps uint64) (*types.CostEstimate, error) {
	if err := utils.ValidateTicketQuantity(quantity); err != nil {
		return nil, err
	}
	if basePrice == nil || basePrice.Sign() < 0 {
		return nil, sdkerrors.Validation("Base price must not be negative", "basePrice")
	}
	base := new(big.Int).Mul(basePrice, u64(quantity))
	fee, total, err := m.CalculateTotalPrice(base, bps)
	if err != nil {
		return nil, err
	}
	return &types.CostEstimate{
		BaseCost:    base,
		PlatformFee: fee,
		TotalCost:   total,
		FeePercent:  utils.BasisPointsToPercent(bps),
	}, nil
}

// GetPlatformFeeEarnings 推荐人累计平台费收入（totalReferralFees）
func (m *PlatformFeeManager) GetPlatformFeeEarnings(ctx context.Context, referrer common.Address) (*big.Int, error) {
	if err := utils.RequireNonZeroAddress(referrer, "referrer"); err != nil {
		return nil, err
	}
	out, err := m.s.call(ctx, "Failed to get platform fee earnings", contract.MethodTotalReferralFees, referrer)
	if err != nil {
		return nil, err
	}
	return bigOut(out, 0), nil
}

// GetTotalPlatformFeesGenerated 全部 PlatformFeeAllocated 日志的汇总；未启用索引时为零值
func (m *PlatformFeeManager) GetTotalPlatformFeesGenerated(ctx context.Context) (*types.PlatformFeeStats, error) {
	stats := &types.PlatformFeeStats{TotalEarnings: new(big.Int), AverageFee: new(big.Int)}
	ix, err := m.s.syncedIndexer(ctx)
	if err != nil {
		return nil, err
	}
	if ix == nil {
		return stats, nil
	}
	fees, err := ix.PlatformFees(ctx)
	if err != nil {
		return nil, sdkerrors.Wrap("Failed to get platform fee statistics", err)
	}
	for _, f := range fees {
		stats.TotalEarnings.Add(stats.TotalEarnings, nonNil(f.Amount))
	}
	stats.TotalTransactions = len(fees)
	if len(fees) > 0 {
		stats.AverageFee.Quo(stats.TotalEarnings, big.NewInt(int64(len(fees))))
	}
	return stats, nil
}

// GetTopReferrers 按累计平台费排序的推荐人，limit 为 1..100
func (m *PlatformFeeManager) GetTopReferrers(ctx context.Context, limit int) ([]*types.ReferrerStats, error) {
	if limit < 1 || limit > maxPageSize {
		return nil, sdkerrors.Validation("Limit must be between 1 and 100", "limit")
	}
	ix, err := m.s.syncedIndexer(ctx)
	if err != nil {
		return nil, err
	}
	if ix == nil {
		return []*types.ReferrerStats{}, nil
	}
	fees, err := ix.PlatformFees(ctx)
	if err != nil {
		return nil, sdkerrors.Wrap("Failed to get top referrers", err)
	}

	byReferrer := make(map[common.Address]*types.ReferrerStats)
	for _, f := range fees {
		st, ok := byReferrer[f.Referrer]
		if !ok {
			st = &types.ReferrerStats{Referrer: f.Referrer, TotalEarnings: new(big.Int)}
			byReferrer[f.Referrer] = st
		}
		st.TotalEarnings.Add(st.TotalEarnings, nonNil(f.Amount))
		st.TotalReferrals++
	}

	ranked := make([]*types.ReferrerStats, 0, len(byReferrer))
	for _, st := range byReferrer {
		ranked = append(ranked, st)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if c := ranked[i].TotalEarnings.Cmp(ranked[j].TotalEarnings); c != 0 {
			return c > 0
		}
		return ranked[i].Referrer.Hex() < ranked[j].Referrer.Hex()
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i, st := range ranked {
		st.Rank = i + 1
	}
	return ranked, nil
}
