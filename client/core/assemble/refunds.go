package assemble

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/assemble-go/client/core/contract"
	logpkg "github.com/weisyn/assemble-go/internal/core/infrastructure/log"
	logInterface "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
	"github.com/weisyn/assemble-go/pkg/types"
	"github.com/weisyn/assemble-go/pkg/utils"
)

// RefundManager 取消活动后的退款
type RefundManager struct {
	s      *Session
	logger logInterface.Logger
}

// NewRefundManager 创建退款管理器
func NewRefundManager(s *Session) *RefundManager {
	return &RefundManager{s: s, logger: logpkg.WithModule(s.logger, "assemble.refunds")}
}

// GetRefundAmounts 用户可退的门票款与打赏
func (m *RefundManager) GetRefundAmounts(ctx context.Context, eventID *big.Int, user common.Address) (*types.RefundAmounts, error) {
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return nil, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return nil, err
	}
	return refundAmounts(ctx, m.s, eventID, user)
}

// CanClaimRefund 活动已取消且有可退金额
func (m *RefundManager) CanClaimRefund(ctx context.Context, eventID *big.Int, user common.Address) (bool, error) {
	el, err := m.GetRefundEligibility(ctx, eventID, user)
	if err != nil {
		return false, err
	}
	return el.CanClaim, nil
}

// GetRefundEligibility 退款资格明细
func (m *RefundManager) GetRefundEligibility(ctx context.Context, eventID *big.Int, user common.Address) (*types.RefundEligibility, error) {
	const failMsg = "Failed to check refund eligibility"
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return nil, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return nil, err
	}

	out, err := m.s.call(ctx, failMsg, contract.MethodEventCancelled, eventID)
	if err != nil {
		return nil, err
	}
	el := &types.RefundEligibility{
		IsCancelled: boolOut(out, 0),
		Amounts:     types.RefundAmounts{TicketRefund: new(big.Int), TipRefund: new(big.Int)},
	}
	if !el.IsCancelled {
		el.Reason = "Event is not cancelled"
		return el, nil
	}

	amounts, err := refundAmounts(ctx, m.s, eventID, user)
	if err != nil {
		return nil, sdkerrors.Wrap(failMsg, err)
	}
	el.Amounts = *amounts
	if el.Deadline, err = m.refundDeadline(ctx, eventID); err != nil {
		return nil, sdkerrors.Wrap(failMsg, err)
	}
	switch {
	case amounts.Total().Sign() == 0:
		el.Reason = "No refunds available"
	case uint64(m.s.now().Unix()) > el.Deadline:
		el.Reason = "Refund claim deadline has passed"
	default:
		el.CanClaim = true
	}
	return el, nil
}

// GetRefundDeadline 退款截止时间（Unix 秒）
//
// 能从索引找到 EventCancelled 日志时为取消时间加 REFUND_CLAIM_DEADLINE，
// 否则以当前时间估算。
func (m *RefundManager) GetRefundDeadline(ctx context.Context, eventID *big.Int) (uint64, error) {
	if err := utils.ValidateEventID(eventID); err != nil {
		return 0, err
	}
	deadline, err := m.refundDeadline(ctx, eventID)
	if err != nil {
		return 0, sdkerrors.Wrap("Failed to get refund deadline", err)
	}
	return deadline, nil
}

func (m *RefundManager) refundDeadline(ctx context.Context, eventID *big.Int) (uint64, error) {
	window, err := m.s.callConstant(ctx, "Failed to get refund claim deadline", contract.MethodRefundClaimDeadline)
	if err != nil {
		return 0, err
	}
	from := uint64(m.s.now().Unix())

	ix, err := m.s.syncedIndexer(ctx)
	if err != nil {
		return 0, err
	}
	if ix != nil {
		rec, err := ix.Cancellation(ctx, eventID)
		if err != nil {
			return 0, err
		}
		if rec != nil && rec.Timestamp != nil {
			from = clampUint64(rec.Timestamp)
		}
	}
	return from + clampUint64(window), nil
}

// ClaimTicketRefund 领取门票退款
func (m *RefundManager) ClaimTicketRefund(ctx context.Context, eventID *big.Int) (common.Hash, error) {
	return m.claim(ctx, "Failed to claim ticket refund", contract.MethodClaimTicketRefund, eventID)
}

// ClaimTipRefund 领取打赏退款
func (m *RefundManager) ClaimTipRefund(ctx context.Context, eventID *big.Int) (common.Hash, error) {
	return m.claim(ctx, "Failed to claim tip refund", contract.MethodClaimTipRefund, eventID)
}

func (m *RefundManager) claim(ctx context.Context, failMsg, method string, eventID *big.Int) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, failMsg, nil, method, eventID)
}

// ClaimAllRefunds 依次领取门票与打赏退款，只提交金额大于 0 的部分
func (m *RefundManager) ClaimAllRefunds(ctx context.Context, eventID *big.Int) ([]common.Hash, error) {
	const failMsg = "Failed to claim all refunds"
	signer, err := m.s.requireSigner()
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return nil, err
	}
	amounts, err := refundAmounts(ctx, m.s, eventID, signer.Address())
	if err != nil {
		return nil, sdkerrors.Wrap(failMsg, err)
	}

	hashes := []common.Hash{}
	if amounts.TicketRefund.Sign() > 0 {
		h, err := m.s.transact(ctx, signer, failMsg, nil, contract.MethodClaimTicketRefund, eventID)
		if err != nil {
			return hashes, err
		}
		hashes = append(hashes, h)
	}
	if amounts.TipRefund.Sign() > 0 {
		h, err := m.s.transact(ctx, signer, failMsg, nil, contract.MethodClaimTipRefund, eventID)
		if err != nil {
			return hashes, err
		}
		hashes = append(hashes, h)
	}
	m.logger.Infof("活动 %s 提交退款交易 %d 笔", eventID, len(hashes))
	return hashes, nil
}

// GetRefundHistory 用户已领取的退款（RefundClaimed 日志），未启用索引时为空
func (m *RefundManager) GetRefundHistory(ctx context.Context, user common.Address) ([]*types.RefundRecord, error) {
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return nil, err
	}
	ix, err := m.s.syncedIndexer(ctx)
	if err != nil || ix == nil {
		return []*types.RefundRecord{}, err
	}
	recs, err := ix.Refunds(ctx, user, nil)
	if err != nil {
		return nil, sdkerrors.Wrap("Failed to get refund history", err)
	}
	out := make([]*types.RefundRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, &types.RefundRecord{
			EventID:    r.EventID,
			User:       r.User,
			RefundType: types.ParseRefundType(r.RefundType),
			Amount:     nonNil(r.Amount),
			ClaimedAt:  m.s.blockTime(ctx, r.Block),
			Block:      r.Block,
			TxHash:     r.TxHash,
		})
	}
	return out, nil
}

// HasClaimedRefunds 是否已领取
//
// 启用索引时以 RefundClaimed 日志为准；否则以可退金额为 0 近似，
// 从未付款的用户也会被视为已领取。
func (m *RefundManager) HasClaimedRefunds(ctx context.Context, eventID *big.Int, user common.Address) (*types.RefundClaimStatus, error) {
	const failMsg = "Failed to check refund claim status"
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return nil, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return nil, err
	}

	ix, err := m.s.syncedIndexer(ctx)
	if err != nil {
		return nil, err
	}
	if ix != nil {
		recs, err := ix.Refunds(ctx, user, eventID)
		if err != nil {
			return nil, sdkerrors.Wrap(failMsg, err)
		}
		st := &types.RefundClaimStatus{}
		for _, r := range recs {
			if types.ParseRefundType(r.RefundType) == types.RefundTip {
				st.TipRefundClaimed = true
			} else {
				st.TicketRefundClaimed = true
			}
		}
		return st, nil
	}

	amounts, err := refundAmounts(ctx, m.s, eventID, user)
	if err != nil {
		return nil, sdkerrors.Wrap(failMsg, err)
	}
	return &types.RefundClaimStatus{
		TicketRefundClaimed: amounts.TicketRefund.Sign() == 0,
		TipRefundClaimed:    amounts.TipRefund.Sign() == 0,
	}, nil
}

// EstimateRefundGas 估算领取退款的 gas 与费用
func (m *RefundManager) EstimateRefundGas(ctx context.Context, eventID *big.Int, refundType types.RefundType) (*types.GasEstimate, error) {
	const failMsg = "Failed to estimate gas for refund"
	signer, err := m.s.requireSigner()
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return nil, err
	}
	method := contract.MethodClaimTicketRefund
	if refundType == types.RefundTip {
		method = contract.MethodClaimTipRefund
	}

	gas, err := m.s.binding.EstimateGas(ctx, signer.Address(), nil, method, eventID)
	if err != nil {
		return nil, sdkerrors.Wrap(failMsg, err)
	}
	price, err := m.s.binding.Client().SuggestGasPrice(ctx)
	if err != nil {
		return nil, sdkerrors.Wrap(failMsg, err)
	}
	cost := new(big.Int).Mul(new(big.Int).SetUint64(gas), price)
	return &types.GasEstimate{Gas: gas, GasPrice: price, Cost: cost}, nil
}

// GetTotalRefundsAvailable 用户在全部已取消活动中的可退总额
//
// 已取消活动列表来自索引，未启用索引时返回 0。
func (m *RefundManager) GetTotalRefundsAvailable(ctx context.Context, user common.Address) (*big.Int, error) {
	const failMsg = "Failed to get total refunds available"
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return nil, err
	}
	total := new(big.Int)
	ix, err := m.s.syncedIndexer(ctx)
	if err != nil || ix == nil {
		return total, err
	}
	cancelled, err := ix.Cancellations(ctx)
	if err != nil {
		return nil, sdkerrors.Wrap(failMsg, err)
	}
	seen := make(map[string]bool)
	for _, c := range cancelled {
		if c.EventID == nil || seen[c.EventID.String()] {
			continue
		}
		seen[c.EventID.String()] = true
		amounts, err := refundAmounts(ctx, m.s, c.EventID, user)
		if err != nil {
			return nil, sdkerrors.Wrap(failMsg, err)
		}
		total.Add(total, amounts.Total())
	}
	return total, nil
}
