package assemble

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/assemble-go/client/core/contract"
	logpkg "github.com/weisyn/assemble-go/internal/core/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/codec"
	logInterface "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
	"github.com/weisyn/assemble-go/pkg/types"
	"github.com/weisyn/assemble-go/pkg/utils"
)

// TicketManager 门票管理
type TicketManager struct {
	s      *Session
	events *EventManager
	logger logInterface.Logger
}

// NewTicketManager 创建门票管理器
func NewTicketManager(s *Session) *TicketManager {
	return &TicketManager{
		s:      s,
		events: NewEventManager(s),
		logger: logpkg.WithModule(s.logger, "assemble.tickets"),
	}
}

// PurchaseTickets 购票
//
// 设置了推荐人或平台费时调用五参数重载，否则调用三参数版本。
// Value 为空时通过 calculatePrice 读取应付金额。
func (m *TicketManager) PurchaseTickets(ctx context.Context, params types.PurchaseTicketsParams) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateTicketQuantity(params.Quantity); err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateBasisPoints(params.PlatformFeeBps, utils.MaxPlatformFeeBps); err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateEventID(params.EventID); err != nil {
		return common.Hash{}, err
	}

	value := params.Value
	if value == nil {
		value, err = m.calculatePrice(ctx, params.EventID, params.TierID, params.Quantity)
		if err != nil {
			return common.Hash{}, sdkerrors.Wrap("Failed to purchase tickets", err)
		}
	}

	if params.HasPlatformFee() {
		return m.s.transact(ctx, signer, "Failed to purchase tickets", value, contract.MethodPurchaseTicketsWithFee,
			params.EventID, u64(params.TierID), u64(params.Quantity), params.Referrer, u64(params.PlatformFeeBps))
	}
	return m.s.transact(ctx, signer, "Failed to purchase tickets", value, contract.MethodPurchaseTickets,
		params.EventID, u64(params.TierID), u64(params.Quantity))
}

// CalculatePrice 指定数量的总价
func (m *TicketManager) CalculatePrice(ctx context.Context, eventID *big.Int, tierID, quantity uint64) (*big.Int, error) {
	if err := utils.ValidateTicketQuantity(quantity); err != nil {
		return nil, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return nil, err
	}
	return m.calculatePrice(ctx, eventID, tierID, quantity)
}

func (m *TicketManager) calculatePrice(ctx context.Context, eventID *big.Int, tierID, quantity uint64) (*big.Int, error) {
	out, err := m.s.call(ctx, "Failed to calculate price", contract.MethodCalculatePrice, eventID, u64(tierID), u64(quantity))
	if err != nil {
		return nil, err
	}
	return bigOut(out, 0), nil
}

// GenerateTokenID 本地计算门票 token id（EVENT_TICKET 标签）
func (m *TicketManager) GenerateTokenID(eventID *big.Int, tierID, serial uint64) (*big.Int, error) {
	return codec.ConstructTokenID(types.TokenIDComponents{
		Type:    types.TokenTypeEventTicket,
		EventID: eventID,
		TierID:  tierID,
		Serial:  serial,
	})
}

// GenerateTokenIDOnChain 通过合约的 generateTokenId 计算门票 token id
func (m *TicketManager) GenerateTokenIDOnChain(ctx context.Context, eventID *big.Int, tierID, serial uint64) (*big.Int, error) {
	if err := utils.ValidateEventID(eventID); err != nil {
		return nil, err
	}
	out, err := m.s.call(ctx, "Failed to generate token id", contract.MethodGenerateTokenID,
		uint8(types.TokenTypeEventTicket), eventID, u64(tierID), u64(serial))
	if err != nil {
		return nil, err
	}
	return bigOut(out, 0), nil
}

// GetTicketBalance owner 持有的某票档门票数量
func (m *TicketManager) GetTicketBalance(ctx context.Context, owner common.Address, eventID *big.Int, tierID uint64) (*big.Int, error) {
	if err := utils.RequireNonZeroAddress(owner, "owner"); err != nil {
		return nil, err
	}
	tokenID, err := m.GenerateTokenID(eventID, tierID, 0)
	if err != nil {
		return nil, err
	}
	return m.s.balanceOf(ctx, "Failed to get ticket balance", owner, tokenID)
}

// GetTickets owner 当前持有的门票
//
// 启用索引时从 Transfer 日志得到候选 token id 再查询余额；
// 否则遍历全部活动的票档（serial 为 0 的门票 id）。
func (m *TicketManager) GetTickets(ctx context.Context, owner common.Address) (*types.TicketsResponse, error) {
	const failMsg = "Failed to get tickets"
	if err := utils.RequireNonZeroAddress(owner, "owner"); err != nil {
		return nil, err
	}

	ix, err := m.s.syncedIndexer(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []*big.Int
	if ix != nil {
		ids, err := ix.TokenIDsReceived(ctx, owner)
		if err != nil {
			return nil, sdkerrors.Wrap(failMsg, err)
		}
		for _, id := range ids {
			if codec.ParseTokenID(id).Type == types.TokenTypeEventTicket {
				candidates = append(candidates, id)
			}
		}
	} else {
		candidates, err = m.scanTicketIDs(ctx)
		if err != nil {
			return nil, sdkerrors.Wrap(failMsg, err)
		}
	}

	tickets := make([]*types.Ticket, 0, len(candidates))
	for _, id := range candidates {
		balance, err := m.s.balanceOf(ctx, failMsg, owner, id)
		if err != nil {
			return nil, err
		}
		if balance.Sign() == 0 {
			continue
		}
		out, err := m.s.call(ctx, failMsg, contract.MethodUsedTickets, id)
		if err != nil {
			return nil, err
		}
		c := codec.ParseTokenID(id)
		tickets = append(tickets, &types.Ticket{
			EventID: c.EventID,
			TierID:  c.TierID,
			TokenID: id,
			Owner:   owner,
			Balance: balance,
			IsUsed:  boolOut(out, 0),
		})
	}
	return &types.TicketsResponse{Tickets: tickets, Total: len(tickets)}, nil
}

// scanTicketIDs 遍历 1..nextEventId-1 的全部票档
func (m *TicketManager) scanTicketIDs(ctx context.Context) ([]*big.Int, error) {
	out, err := m.s.call(ctx, "Failed to get tickets", contract.MethodNextEventID)
	if err != nil {
		return nil, err
	}
	next := clampUint64(bigOut(out, 0))

	var ids []*big.Int
	for id := uint64(1); id < next; id++ {
		eventID := u64(id)
		tiers, err := m.events.GetTicketTiers(ctx, eventID)
		if err != nil {
			return nil, err
		}
		for tier := range tiers {
			tokenID, err := m.GenerateTokenID(eventID, uint64(tier), 0)
			if err != nil {
				return nil, err
			}
			ids = append(ids, tokenID)
		}
	}
	return ids, nil
}

// TransferTickets 把当前账户的门票转给 to
func (m *TicketManager) TransferTickets(ctx context.Context, to common.Address, eventID *big.Int, tierID, amount uint64) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.RequireNonZeroAddress(to, "recipient"); err != nil {
		return common.Hash{}, err
	}
	if amount == 0 {
		return common.Hash{}, sdkerrors.Validation("Amount must be greater than 0", "amount")
	}
	tokenID, err := m.GenerateTokenID(eventID, tierID, 0)
	if err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to transfer tickets", nil, contract.MethodTransfer,
		signer.Address(), to, tokenID, u64(amount))
}

// SetOperator 授权或撤销操作员
func (m *TicketManager) SetOperator(ctx context.Context, operator common.Address, approved bool) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.RequireNonZeroAddress(operator, "operator"); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to set operator", nil, contract.MethodSetOperator, operator, approved)
}

// IsOperator operator 是否可代 owner 操作
func (m *TicketManager) IsOperator(ctx context.Context, owner, operator common.Address) (bool, error) {
	if err := utils.RequireNonZeroAddress(owner, "owner"); err != nil {
		return false, err
	}
	if err := utils.RequireNonZeroAddress(operator, "operator"); err != nil {
		return false, err
	}
	out, err := m.s.call(ctx, "Failed to check operator", contract.MethodIsOperator, owner, operator)
	if err != nil {
		return false, err
	}
	return boolOut(out, 0), nil
}

// Approve 授权 spender 转移指定 token 的数量
func (m *TicketManager) Approve(ctx context.Context, spender common.Address, tokenID *big.Int, amount *big.Int) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.RequireNonZeroAddress(spender, "spender"); err != nil {
		return common.Hash{}, err
	}
	if err := requireUint256(tokenID, "tokenId"); err != nil {
		return common.Hash{}, err
	}
	if amount == nil || amount.Sign() < 0 {
		return common.Hash{}, sdkerrors.Validation("Amount must not be negative", "amount")
	}
	return m.s.transact(ctx, signer, "Failed to approve", nil, contract.MethodApprove, spender, tokenID, amount)
}

// Allowance 已授权数量
func (m *TicketManager) Allowance(ctx context.Context, owner, spender common.Address, tokenID *big.Int) (*big.Int, error) {
	if err := utils.RequireNonZeroAddress(owner, "owner"); err != nil {
		return nil, err
	}
	if err := utils.RequireNonZeroAddress(spender, "spender"); err != nil {
		return nil, err
	}
	if err := requireUint256(tokenID, "tokenId"); err != nil {
		return nil, err
	}
	out, err := m.s.call(ctx, "Failed to get allowance", contract.MethodAllowance, owner, spender, tokenID)
	if err != nil {
		return nil, err
	}
	return bigOut(out, 0), nil
}

// UseTicket 使用门票
func (m *TicketManager) UseTicket(ctx context.Context, eventID *big.Int, tierID uint64) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to use ticket", nil, contract.MethodUseTicket, eventID, u64(tierID))
}

// CheckIn 签到（免费活动）
func (m *TicketManager) CheckIn(ctx context.Context, eventID *big.Int) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to check in", nil, contract.MethodCheckIn, eventID)
}

// CheckInWithTicket 持票签到
func (m *TicketManager) CheckInWithTicket(ctx context.Context, eventID, ticketTokenID *big.Int) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := requireUint256(ticketTokenID, "ticketTokenId"); err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to check in with ticket", nil, contract.MethodCheckInWithTicket, eventID, ticketTokenID)
}

// CheckInDelegate 代他人签到
func (m *TicketManager) CheckInDelegate(ctx context.Context, params types.CheckInParams) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.RequireNonZeroAddress(params.Attendee, "attendee"); err != nil {
		return common.Hash{}, err
	}
	if err := requireUint256(params.TicketTokenID, "ticketTokenId"); err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateEventID(params.EventID); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to delegate check in", nil, contract.MethodCheckInDelegate,
		params.EventID, params.TicketTokenID, params.Attendee)
}

// IsValidTicketForEvent token 是否为该活动的门票
func (m *TicketManager) IsValidTicketForEvent(ctx context.Context, tokenID, eventID *big.Int) (bool, error) {
	if err := requireUint256(tokenID, "tokenId"); err != nil {
		return false, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return false, err
	}
	out, err := m.s.call(ctx, "Failed to validate ticket", contract.MethodIsValidTicketForEvent, tokenID, eventID)
	if err != nil {
		return false, err
	}
	return boolOut(out, 0), nil
}

// IsTicketUsed 门票是否已使用
func (m *TicketManager) IsTicketUsed(ctx context.Context, tokenID *big.Int) (bool, error) {
	if err := requireUint256(tokenID, "tokenId"); err != nil {
		return false, err
	}
	out, err := m.s.call(ctx, "Failed to check ticket usage", contract.MethodUsedTickets, tokenID)
	if err != nil {
		return false, err
	}
	return boolOut(out, 0), nil
}

// GetRefundAmounts 取消活动后可退的门票款与打赏
func (m *TicketManager) GetRefundAmounts(ctx context.Context, eventID *big.Int, user common.Address) (*types.RefundAmounts, error) {
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return nil, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return nil, err
	}
	return refundAmounts(ctx, m.s, eventID, user)
}

func refundAmounts(ctx context.Context, s *Session, eventID *big.Int, user common.Address) (*types.RefundAmounts, error) {
	var out contract.RefundAmounts
	if err := s.binding.CallInto(ctx, &out, contract.MethodGetRefundAmounts, eventID, user); err != nil {
		return nil, sdkerrors.Wrap("Failed to get refund amounts", err)
	}
	return &types.RefundAmounts{
		TicketRefund: nonNil(out.TicketRefund),
		TipRefund:    nonNil(out.TipRefund),
	}, nil
}

// ClaimRefund 领取门票退款
func (m *TicketManager) ClaimRefund(ctx context.Context, eventID *big.Int) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to claim refund", nil, contract.MethodClaimTicketRefund, eventID)
}

// ClaimTipRefund 领取打赏退款
func (m *TicketManager) ClaimTipRefund(ctx context.Context, eventID *big.Int) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to claim tip refund", nil, contract.MethodClaimTipRefund, eventID)
}

// TotalSupply token 总量
func (m *TicketManager) TotalSupply(ctx context.Context, tokenID *big.Int) (*big.Int, error) {
	if err := requireUint256(tokenID, "tokenId"); err != nil {
		return nil, err
	}
	out, err := m.s.call(ctx, "Failed to get total supply", contract.MethodTotalSupply, tokenID)
	if err != nil {
		return nil, err
	}
	return bigOut(out, 0), nil
}
