package assemble

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/assemble-go/client/core/contract"
	"github.com/weisyn/assemble-go/client/core/indexer"
	logpkg "github.com/weisyn/assemble-go/internal/core/infrastructure/log"
	logInterface "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
	"github.com/weisyn/assemble-go/pkg/types"
	"github.com/weisyn/assemble-go/pkg/utils"
)

// PrivateEventManager 私有与仅邀请活动
type PrivateEventManager struct {
	s      *Session
	events *EventManager
	logger logInterface.Logger
}

// NewPrivateEventManager 创建私有活动管理器
func NewPrivateEventManager(s *Session) *PrivateEventManager {
	return &PrivateEventManager{
		s:      s,
		events: NewEventManager(s),
		logger: logpkg.WithModule(s.logger, "assemble.private"),
	}
}

// InviteToEvent 邀请用户
func (m *PrivateEventManager) InviteToEvent(ctx context.Context, eventID *big.Int, invitees []common.Address) (common.Hash, error) {
	if _, err := m.s.requireSigner(); err != nil {
		return common.Hash{}, err
	}
	if len(invitees) == 0 {
		return common.Hash{}, sdkerrors.Validation("Must invite at least one user", "invitees")
	}
	return m.events.InviteToEvent(ctx, eventID, invitees)
}

// RemoveInvitation 撤销邀请
func (m *PrivateEventManager) RemoveInvitation(ctx context.Context, eventID *big.Int, invitee common.Address) (common.Hash, error) {
	return m.events.RemoveInvitation(ctx, eventID, invitee)
}

// IsInvited 读取 eventInvites 映射
func (m *PrivateEventManager) IsInvited(ctx context.Context, eventID *big.Int, user common.Address) (bool, error) {
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return false, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return false, err
	}
	out, err := m.s.call(ctx, "Failed to check invitation", contract.MethodEventInvites, eventID, user)
	if err != nil {
		return false, err
	}
	return boolOut(out, 0), nil
}

// GetEventInvitations 活动当前有效的邀请（已撤销的不计）
//
// 依赖日志索引，未启用时返回空列表。
func (m *PrivateEventManager) GetEventInvitations(ctx context.Context, eventID *big.Int) ([]*types.EventInvitation, error) {
	if err := utils.ValidateEventID(eventID); err != nil {
		return nil, err
	}
	ix, err := m.s.syncedIndexer(ctx)
	if err != nil || ix == nil {
		return []*types.EventInvitation{}, err
	}
	invs, err := ix.EventInvitations(ctx, eventID)
	if err != nil {
		return nil, sdkerrors.Wrap("Failed to get event invitations", err)
	}
	return m.toInvitations(ctx, invs, false)
}

// GetUserInvitations 用户收到的有效邀请，附带活动详情
func (m *PrivateEventManager) GetUserInvitations(ctx context.Context, user common.Address) ([]*types.EventInvitation, error) {
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return nil, err
	}
	ix, err := m.s.syncedIndexer(ctx)
	if err != nil || ix == nil {
		return []*types.EventInvitation{}, err
	}
	invs, err := ix.UserInvitations(ctx, user)
	if err != nil {
		return nil, sdkerrors.Wrap("Failed to get user invitations", err)
	}
	return m.toInvitations(ctx, invs, true)
}

func (m *PrivateEventManager) toInvitations(ctx context.Context, invs []indexer.Invitation, withEvent bool) ([]*types.EventInvitation, error) {
	out := make([]*types.EventInvitation, 0, len(invs))
	for _, inv := range invs {
		status, err := m.invitationStatus(ctx, inv.EventID, inv.Invitee)
		if err != nil {
			return nil, err
		}
		ei := &types.EventInvitation{
			EventID:   inv.EventID,
			Invitee:   inv.Invitee,
			Organizer: inv.Organizer,
			InvitedAt: m.s.blockTime(ctx, inv.Block),
			Block:     inv.Block,
			Status:    status,
		}
		if withEvent {
			if ei.Event, err = m.events.getEvent(ctx, inv.EventID); err != nil {
				return nil, err
			}
		}
		out = append(out, ei)
	}
	return out, nil
}

// CanPurchaseTickets 按可见性判断用户能否购票：公开活动任何人可买，
// 私有活动不开放购票，仅邀请活动需要受邀
func (m *PrivateEventManager) CanPurchaseTickets(ctx context.Context, eventID *big.Int, user common.Address) (bool, error) {
	const failMsg = "Failed to check purchase permissions"
	visibility, err := m.GetEventVisibility(ctx, eventID)
	if err != nil {
		return false, sdkerrors.Wrap(failMsg, err)
	}
	switch visibility {
	case types.VisibilityPublic:
		return true, nil
	case types.VisibilityInviteOnly:
		invited, err := m.IsInvited(ctx, eventID, user)
		if err != nil {
			return false, sdkerrors.Wrap(failMsg, err)
		}
		return invited, nil
	default:
		return false, nil
	}
}

// GetEventVisibility 活动可见性
func (m *PrivateEventManager) GetEventVisibility(ctx context.Context, eventID *big.Int) (types.EventVisibility, error) {
	if err := utils.ValidateEventID(eventID); err != nil {
		return 0, err
	}
	record, err := m.s.binding.CallCached(ctx, eventsTTL, contract.MethodEvents, eventID)
	if err != nil {
		return 0, sdkerrors.Wrap("Failed to get event visibility", err)
	}
	return eventFromRecord(eventID, record).Visibility, nil
}

// GetInvitationStatus 邀请状态：RSVP 为 GOING 视为已接受，其余为待定
//
// 合约的 RSVP 默认值即 NOT_GOING，无法区分拒绝与未回复。
func (m *PrivateEventManager) GetInvitationStatus(ctx context.Context, eventID *big.Int, user common.Address) (types.InvitationStatus, error) {
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return types.InvitationPending, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return types.InvitationPending, err
	}
	return m.invitationStatus(ctx, eventID, user)
}

func (m *PrivateEventManager) invitationStatus(ctx context.Context, eventID *big.Int, user common.Address) (types.InvitationStatus, error) {
	out, err := m.s.call(ctx, "Failed to get invitation status", contract.MethodGetUserRSVP, eventID, user)
	if err != nil {
		return types.InvitationPending, err
	}
	if types.RSVPStatus(uint8Out(out, 0)) == types.RSVPGoing {
		return types.InvitationAccepted, nil
	}
	return types.InvitationPending, nil
}

// AcceptInvitation 接受邀请（RSVP GOING）
func (m *PrivateEventManager) AcceptInvitation(ctx context.Context, eventID *big.Int) (common.Hash, error) {
	return m.respond(ctx, "Failed to accept invitation", eventID, types.RSVPGoing)
}

// DeclineInvitation 拒绝邀请（RSVP NOT_GOING）
func (m *PrivateEventManager) DeclineInvitation(ctx context.Context, eventID *big.Int) (common.Hash, error) {
	return m.respond(ctx, "Failed to decline invitation", eventID, types.RSVPNotGoing)
}

func (m *PrivateEventManager) respond(ctx context.Context, failMsg string, eventID *big.Int, status types.RSVPStatus) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, failMsg, nil, contract.MethodUpdateRSVP, eventID, uint8(status))
}
