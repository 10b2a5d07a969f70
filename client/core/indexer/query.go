package indexer

import (
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Transfers 按链上顺序返回全部代币转移
func (ix *Indexer) Transfers(ctx context.Context) ([]Transfer, error) {
	return collect[Transfer](ctx, ix.store, KindTransfer, nil)
}

// TokenIDsReceived 返回 owner 曾收到过的代币 ID（去重，升序）；当前余额需另行查询
func (ix *Indexer) TokenIDsReceived(ctx context.Context, owner common.Address) ([]*big.Int, error) {
	seen := make(map[string]*big.Int)
	err := scan(ctx, ix.store, KindTransfer, func(t *Transfer) error {
		if t.To == owner && t.TokenID != nil {
			seen[t.TokenID.String()] = t.TokenID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sortedIDs(seen), nil
}

// TokenIDsByType 返回出现过的、类型标签等于 tokenType 的代币 ID
func (ix *Indexer) TokenIDsByType(ctx context.Context, tokenType uint8) ([]*big.Int, error) {
	seen := make(map[string]*big.Int)
	err := scan(ctx, ix.store, KindTransfer, func(t *Transfer) error {
		if t.TokenID != nil && new(big.Int).Rsh(t.TokenID, 224).Uint64()&0xff == uint64(tokenType) {
			seen[t.TokenID.String()] = t.TokenID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sortedIDs(seen), nil
}

func sortedIDs(set map[string]*big.Int) []*big.Int {
	out := make([]*big.Int, 0, len(set))
	for _, id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// EventsCreated 返回所有已创建活动
func (ix *Indexer) EventsCreated(ctx context.Context) ([]EventCreated, error) {
	return collect[EventCreated](ctx, ix.store, KindEventCreated, nil)
}

// EventsByOrganizer 返回组织者创建的活动
func (ix *Indexer) EventsByOrganizer(ctx context.Context, organizer common.Address) ([]EventCreated, error) {
	return collect(ctx, ix.store, KindEventCreated, func(e *EventCreated) bool {
		return e.Organizer == organizer
	})
}

// Cancellation 返回活动的取消记录，未取消时返回 nil
func (ix *Indexer) Cancellation(ctx context.Context, eventID *big.Int) (*EventCancelled, error) {
	var found *EventCancelled
	err := scan(ctx, ix.store, KindEventCancelled, func(e *EventCancelled) error {
		if e.EventID != nil && e.EventID.Cmp(eventID) == 0 {
			found = e
		}
		return nil
	})
	return found, err
}

// Cancellations 返回全部活动取消记录
func (ix *Indexer) Cancellations(ctx context.Context) ([]EventCancelled, error) {
	return collect[EventCancelled](ctx, ix.store, KindEventCancelled, nil)
}

// activeInvitations 按 (活动, 受邀人) 取最后一条记录，未撤销的为有效邀请
func (ix *Indexer) activeInvitations(ctx context.Context, keep func(inv *Invitation) bool) ([]Invitation, error) {
	type pair struct {
		event   string
		invitee common.Address
	}
	latest := make(map[pair]Invitation)
	var order []pair

	err := scan(ctx, ix.store, KindInvitation, func(inv *Invitation) error {
		if !keep(inv) {
			return nil
		}
		k := pair{event: inv.EventID.String(), invitee: inv.Invitee}
		if _, ok := latest[k]; !ok {
			order = append(order, k)
		}
		latest[k] = *inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]Invitation, 0, len(order))
	for _, k := range order {
		if inv := latest[k]; !inv.Revoked {
			out = append(out, inv)
		}
	}
	return out, nil
}

// EventInvitations 活动当前有效的邀请
func (ix *Indexer) EventInvitations(ctx context.Context, eventID *big.Int) ([]Invitation, error) {
	return ix.activeInvitations(ctx, func(inv *Invitation) bool {
		return inv.EventID != nil && inv.EventID.Cmp(eventID) == 0
	})
}

// UserInvitations 用户当前有效的邀请
func (ix *Indexer) UserInvitations(ctx context.Context, user common.Address) ([]Invitation, error) {
	return ix.activeInvitations(ctx, func(inv *Invitation) bool {
		return inv.Invitee == user
	})
}

// Refunds 用户的退款记录；eventID 为 nil 时返回全部活动
func (ix *Indexer) Refunds(ctx context.Context, user common.Address, eventID *big.Int) ([]RefundClaimed, error) {
	return collect(ctx, ix.store, KindRefund, func(r *RefundClaimed) bool {
		if r.User != user {
			return false
		}
		return eventID == nil || (r.EventID != nil && r.EventID.Cmp(eventID) == 0)
	})
}

// PlatformFees 全部平台费分配记录
func (ix *Indexer) PlatformFees(ctx context.Context) ([]PlatformFee, error) {
	return collect[PlatformFee](ctx, ix.store, KindPlatformFee, nil)
}

// TicketPurchases 购票记录；buyer 为零地址时不过滤
func (ix *Indexer) TicketPurchases(ctx context.Context, buyer common.Address) ([]TicketPurchase, error) {
	return collect(ctx, ix.store, KindTicketPurchase, func(p *TicketPurchase) bool {
		return buyer == (common.Address{}) || p.Buyer == buyer
	})
}
