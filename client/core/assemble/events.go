package assemble

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/assemble-go/client/core/contract"
	logpkg "github.com/weisyn/assemble-go/internal/core/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/codec"
	logInterface "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
	"github.com/weisyn/assemble-go/pkg/types"
	"github.com/weisyn/assemble-go/pkg/utils"
)

const (
	// eventsTTL events(...) 读取的缓存时长，状态字段会随取消而变化，取较短值
	eventsTTL = 15 * time.Second

	// defaultEventDuration 合约不返回结束时间，按两小时补全
	defaultEventDuration = 7200

	defaultPageSize = 10
	maxPageSize     = 100

	// maxTierScan 遍历票档的上限
	maxTierScan = 64
)

// EventManager 活动管理
type EventManager struct {
	s      *Session
	logger logInterface.Logger
}

// NewEventManager 创建活动管理器
func NewEventManager(s *Session) *EventManager {
	return &EventManager{s: s, logger: logpkg.WithModule(s.logger, "assemble.events")}
}

// EventsQuery 分页查询条件
type EventsQuery struct {
	Offset    uint64
	Limit     uint64         // 0 表示默认 10
	Organizer common.Address // 零地址表示不过滤
}

// CreateEvent 创建活动
//
// 校验开始/结束时间、容量、分账；提供 Location 时同时校验经纬度范围。
func (m *EventManager) CreateEvent(ctx context.Context, params types.CreateEventParams) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}

	if err := utils.ValidateEventTiming(params.StartTime, params.EndTime, m.s.now()); err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateCapacity(params.Capacity); err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidatePaymentSplits(params.PaymentSplits); err != nil {
		return common.Hash{}, err
	}
	if !params.Visibility.IsValid() {
		return common.Hash{}, sdkerrors.Validationf("visibility", "Invalid event visibility: %d", params.Visibility)
	}
	if params.Location != nil {
		if err := codec.ValidateCoordinates(params.Location.Latitude, params.Location.Longitude); err != nil {
			return common.Hash{}, err
		}
	}
	if params.VenueName != "" {
		m.s.RegisterVenue(params.VenueName)
	}

	venueID := params.VenueID
	if venueID == nil {
		venueID = new(big.Int)
	}
	eventParams := contract.EventParams{
		Title:       params.Title,
		Description: params.Description,
		ImageUri:    params.ImageURI,
		StartTime:   u64(params.StartTime),
		EndTime:     u64(params.EndTime),
		Capacity:    u64(params.Capacity),
		VenueId:     venueID,
		Visibility:  uint8(params.Visibility),
	}
	tiers := make([]contract.TicketTier, len(params.Tiers))
	for i, t := range params.Tiers {
		price := t.Price
		if price == nil {
			price = new(big.Int)
		}
		tiers[i] = contract.TicketTier{
			Name:          t.Name,
			Price:         price,
			MaxSupply:     u64(t.MaxSupply),
			Sold:          u64(t.Sold),
			StartSaleTime: u64(t.StartSaleTime),
			EndSaleTime:   u64(t.EndSaleTime),
			Transferrable: t.Transferrable,
		}
	}
	splits := make([]contract.PaymentSplit, len(params.PaymentSplits))
	for i, sp := range params.PaymentSplits {
		splits[i] = contract.PaymentSplit{Recipient: sp.Recipient, BasisPoints: u64(sp.BasisPoints)}
	}

	hash, err := m.s.transact(ctx, signer, "Failed to create event", nil, contract.MethodCreateEvent, eventParams, tiers, splits)
	if err != nil {
		return common.Hash{}, err
	}
	m.logger.Infof("活动创建交易已提交: %s", hash.Hex())
	return hash, nil
}

// GetEvent 读取活动；组织者为零地址（活动不存在）时返回 nil
func (m *EventManager) GetEvent(ctx context.Context, eventID *big.Int) (*types.Event, error) {
	if err := utils.ValidateEventID(eventID); err != nil {
		return nil, err
	}
	return m.getEvent(ctx, eventID)
}

func (m *EventManager) getEvent(ctx context.Context, eventID *big.Int) (*types.Event, error) {
	const failMsg = "Failed to get event"

	record, err := m.s.binding.CallCached(ctx, eventsTTL, contract.MethodEvents, eventID)
	if err != nil {
		return nil, sdkerrors.Wrap(failMsg, err)
	}
	out, err := m.s.call(ctx, failMsg, contract.MethodEventOrganizers, eventID)
	if err != nil {
		return nil, err
	}
	organizer := addressOut(out, 0)
	if organizer == (common.Address{}) {
		return nil, nil
	}
	out, err = m.s.call(ctx, failMsg, contract.MethodEventCancelled, eventID)
	if err != nil {
		return nil, err
	}

	ev := eventFromRecord(eventID, record)
	ev.Organizer = organizer
	ev.IsCancelled = boolOut(out, 0)
	return ev, nil
}

// eventFromRecord 把 events(uint256) 的返回值转换为活动视图，缺失的元数据使用占位值
func eventFromRecord(eventID *big.Int, out []interface{}) *types.Event {
	ev := &types.Event{
		ID:        new(big.Int).Set(eventID),
		Title:     fmt.Sprintf("Event #%s", eventID.String()),
		BasePrice: bigOut(out, 0),
	}
	if len(out) >= 6 {
		ev.StartTime, _ = out[1].(uint64)
		ev.Capacity, _ = out[2].(uint32)
		ev.VenueID, _ = out[3].(uint16)
		vis, _ := out[4].(uint8)
		status, _ := out[5].(uint8)
		ev.Visibility = types.EventVisibility(vis)
		ev.Status = types.EventStatus(status)
	}
	ev.EndTime = ev.StartTime + defaultEventDuration
	return ev
}

// GetEvents 分页读取活动，最新的在前
//
// 扫描窗口为 [nextEventId-offset-limit, nextEventId-offset)，组织者过滤在窗口内进行；
// 读取失败的单个活动被跳过。
func (m *EventManager) GetEvents(ctx context.Context, q EventsQuery) (*types.EventsResponse, error) {
	limit := q.Limit
	if limit == 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		return nil, sdkerrors.Validation("Limit must be between 1 and 100", "limit")
	}

	out, err := m.s.call(ctx, "Failed to get events", contract.MethodNextEventID)
	if err != nil {
		return nil, err
	}
	next := clampUint64(bigOut(out, 0))

	start := uint64(1)
	if next > q.Offset+limit {
		start = next - q.Offset - limit
	}
	end := uint64(1)
	if next > q.Offset {
		end = next - q.Offset
	}

	events := make([]*types.Event, 0, limit)
	for id := start; id < end && uint64(len(events)) < limit; id++ {
		ev, err := m.getEvent(ctx, u64(id))
		if err != nil {
			if sdkerrors.IsNetwork(err) {
				return nil, err
			}
			m.logger.Debugf("跳过活动 %d: %v", id, err)
			continue
		}
		if ev == nil {
			continue
		}
		if q.Organizer != (common.Address{}) && ev.Organizer != q.Organizer {
			continue
		}
		events = append(events, ev)
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}

	var total uint64
	if next > 0 {
		total = next - 1
	}
	return &types.EventsResponse{
		Events:  events,
		Total:   total,
		HasMore: q.Offset+limit < total,
	}, nil
}

// GetEventsByOrganizer 组织者创建的活动
//
// 启用索引时按 EventCreated 日志查找，否则在最近 100 个活动中过滤。
func (m *EventManager) GetEventsByOrganizer(ctx context.Context, organizer common.Address) ([]*types.Event, error) {
	if err := utils.RequireNonZeroAddress(organizer, "organizer"); err != nil {
		return nil, err
	}

	ix, err := m.s.syncedIndexer(ctx)
	if err != nil {
		return nil, err
	}
	if ix == nil {
		resp, err := m.GetEvents(ctx, EventsQuery{Organizer: organizer, Limit: maxPageSize})
		if err != nil {
			return nil, sdkerrors.Wrap("Failed to get events by organizer", err)
		}
		return resp.Events, nil
	}

	created, err := ix.EventsByOrganizer(ctx, organizer)
	if err != nil {
		return nil, sdkerrors.Wrap("Failed to get events by organizer", err)
	}
	events := make([]*types.Event, 0, len(created))
	for i := len(created) - 1; i >= 0; i-- {
		ev, err := m.getEvent(ctx, created[i].EventID)
		if err != nil {
			return nil, sdkerrors.Wrap("Failed to get events by organizer", err)
		}
		if ev != nil {
			events = append(events, ev)
		}
	}
	return events, nil
}

// CancelEvent 取消活动
func (m *EventManager) CancelEvent(ctx context.Context, eventID *big.Int) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to cancel event", nil, contract.MethodCancelEvent, eventID)
}

// IsEventOrganizer address 是否为活动组织者
func (m *EventManager) IsEventOrganizer(ctx context.Context, eventID *big.Int, address common.Address) (bool, error) {
	if err := utils.ValidateEventID(eventID); err != nil {
		return false, err
	}
	out, err := m.s.call(ctx, "Failed to check event organizer", contract.MethodEventOrganizers, eventID)
	if err != nil {
		return false, err
	}
	organizer := addressOut(out, 0)
	return organizer != (common.Address{}) && organizer == address, nil
}

// InviteToEvent 邀请用户（每笔交易 1..100 人）
func (m *EventManager) InviteToEvent(ctx context.Context, eventID *big.Int, invitees []common.Address) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if len(invitees) == 0 {
		return common.Hash{}, sdkerrors.Validation("At least one invitee is required", "invitees")
	}
	if len(invitees) > utils.MaxInvitees {
		return common.Hash{}, sdkerrors.Validation("Maximum 100 invitees per transaction", "invitees")
	}
	if err := validateInvitees(invitees); err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to invite users to event", nil, contract.MethodInviteToEvent, eventID, invitees)
}

func validateInvitees(invitees []common.Address) error {
	for i, addr := range invitees {
		if err := utils.RequireNonZeroAddress(addr, fmt.Sprintf("invitee %d", i)); err != nil {
			return err
		}
	}
	return nil
}

// RemoveInvitation 撤销邀请
func (m *EventManager) RemoveInvitation(ctx context.Context, eventID *big.Int, invitee common.Address) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.RequireNonZeroAddress(invitee, "invitee"); err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to remove invitation", nil, contract.MethodRemoveInvitation, eventID, invitee)
}

// IsInvited user 是否受邀
func (m *EventManager) IsInvited(ctx context.Context, eventID *big.Int, user common.Address) (bool, error) {
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return false, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return false, err
	}
	out, err := m.s.call(ctx, "Failed to check invitation status", contract.MethodIsInvited, eventID, user)
	if err != nil {
		return false, err
	}
	return boolOut(out, 0), nil
}

// UpdateRSVP 更新出席回复
func (m *EventManager) UpdateRSVP(ctx context.Context, eventID *big.Int, status types.RSVPStatus) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if !status.IsValid() {
		return common.Hash{}, sdkerrors.Validationf("status", "Invalid RSVP status: %d", status)
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to update RSVP", nil, contract.MethodUpdateRSVP, eventID, uint8(status))
}

// GetUserRSVP 用户的出席回复
func (m *EventManager) GetUserRSVP(ctx context.Context, eventID *big.Int, user common.Address) (types.RSVPStatus, error) {
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return 0, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return 0, err
	}
	out, err := m.s.call(ctx, "Failed to get RSVP status", contract.MethodGetUserRSVP, eventID, user)
	if err != nil {
		return 0, err
	}
	return types.RSVPStatus(uint8Out(out, 0)), nil
}

// HasAttended 用户是否已签到
func (m *EventManager) HasAttended(ctx context.Context, eventID *big.Int, user common.Address) (bool, error) {
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return false, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return false, err
	}
	out, err := m.s.call(ctx, "Failed to check attendance", contract.MethodHasAttended, user, eventID)
	if err != nil {
		return false, err
	}
	return boolOut(out, 0), nil
}

// IsEventCancelled 活动是否已取消
func (m *EventManager) IsEventCancelled(ctx context.Context, eventID *big.Int) (bool, error) {
	if err := utils.ValidateEventID(eventID); err != nil {
		return false, err
	}
	out, err := m.s.call(ctx, "Failed to check if event is cancelled", contract.MethodIsEventCancelled, eventID)
	if err != nil {
		return false, err
	}
	return boolOut(out, 0), nil
}

// GetTicketTier 读取票档；名称为空且无供应量时视为不存在，返回 nil
func (m *EventManager) GetTicketTier(ctx context.Context, eventID *big.Int, tierID uint64) (*types.TicketTier, error) {
	if err := utils.ValidateEventID(eventID); err != nil {
		return nil, err
	}
	return m.ticketTier(ctx, eventID, tierID)
}

func (m *EventManager) ticketTier(ctx context.Context, eventID *big.Int, tierID uint64) (*types.TicketTier, error) {
	var tier contract.TicketTier
	if err := m.s.binding.CallInto(ctx, &tier, contract.MethodTicketTiers, eventID, u64(tierID)); err != nil {
		return nil, sdkerrors.Wrap("Failed to get ticket tier", err)
	}
	if tier.Name == "" && (tier.MaxSupply == nil || tier.MaxSupply.Sign() == 0) {
		return nil, nil
	}
	return &types.TicketTier{
		Name:          tier.Name,
		Price:         nonNil(tier.Price),
		MaxSupply:     clampUint64(tier.MaxSupply),
		Sold:          clampUint64(tier.Sold),
		StartSaleTime: clampUint64(tier.StartSaleTime),
		EndSaleTime:   clampUint64(tier.EndSaleTime),
		Transferrable: tier.Transferrable,
	}, nil
}

// GetTicketTiers 按序读取票档，直到遇到空票档或 revert
func (m *EventManager) GetTicketTiers(ctx context.Context, eventID *big.Int) ([]*types.TicketTier, error) {
	if err := utils.ValidateEventID(eventID); err != nil {
		return nil, err
	}
	var tiers []*types.TicketTier
	for i := uint64(0); i < maxTierScan; i++ {
		tier, err := m.ticketTier(ctx, eventID, i)
		if err != nil {
			if sdkerrors.IsContract(err) {
				break
			}
			return nil, err
		}
		if tier == nil {
			break
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
