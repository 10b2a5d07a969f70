package assemble

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/assemble-go/client/core/contract"
	logpkg "github.com/weisyn/assemble-go/internal/core/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/codec"
	logInterface "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
	"github.com/weisyn/assemble-go/pkg/types"
	"github.com/weisyn/assemble-go/pkg/utils"
)

// VenueManager 场馆与位置
//
// 链上只保存场馆名的哈希，名称来自会话中登记过的场馆（CreateEvent 或 RegisterVenue）。
type VenueManager struct {
	s      *Session
	events *EventManager
	logger logInterface.Logger
}

// NewVenueManager 创建场馆管理器
func NewVenueManager(s *Session) *VenueManager {
	return &VenueManager{
		s:      s,
		events: NewEventManager(s),
		logger: logpkg.WithModule(s.logger, "assemble.venues"),
	}
}

// GetVenueHash 场馆名哈希，名称去掉首尾空白后不能为空
func (m *VenueManager) GetVenueHash(name string) (common.Hash, error) {
	if strings.TrimSpace(name) == "" {
		return common.Hash{}, sdkerrors.Validation("Venue name cannot be empty", "venueName")
	}
	return codec.VenueHash(name), nil
}

// VenueTokenKey 场馆哈希在凭证 token id 中的 96 位键
func (m *VenueManager) VenueTokenKey(hash common.Hash) *big.Int {
	return codec.VenueTokenKey(hash)
}

// RegisterVenue 登记场馆名，返回其哈希
func (m *VenueManager) RegisterVenue(name string) (common.Hash, error) {
	if _, err := m.GetVenueHash(name); err != nil {
		return common.Hash{}, err
	}
	return m.s.RegisterVenue(name), nil
}

// GetVenueEventCount 场馆举办过的活动数
func (m *VenueManager) GetVenueEventCount(ctx context.Context, hash common.Hash) (uint64, error) {
	out, err := m.s.call(ctx, "Failed to get venue event count", contract.MethodVenueEventCount, hash.Big())
	if err != nil {
		return 0, err
	}
	return clampUint64(bigOut(out, 0)), nil
}

// GetVenueData 场馆概况；未登记的场馆用哈希前缀作为名称
func (m *VenueManager) GetVenueData(ctx context.Context, hash common.Hash) (*types.VenueData, error) {
	count, err := m.GetVenueEventCount(ctx, hash)
	if err != nil {
		return nil, err
	}
	return &types.VenueData{Hash: hash, Name: m.displayName(hash), EventCount: count}, nil
}

func (m *VenueManager) displayName(hash common.Hash) string {
	if name, ok := m.s.venueName(hash); ok {
		return name
	}
	digits := hash.Big().String()
	if len(digits) > 8 {
		digits = digits[:8]
	}
	return fmt.Sprintf("Venue %s...", digits)
}

// GetVenueEvents venueId 下的活动
//
// 启用索引时遍历 EventCreated 日志中的全部活动，否则只看最近 100 个。
func (m *VenueManager) GetVenueEvents(ctx context.Context, venueID uint16) ([]*types.Event, error) {
	const failMsg = "Failed to get venue events"

	ix, err := m.s.syncedIndexer(ctx)
	if err != nil {
		return nil, err
	}
	if ix == nil {
		resp, err := m.events.GetEvents(ctx, EventsQuery{Limit: maxPageSize})
		if err != nil {
			return nil, sdkerrors.Wrap(failMsg, err)
		}
		var events []*types.Event
		for _, ev := range resp.Events {
			if ev.VenueID == venueID {
				events = append(events, ev)
			}
		}
		return events, nil
	}

	created, err := ix.EventsCreated(ctx)
	if err != nil {
		return nil, sdkerrors.Wrap(failMsg, err)
	}
	var events []*types.Event
	for i := len(created) - 1; i >= 0; i-- {
		ev, err := m.events.getEvent(ctx, created[i].EventID)
		if err != nil {
			return nil, sdkerrors.Wrap(failMsg, err)
		}
		if ev != nil && ev.VenueID == venueID {
			events = append(events, ev)
		}
	}
	return events, nil
}

// HasVenueCredential 用户是否持有场馆凭证（serial 0）
func (m *VenueManager) HasVenueCredential(ctx context.Context, user common.Address, hash common.Hash) (bool, error) {
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return false, err
	}
	balance, err := m.s.balanceOf(ctx, "Failed to check venue credential", user, codec.VenueCredentialTokenID(hash, 0))
	if err != nil {
		return false, err
	}
	return balance.Sign() > 0, nil
}

// GetOrganizerVenues 组织者持有的场馆凭证
//
// 候选 token id 来自 Transfer 日志，以当前余额为准；未启用索引时返回空列表。
func (m *VenueManager) GetOrganizerVenues(ctx context.Context, organizer common.Address) ([]*types.VenueCredential, error) {
	const failMsg = "Failed to get organizer venues"
	if err := utils.RequireNonZeroAddress(organizer, "organizer"); err != nil {
		return nil, err
	}
	ix, err := m.s.syncedIndexer(ctx)
	if err != nil || ix == nil {
		return []*types.VenueCredential{}, err
	}

	ids, err := ix.TokenIDsReceived(ctx, organizer)
	if err != nil {
		return nil, sdkerrors.Wrap(failMsg, err)
	}
	byKey := make(map[string]knownVenue)
	for _, v := range m.s.knownVenues() {
		byKey[codec.VenueTokenKey(v.hash).String()] = v
	}

	creds := []*types.VenueCredential{}
	for _, id := range ids {
		c := codec.ParseTokenID(id)
		if c.Type != types.TokenTypeVenueCred {
			continue
		}
		balance, err := m.s.balanceOf(ctx, failMsg, organizer, id)
		if err != nil {
			return nil, err
		}
		if balance.Sign() == 0 {
			continue
		}
		cred := &types.VenueCredential{TokenID: id}
		if v, ok := byKey[c.EventID.String()]; ok {
			cred.VenueHash = v.hash
			cred.VenueName = v.name
			if cred.EventCount, err = m.GetVenueEventCount(ctx, v.hash); err != nil {
				return nil, err
			}
		} else {
			cred.VenueName = fmt.Sprintf("Venue key %s", c.EventID.String())
		}
		creds = append(creds, cred)
	}
	return creds, nil
}

// PackLocationData 经纬度打包
func (m *VenueManager) PackLocationData(lat, lon float64) (*big.Int, error) {
	return codec.PackLocation(lat, lon)
}

// UnpackLocationData 经纬度解包
func (m *VenueManager) UnpackLocationData(packed *big.Int) types.Coordinates {
	return codec.UnpackLocation(packed)
}

// SearchVenues 按名称子串（不区分大小写）搜索已登记场馆，按活动数降序
func (m *VenueManager) SearchVenues(ctx context.Context, query string) ([]*types.VenueData, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	var matched []knownVenue
	for _, v := range m.s.knownVenues() {
		if query == "" || strings.Contains(strings.ToLower(v.name), query) {
			matched = append(matched, v)
		}
	}
	return m.rank(ctx, matched)
}

// GetTopVenues 活动数最多的已登记场馆，limit 为 0 时取 10
func (m *VenueManager) GetTopVenues(ctx context.Context, limit int) ([]*types.VenueData, error) {
	if limit == 0 {
		limit = defaultPageSize
	}
	if limit < 1 || limit > maxPageSize {
		return nil, sdkerrors.Validation("Limit must be between 1 and 100", "limit")
	}
	venues, err := m.rank(ctx, m.s.knownVenues())
	if err != nil {
		return nil, err
	}
	if len(venues) > limit {
		venues = venues[:limit]
	}
	return venues, nil
}

func (m *VenueManager) rank(ctx context.Context, venues []knownVenue) ([]*types.VenueData, error) {
	out := make([]*types.VenueData, 0, len(venues))
	for _, v := range venues {
		count, err := m.GetVenueEventCount(ctx, v.hash)
		if err != nil {
			return nil, err
		}
		out = append(out, &types.VenueData{Hash: v.hash, Name: v.name, EventCount: count})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EventCount > out[j].EventCount })
	return out, nil
}
