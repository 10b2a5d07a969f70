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

// TokenManager 代币 id 编解码与灵魂绑定代币查询
type TokenManager struct {
	s      *Session
	logger logInterface.Logger
}

// NewTokenManager 创建代币管理器
func NewTokenManager(s *Session) *TokenManager {
	return &TokenManager{s: s, logger: logpkg.WithModule(s.logger, "assemble.tokens")}
}

// ParseTokenID 拆分 token id
func (m *TokenManager) ParseTokenID(tokenID *big.Int) types.TokenIDComponents {
	return codec.ParseTokenID(tokenID)
}

// ConstructTokenID 组装 token id
func (m *TokenManager) ConstructTokenID(c types.TokenIDComponents) (*big.Int, error) {
	return codec.ConstructTokenID(c)
}

// IsSoulboundToken 徽章与凭证不可转让
func (m *TokenManager) IsSoulboundToken(t types.TokenType) bool {
	return codec.IsSoulbound(t)
}

// GetTokenTypeName 类型的可读名称
func (m *TokenManager) GetTokenTypeName(t types.TokenType) string {
	return t.DisplayName()
}

// IsValidTokenID 类型标签是否可识别
func (m *TokenManager) IsValidTokenID(tokenID *big.Int) bool {
	return codec.IsValidTokenID(tokenID)
}

// GetTokenBalance 用户持有的 token 数量
func (m *TokenManager) GetTokenBalance(ctx context.Context, user common.Address, tokenID *big.Int) (*big.Int, error) {
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return nil, err
	}
	if err := requireUint256(tokenID, "tokenId"); err != nil {
		return nil, err
	}
	return m.s.balanceOf(ctx, "Failed to get token balance", user, tokenID)
}

// GetTotalSupply token 总量
func (m *TokenManager) GetTotalSupply(ctx context.Context, tokenID *big.Int) (*big.Int, error) {
	if err := requireUint256(tokenID, "tokenId"); err != nil {
		return nil, err
	}
	out, err := m.s.call(ctx, "Failed to get total supply", contract.MethodTotalSupply, tokenID)
	if err != nil {
		return nil, err
	}
	return bigOut(out, 0), nil
}

// HasAttendanceBadge 用户是否持有活动的出席徽章
func (m *TokenManager) HasAttendanceBadge(ctx context.Context, user common.Address, eventID *big.Int) (bool, error) {
	return m.holdsEventToken(ctx, "Failed to check attendance badge", user, types.TokenTypeAttendanceBadge, eventID)
}

// HasOrganizerCredential 用户是否持有活动的组织者凭证
func (m *TokenManager) HasOrganizerCredential(ctx context.Context, user common.Address, eventID *big.Int) (bool, error) {
	return m.holdsEventToken(ctx, "Failed to check organizer credential", user, types.TokenTypeOrganizerCred, eventID)
}

func (m *TokenManager) holdsEventToken(ctx context.Context, failMsg string, user common.Address, t types.TokenType, eventID *big.Int) (bool, error) {
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return false, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return false, err
	}
	tokenID, err := codec.ConstructTokenID(types.TokenIDComponents{Type: t, EventID: eventID})
	if err != nil {
		return false, err
	}
	balance, err := m.s.balanceOf(ctx, failMsg, user, tokenID)
	if err != nil {
		return false, err
	}
	return balance.Sign() > 0, nil
}

// HasVenueCredential 用户是否持有场馆凭证，token id 的事件槽存放场馆哈希的低 96 位
func (m *TokenManager) HasVenueCredential(ctx context.Context, user common.Address, venueHash common.Hash) (bool, error) {
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return false, err
	}
	balance, err := m.s.balanceOf(ctx, "Failed to check venue credential", user, codec.VenueCredentialTokenID(venueHash, 0))
	if err != nil {
		return false, err
	}
	return balance.Sign() > 0, nil
}

// GetUserTokens 用户当前持有的全部灵魂绑定代币
//
// 候选来自 Transfer 日志，余额为 0 的已不再持有；未启用索引时返回空列表。
func (m *TokenManager) GetUserTokens(ctx context.Context, user common.Address) ([]*types.SoulboundToken, error) {
	return m.soulboundTokens(ctx, user, func(types.TokenType) bool { return true })
}

// GetAttendanceBadges 出席徽章
func (m *TokenManager) GetAttendanceBadges(ctx context.Context, user common.Address) ([]*types.SoulboundToken, error) {
	return m.soulboundTokens(ctx, user, only(types.TokenTypeAttendanceBadge))
}

// GetOrganizerCredentials 组织者凭证
func (m *TokenManager) GetOrganizerCredentials(ctx context.Context, user common.Address) ([]*types.SoulboundToken, error) {
	return m.soulboundTokens(ctx, user, only(types.TokenTypeOrganizerCred))
}

// GetVenueCredentials 场馆凭证
func (m *TokenManager) GetVenueCredentials(ctx context.Context, user common.Address) ([]*types.SoulboundToken, error) {
	return m.soulboundTokens(ctx, user, only(types.TokenTypeVenueCred))
}

func only(t types.TokenType) func(types.TokenType) bool {
	return func(x types.TokenType) bool { return x == t }
}

func (m *TokenManager) soulboundTokens(ctx context.Context, user common.Address, keep func(types.TokenType) bool) ([]*types.SoulboundToken, error) {
	const failMsg = "Failed to get user tokens"
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return nil, err
	}
	ix, err := m.s.syncedIndexer(ctx)
	if err != nil || ix == nil {
		return []*types.SoulboundToken{}, err
	}

	transfers, err := ix.Transfers(ctx)
	if err != nil {
		return nil, sdkerrors.Wrap(failMsg, err)
	}
	// 每个 token 第一次转入 user 的区块
	firstBlock := make(map[string]uint64)
	var order []*big.Int
	for _, t := range transfers {
		if t.To != user || t.TokenID == nil {
			continue
		}
		key := t.TokenID.String()
		if _, ok := firstBlock[key]; ok {
			continue
		}
		firstBlock[key] = t.Block
		order = append(order, t.TokenID)
	}

	tokens := []*types.SoulboundToken{}
	for _, id := range order {
		c := codec.ParseTokenID(id)
		if !codec.IsSoulbound(c.Type) || !keep(c.Type) {
			continue
		}
		balance, err := m.s.balanceOf(ctx, failMsg, user, id)
		if err != nil {
			return nil, err
		}
		if balance.Sign() == 0 {
			continue
		}
		tok := &types.SoulboundToken{
			TokenID:   id,
			TokenType: c.Type,
			Owner:     user,
			Balance:   balance,
			MintedAt:  m.s.blockTime(ctx, firstBlock[id.String()]),
		}
		if c.Type == types.TokenTypeVenueCred {
			tok.VenueKey = c.EventID
		} else {
			tok.EventID = c.EventID
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}
