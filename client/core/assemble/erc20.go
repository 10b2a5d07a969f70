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

// ERC20Manager ERC-20 代币支付
//
// 合约从调用者账户划转代币，调用前需要先对合约地址 approve 足够额度。
type ERC20Manager struct {
	s      *Session
	logger logInterface.Logger
}

// NewERC20Manager 创建 ERC-20 管理器
func NewERC20Manager(s *Session) *ERC20Manager {
	return &ERC20Manager{s: s, logger: logpkg.WithModule(s.logger, "assemble.erc20")}
}

func validateERC20Purchase(p types.ERC20PurchaseParams) error {
	if p.Quantity == 0 {
		return sdkerrors.Validation("Quantity must be greater than 0", "quantity")
	}
	if err := utils.ValidateTicketQuantity(p.Quantity); err != nil {
		return err
	}
	if err := utils.ValidateEventID(p.EventID); err != nil {
		return err
	}
	return utils.RequireNonZeroAddress(p.Token, "token")
}

func validateERC20Tip(p types.ERC20TipParams) error {
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return sdkerrors.Validation("Tip amount must be greater than 0", "amount")
	}
	if err := utils.ValidateEventID(p.EventID); err != nil {
		return err
	}
	return utils.RequireNonZeroAddress(p.Token, "token")
}

func validateReferral(referrer common.Address, feeBps uint64) error {
	if err := utils.RequireNonZeroAddress(referrer, "referrer"); err != nil {
		return err
	}
	return utils.ValidatePlatformFee(feeBps)
}

// PurchaseTicketsERC20 用 ERC-20 代币购票
func (m *ERC20Manager) PurchaseTicketsERC20(ctx context.Context, p types.ERC20PurchaseParams) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := validateERC20Purchase(p); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to purchase tickets with ERC20", nil,
		contract.MethodPurchaseTicketsERC20, p.EventID, u64(p.TierID), u64(p.Quantity), p.Token)
}

// PurchaseTicketsERC20WithPlatformFee 用 ERC-20 代币购票并给推荐人分配平台费
func (m *ERC20Manager) PurchaseTicketsERC20WithPlatformFee(ctx context.Context, p types.ERC20PurchaseWithFeeParams) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := validateERC20Purchase(p.ERC20PurchaseParams); err != nil {
		return common.Hash{}, err
	}
	if err := validateReferral(p.Referrer, p.PlatformFeeBps); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to purchase tickets with ERC20 and platform fee", nil,
		contract.MethodPurchaseTicketsERC20WithFee,
		p.EventID, u64(p.TierID), u64(p.Quantity), p.Token, p.Referrer, u64(p.PlatformFeeBps))
}

// TipEventERC20 用 ERC-20 代币打赏
func (m *ERC20Manager) TipEventERC20(ctx context.Context, p types.ERC20TipParams) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := validateERC20Tip(p); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to tip event with ERC20", nil,
		contract.MethodTipEventERC20, p.EventID, p.Token, p.Amount)
}

// TipEventERC20WithPlatformFee 用 ERC-20 代币打赏并分配平台费
func (m *ERC20Manager) TipEventERC20WithPlatformFee(ctx context.Context, p types.ERC20TipWithFeeParams) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := validateERC20Tip(p.ERC20TipParams); err != nil {
		return common.Hash{}, err
	}
	if err := validateReferral(p.Referrer, p.PlatformFeeBps); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to tip event with ERC20 and platform fee", nil,
		contract.MethodTipEventERC20WithFee, p.EventID, p.Token, p.Amount, p.Referrer, u64(p.PlatformFeeBps))
}

// ClaimERC20Funds 提取某代币的待领取余额
func (m *ERC20Manager) ClaimERC20Funds(ctx context.Context, token common.Address) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.RequireNonZeroAddress(token, "token"); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to claim ERC20 funds", nil, contract.MethodClaimERC20Funds, token)
}

// GetPendingERC20Withdrawals 用户在某代币上的待领取余额
func (m *ERC20Manager) GetPendingERC20Withdrawals(ctx context.Context, user, token common.Address) (*big.Int, error) {
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return nil, err
	}
	if err := utils.RequireNonZeroAddress(token, "token"); err != nil {
		return nil, err
	}
	out, err := m.s.call(ctx, "Failed to get pending ERC20 withdrawals", contract.MethodPendingERC20Withdrawals, token, user)
	if err != nil {
		return nil, err
	}
	return bigOut(out, 0), nil
}

// IsSupportedToken 代币是否在白名单中
func (m *ERC20Manager) IsSupportedToken(ctx context.Context, token common.Address) (bool, error) {
	if err := utils.RequireNonZeroAddress(token, "token"); err != nil {
		return false, err
	}
	out, err := m.s.call(ctx, "Failed to check token support", contract.MethodSupportedTokens, token)
	if err != nil {
		return false, err
	}
	return boolOut(out, 0), nil
}

// GetSupportedTokens 从候选列表中筛出白名单代币
//
// 合约不提供白名单枚举；单个候选查询失败时跳过，网络错误直接返回。
func (m *ERC20Manager) GetSupportedTokens(ctx context.Context, candidates []common.Address) ([]common.Address, error) {
	supported := make([]common.Address, 0, len(candidates))
	for _, token := range candidates {
		ok, err := m.IsSupportedToken(ctx, token)
		if err != nil {
			if sdkerrors.IsNetwork(err) {
				return nil, err
			}
			m.logger.Debugf("跳过候选代币 %s: %v", token.Hex(), err)
			continue
		}
		if ok {
			supported = append(supported, token)
		}
	}
	return supported, nil
}
