package assemble

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/assemble-go/client/core/contract"
	logpkg "github.com/weisyn/assemble-go/internal/core/infrastructure/log"
	logInterface "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/utils"
)

// ProtocolManager 协议级参数与资金提取
type ProtocolManager struct {
	s      *Session
	logger logInterface.Logger
}

// NewProtocolManager 创建协议管理器
func NewProtocolManager(s *Session) *ProtocolManager {
	return &ProtocolManager{s: s, logger: logpkg.WithModule(s.logger, "assemble.protocol")}
}

// ProtocolInfo 协议常量快照
type ProtocolInfo struct {
	MaxPaymentSplits    *big.Int       `json:"max_payment_splits"`
	MaxPlatformFee      *big.Int       `json:"max_platform_fee"`
	MaxProtocolFee      *big.Int       `json:"max_protocol_fee"`
	MaxTicketQuantity   *big.Int       `json:"max_ticket_quantity"`
	RefundClaimDeadline *big.Int       `json:"refund_claim_deadline"`
	ProtocolFeeBps      *big.Int       `json:"protocol_fee_bps"`
	FeeTo               common.Address `json:"fee_to"`
}

// ClaimFunds 提取待领取的 ETH
func (m *ProtocolManager) ClaimFunds(ctx context.Context) (common.Hash, error) {
	return m.s.write(ctx, "Failed to claim funds", nil, contract.MethodClaimFunds)
}

// ClaimOrganizerCredential 领取活动组织者凭证
func (m *ProtocolManager) ClaimOrganizerCredential(ctx context.Context, eventID *big.Int) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to claim organizer credential", nil, contract.MethodClaimOrganizerCredential, eventID)
}

// SetProtocolFee 设置协议费（仅管理员），不超过 10000 基点
func (m *ProtocolManager) SetProtocolFee(ctx context.Context, feeBps uint64) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateBasisPoints(feeBps, utils.MaxProtocolFeeBps); err != nil {
		return common.Hash{}, err
	}
	hash, err := m.s.transact(ctx, signer, "Failed to set protocol fee", nil, contract.MethodSetProtocolFee, u64(feeBps))
	if err == nil {
		m.logger.Infof("协议费设置为 %d bps: %s", feeBps, hash.Hex())
	}
	return hash, err
}

// SetFeeTo 设置协议费接收地址（仅管理员）
func (m *ProtocolManager) SetFeeTo(ctx context.Context, feeTo common.Address) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.RequireNonZeroAddress(feeTo, "fee recipient"); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to set fee recipient", nil, contract.MethodSetFeeTo, feeTo)
}

// GetMaxPaymentSplits MAX_PAYMENT_SPLITS
func (m *ProtocolManager) GetMaxPaymentSplits(ctx context.Context) (*big.Int, error) {
	return m.s.callConstant(ctx, "Failed to get max payment splits", contract.MethodMaxPaymentSplits)
}

// GetMaxPlatformFee MAX_PLATFORM_FEE
func (m *ProtocolManager) GetMaxPlatformFee(ctx context.Context) (*big.Int, error) {
	return m.s.callConstant(ctx, "Failed to get max platform fee", contract.MethodMaxPlatformFee)
}

// GetMaxProtocolFee MAX_PROTOCOL_FEE
func (m *ProtocolManager) GetMaxProtocolFee(ctx context.Context) (*big.Int, error) {
	return m.s.callConstant(ctx, "Failed to get max protocol fee", contract.MethodMaxProtocolFee)
}

// GetMaxTicketQuantity MAX_TICKET_QUANTITY
func (m *ProtocolManager) GetMaxTicketQuantity(ctx context.Context) (*big.Int, error) {
	return m.s.callConstant(ctx, "Failed to get max ticket quantity", contract.MethodMaxTicketQuantity)
}

// GetRefundClaimDeadline REFUND_CLAIM_DEADLINE，单位秒
func (m *ProtocolManager) GetRefundClaimDeadline(ctx context.Context) (*big.Int, error) {
	return m.s.callConstant(ctx, "Failed to get refund claim deadline", contract.MethodRefundClaimDeadline)
}

// GetProtocolFee 当前协议费基点，可被管理员修改，不缓存
func (m *ProtocolManager) GetProtocolFee(ctx context.Context) (*big.Int, error) {
	out, err := m.s.call(ctx, "Failed to get protocol fee", contract.MethodProtocolFeeBps)
	if err != nil {
		return nil, err
	}
	return bigOut(out, 0), nil
}

// GetFeeTo 协议费接收地址
func (m *ProtocolManager) GetFeeTo(ctx context.Context) (common.Address, error) {
	out, err := m.s.call(ctx, "Failed to get fee recipient", contract.MethodFeeTo)
	if err != nil {
		return common.Address{}, err
	}
	return addressOut(out, 0), nil
}

// GetTotalReferralFees 推荐人累计获得的平台费
func (m *ProtocolManager) GetTotalReferralFees(ctx context.Context, referrer common.Address) (*big.Int, error) {
	if err := utils.RequireNonZeroAddress(referrer, "referrer"); err != nil {
		return nil, err
	}
	out, err := m.s.call(ctx, "Failed to get total referral fees", contract.MethodTotalReferralFees, referrer)
	if err != nil {
		return nil, err
	}
	return bigOut(out, 0), nil
}

// GetProtocolInfo 一次读取全部协议常量与当前费率
func (m *ProtocolManager) GetProtocolInfo(ctx context.Context) (*ProtocolInfo, error) {
	var (
		info ProtocolInfo
		err  error
	)
	if info.MaxPaymentSplits, err = m.GetMaxPaymentSplits(ctx); err != nil {
		return nil, err
	}
	if info.MaxPlatformFee, err = m.GetMaxPlatformFee(ctx); err != nil {
		return nil, err
	}
	if info.MaxProtocolFee, err = m.GetMaxProtocolFee(ctx); err != nil {
		return nil, err
	}
	if info.MaxTicketQuantity, err = m.GetMaxTicketQuantity(ctx); err != nil {
		return nil, err
	}
	if info.RefundClaimDeadline, err = m.GetRefundClaimDeadline(ctx); err != nil {
		return nil, err
	}
	if info.ProtocolFeeBps, err = m.GetProtocolFee(ctx); err != nil {
		return nil, err
	}
	if info.FeeTo, err = m.GetFeeTo(ctx); err != nil {
		return nil, err
	}
	return &info, nil
}
