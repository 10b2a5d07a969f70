package wallet

import (
	"fmt"
	"strconv"
	"strings"
)

// BIP44 相关常量
const (
	// EthereumCoinType SLIP-0044 中以太坊的 coin type
	EthereumCoinType uint32 = 60

	// BIP44Purpose BIP44 标准的 purpose 值
	BIP44Purpose uint32 = 44

	// HardenedOffset 硬化派生偏移量
	HardenedOffset uint32 = 0x80000000

	// ExternalChain 外部链（用于接收地址）
	ExternalChain uint32 = 0
)

// DerivationPath BIP32/BIP44 派生路径
type DerivationPath struct {
	Purpose      uint32 `json:"purpose"`       // 目的（通常为 44'）
	CoinType     uint32 `json:"coin_type"`     // 币种类型
	Account      uint32 `json:"account"`       // 账户
	Change       uint32 `json:"change"`        // 变化链（0=外部，1=内部）
	AddressIndex uint32 `json:"address_index"` // 地址索引
}

// DefaultDerivationPath m/44'/60'/0'/0/0
func DefaultDerivationPath() *DerivationPath {
	return PathForIndex(0)
}

// PathForIndex m/44'/60'/0'/0/{index}
func PathForIndex(index uint32) *DerivationPath {
	return &DerivationPath{
		Purpose:      BIP44Purpose,
		CoinType:     EthereumCoinType,
		Account:      0,
		Change:       ExternalChain,
		AddressIndex: index,
	}
}

// ParseDerivationPath 解析派生路径字符串
// 支持格式: m/44'/60'/0'/0/0 或 44'/60'/0'/0/0
func ParseDerivationPath(path string) (*DerivationPath, error) {
	path = strings.TrimPrefix(strings.TrimSpace(path), "m/")
	path = strings.TrimPrefix(path, "M/")

	parts := strings.Split(path, "/")
	if len(parts) != 5 {
		return nil, fmt.Errorf("invalid derivation path: expected 5 components, got %d", len(parts))
	}

	dp := &DerivationPath{}
	var err error
	fields := []struct {
		name     string
		target   *uint32
		hardened bool
	}{
		{"purpose", &dp.Purpose, true},
		{"coin type", &dp.CoinType, true},
		{"account", &dp.Account, true},
		{"change", &dp.Change, false},
		{"address index", &dp.AddressIndex, false},
	}
	for i, f := range fields {
		*f.target, err = parsePathComponent(parts[i], f.hardened)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", f.name, err)
		}
	}

	if err := dp.Validate(); err != nil {
		return nil, err
	}
	return dp, nil
}

// parsePathComponent 解析路径组件
// requireHardened: 是否要求硬化派生
func parsePathComponent(component string, requireHardened bool) (uint32, error) {
	isHardened := strings.HasSuffix(component, "'") || strings.HasSuffix(component, "H") || strings.HasSuffix(component, "h")

	if requireHardened && !isHardened {
		return 0, fmt.Errorf("hardened derivation required for %s", component)
	}
	if !requireHardened && isHardened {
		return 0, fmt.Errorf("unexpected hardened component %s", component)
	}

	component = strings.TrimRight(component, "'Hh")
	value, err := strconv.ParseUint(component, 10, 31)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", component)
	}
	return uint32(value), nil
}

// String 返回路径字符串表示
func (dp *DerivationPath) String() string {
	return fmt.Sprintf("m/%d'/%d'/%d'/%d/%d",
		dp.Purpose,
		dp.CoinType,
		dp.Account,
		dp.Change,
		dp.AddressIndex,
	)
}

// ToUint32Array 转换为 uint32 数组（用于 hdkeychain）
func (dp *DerivationPath) ToUint32Array() []uint32 {
	return []uint32{
		dp.Purpose + HardenedOffset,
		dp.CoinType + HardenedOffset,
		dp.Account + HardenedOffset,
		dp.Change,
		dp.AddressIndex,
	}
}

// WithAddressIndex 返回使用指定地址索引的新路径
func (dp *DerivationPath) WithAddressIndex(index uint32) *DerivationPath {
	newPath := *dp
	newPath.AddressIndex = index
	return &newPath
}

// Validate 验证路径是否有效
func (dp *DerivationPath) Validate() error {
	if dp.Purpose != BIP44Purpose {
		return fmt.Errorf("invalid purpose: expected %d, got %d", BIP44Purpose, dp.Purpose)
	}
	if dp.Change > 1 {
		return fmt.Errorf("invalid change: expected 0 or 1, got %d", dp.Change)
	}
	return nil
}
