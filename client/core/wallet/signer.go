// Package wallet 提供交易签名能力
//
// 支持三种签名器：十六进制私钥、BIP39 助记词（BIP44 路径 m/44'/60'/0'/0/i）、
// 加密 keystore 文件（scrypt + aes-128-ctr，与 go-ethereum keystore v3 格式兼容）。
package wallet

import (
	"crypto/ecdsa"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

// Signer 签名器接口 - 统一的签名抽象
type Signer interface {
	// Address 签名地址
	Address() common.Address

	// SignTx 按链 ID 签名交易
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)

	// SignHash 签名 32 字节哈希，返回 65 字节 [R || S || V] 签名
	SignHash(hash []byte) ([]byte, error)

	// Unlock 解锁签名器(如需密码)
	// duration: 解锁时长,0表示永久解锁(直到调用Lock)
	Unlock(password string, duration time.Duration) error

	// Lock 锁定签名器
	Lock()

	// IsLocked 检查是否已锁定
	IsLocked() bool

	// Type 返回签名器类型
	Type() SignerType
}

// SignerType 签名器类型
type SignerType string

const (
	SignerTypePrivateKey SignerType = "privatekey" // 十六进制私钥
	SignerTypeKeystore   SignerType = "keystore"   // 加密Keystore文件
	SignerTypeMnemonic   SignerType = "mnemonic"   // BIP39助记词
)

// ErrSignerLocked 签名器处于锁定状态
var ErrSignerLocked = sdkerrors.Wallet("Signer is locked")

// keyHolder 持有解锁后的私钥，处理定时重新锁定
type keyHolder struct {
	mu          sync.RWMutex
	key         *ecdsa.PrivateKey
	locked      bool
	unlockUntil time.Time
	now         func() time.Time
}

// current 返回可用私钥；超过解锁时长时自动锁定
func (h *keyHolder) current() (*ecdsa.PrivateKey, error) {
	h.mu.RLock()
	key, locked, until := h.key, h.locked, h.unlockUntil
	h.mu.RUnlock()

	if locked || key == nil {
		return nil, ErrSignerLocked
	}
	if !until.IsZero() && h.clock().After(until) {
		h.lock(false)
		return nil, ErrSignerLocked
	}
	return key, nil
}

func (h *keyHolder) set(key *ecdsa.PrivateKey, duration time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.key = key
	h.locked = false
	h.unlockUntil = time.Time{}
	if duration > 0 {
		h.unlockUntil = h.clock().Add(duration)
	}
}

// lock 锁定；wipe 为 true 时清除内存中的私钥
func (h *keyHolder) lock(wipe bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.locked = true
	h.unlockUntil = time.Time{}
	if wipe {
		zeroKey(h.key)
		h.key = nil
	}
}

func (h *keyHolder) isLocked() bool {
	_, err := h.current()
	return err != nil
}

func (h *keyHolder) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

func (h *keyHolder) signTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	key, err := h.current()
	if err != nil {
		return nil, err
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, sdkerrors.WalletWrap("Failed to sign transaction", err)
	}
	return signed, nil
}

func (h *keyHolder) signHash(hash []byte) ([]byte, error) {
	key, err := h.current()
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return nil, sdkerrors.WalletWrap("Failed to sign hash", err)
	}
	return sig, nil
}

// zeroKey 安全清除私钥
func zeroKey(key *ecdsa.PrivateKey) {
	if key != nil && key.D != nil {
		key.D.SetInt64(0)
	}
}
