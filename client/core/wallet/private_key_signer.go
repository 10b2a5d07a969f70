package wallet

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

// PrivateKeySigner 十六进制私钥签名器，创建后即处于解锁状态
type PrivateKeySigner struct {
	address common.Address
	holder  keyHolder
}

// NewPrivateKeySigner 从十六进制私钥创建签名器，支持 0x 前缀
func NewPrivateKeySigner(hexKey string) (*PrivateKeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, sdkerrors.WalletWrap("Invalid private key", err)
	}
	s := &PrivateKeySigner{address: crypto.PubkeyToAddress(key.PublicKey)}
	s.holder.set(key, 0)
	return s, nil
}

func (s *PrivateKeySigner) Address() common.Address { return s.address }

func (s *PrivateKeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return s.holder.signTx(tx, chainID)
}

func (s *PrivateKeySigner) SignHash(hash []byte) ([]byte, error) {
	return s.holder.signHash(hash)
}

// Unlock 私钥常驻内存，密码被忽略
func (s *PrivateKeySigner) Unlock(_ string, duration time.Duration) error {
	s.holder.mu.Lock()
	key := s.holder.key
	s.holder.mu.Unlock()
	if key == nil {
		return sdkerrors.Wallet("Private key has been wiped")
	}
	s.holder.set(key, duration)
	return nil
}

func (s *PrivateKeySigner) Lock() { s.holder.lock(false) }

func (s *PrivateKeySigner) IsLocked() bool { return s.holder.isLocked() }

func (s *PrivateKeySigner) Type() SignerType { return SignerTypePrivateKey }

var _ Signer = (*PrivateKeySigner)(nil)
