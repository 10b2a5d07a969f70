package wallet

import (
	"fmt"
	"math/big"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

// MnemonicSigner BIP39 助记词签名器
//
// 创建时从助记词派生指定路径的私钥，之后与私钥签名器行为一致。
// Lock 会清除派生出的私钥，Unlock 重新派生。
type MnemonicSigner struct {
	mnemonic   string
	passphrase string
	path       *DerivationPath
	address    common.Address
	holder     keyHolder
}

// NewMnemonicSigner 创建助记词签名器；path 为 nil 时使用 m/44'/60'/0'/0/0
func NewMnemonicSigner(mnemonic, passphrase string, path *DerivationPath) (*MnemonicSigner, error) {
	if path == nil {
		path = DefaultDerivationPath()
	}
	if err := path.Validate(); err != nil {
		return nil, sdkerrors.WalletWrap("Invalid derivation path", err)
	}

	s := &MnemonicSigner{
		mnemonic:   normalizeSpaces(mnemonic),
		passphrase: passphrase,
		path:       path,
	}
	if err := s.derive(0); err != nil {
		return nil, err
	}
	return s, nil
}

// derive 从助记词派生私钥并解锁
func (s *MnemonicSigner) derive(duration time.Duration) error {
	seed, err := MnemonicToSeed(s.mnemonic, s.passphrase)
	if err != nil {
		return sdkerrors.WalletWrap("Invalid mnemonic", err)
	}

	priv, err := deriveHDKey(seed, s.path)
	if err != nil {
		return err
	}
	ecdsaKey, err := crypto.ToECDSA(priv.Serialize())
	if err != nil {
		return sdkerrors.WalletWrap("Failed to convert private key", err)
	}

	s.address = crypto.PubkeyToAddress(ecdsaKey.PublicKey)
	s.holder.set(ecdsaKey, duration)
	return nil
}

// deriveHDKey 按 BIP32 路径派生 secp256k1 私钥
func deriveHDKey(seed []byte, path *DerivationPath) (*btcec.PrivateKey, error) {
	// 使用 Bitcoin mainnet 参数（只用于 HD 派生，不影响以太坊地址）
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, sdkerrors.WalletWrap("Failed to create master key", err)
	}
	for _, index := range path.ToUint32Array() {
		key, err = key.Derive(index)
		if err != nil {
			return nil, sdkerrors.WalletWrap(fmt.Sprintf("Failed to derive %s", path), err)
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, sdkerrors.WalletWrap("Failed to get private key", err)
	}
	return priv, nil
}

// DerivationPath 当前派生路径
func (s *MnemonicSigner) DerivationPath() string {
	return s.path.String()
}

// DeriveAddresses 派生 [start, start+count) 索引的地址，不改变当前签名账户
func (s *MnemonicSigner) DeriveAddresses(start, count uint32) ([]common.Address, error) {
	out := make([]common.Address, 0, count)
	for i := start; i < start+count; i++ {
		child, err := NewMnemonicSigner(s.mnemonic, s.passphrase, s.path.WithAddressIndex(i))
		if err != nil {
			return nil, err
		}
		out = append(out, child.Address())
		child.Lock()
	}
	return out, nil
}

func (s *MnemonicSigner) Address() common.Address { return s.address }

func (s *MnemonicSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return s.holder.signTx(tx, chainID)
}

func (s *MnemonicSigner) SignHash(hash []byte) ([]byte, error) {
	return s.holder.signHash(hash)
}

// Unlock 重新从助记词派生私钥；password 不参与派生
func (s *MnemonicSigner) Unlock(_ string, duration time.Duration) error {
	return s.derive(duration)
}

func (s *MnemonicSigner) Lock() { s.holder.lock(true) }

func (s *MnemonicSigner) IsLocked() bool { return s.holder.isLocked() }

func (s *MnemonicSigner) Type() SignerType { return SignerTypeMnemonic }

var _ Signer = (*MnemonicSigner)(nil)
