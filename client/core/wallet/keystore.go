package wallet

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"

	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

// scrypt 参数
const (
	StandardScryptN = 1 << 18
	StandardScryptP = 1
	LightScryptN    = 1 << 12
	LightScryptP    = 6

	scryptR     = 8
	scryptDKLen = 32
)

// KeystoreV3 Web3 Secret Storage v3 文件格式
type KeystoreV3 struct {
	Address string   `json:"address"` // 不带 0x 的小写十六进制
	Crypto  CryptoV3 `json:"crypto"`
	ID      string   `json:"id"`
	Version int      `json:"version"`
}

// CryptoV3 加密参数
type CryptoV3 struct {
	Cipher       string                 `json:"cipher"`     // "aes-128-ctr"
	CipherText   string                 `json:"ciphertext"` // hex编码
	CipherParams CipherParams           `json:"cipherparams"`
	KDF          string                 `json:"kdf"` // "scrypt"
	KDFParams    map[string]interface{} `json:"kdfparams"`
	MAC          string                 `json:"mac"`
}

// CipherParams 密码参数
type CipherParams struct {
	IV string `json:"iv"` // hex编码的初始化向量
}

// EncryptKey 用口令加密私钥，生成 v3 keystore JSON
func EncryptKey(key *ecdsa.PrivateKey, password string, scryptN, scryptP int) ([]byte, error) {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	derived, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("generate iv: %w", err)
	}
	cipherText, err := aesCTR(derived[:16], crypto.FromECDSA(key), iv)
	if err != nil {
		return nil, err
	}
	mac := crypto.Keccak256(derived[16:32], cipherText)

	ks := KeystoreV3{
		Address: hex.EncodeToString(crypto.PubkeyToAddress(key.PublicKey).Bytes()),
		Crypto: CryptoV3{
			Cipher:       "aes-128-ctr",
			CipherText:   hex.EncodeToString(cipherText),
			CipherParams: CipherParams{IV: hex.EncodeToString(iv)},
			KDF:          "scrypt",
			KDFParams: map[string]interface{}{
				"n":     scryptN,
				"r":     scryptR,
				"p":     scryptP,
				"dklen": scryptDKLen,
				"salt":  hex.EncodeToString(salt),
			},
			MAC: hex.EncodeToString(mac),
		},
		ID:      uuid.New().String(),
		Version: 3,
	}
	return json.MarshalIndent(ks, "", "  ")
}

// DecryptKey 解密 v3 keystore JSON
func DecryptKey(data []byte, password string) (*ecdsa.PrivateKey, error) {
	var ks KeystoreV3
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, fmt.Errorf("decode keystore: %w", err)
	}
	if ks.Version != 3 {
		return nil, fmt.Errorf("unsupported keystore version %d", ks.Version)
	}
	if ks.Crypto.Cipher != "aes-128-ctr" {
		return nil, fmt.Errorf("unsupported cipher: %s", ks.Crypto.Cipher)
	}
	if ks.Crypto.KDF != "scrypt" {
		return nil, fmt.Errorf("unsupported KDF: %s", ks.Crypto.KDF)
	}

	salt, err := hex.DecodeString(fmt.Sprint(ks.Crypto.KDFParams["salt"]))
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	n, r, p := intParam(ks.Crypto.KDFParams, "n"), intParam(ks.Crypto.KDFParams, "r"), intParam(ks.Crypto.KDFParams, "p")
	dkLen := intParam(ks.Crypto.KDFParams, "dklen")
	derived, err := scrypt.Key([]byte(password), salt, n, r, p, dkLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt: %w", err)
	}

	cipherText, err := hex.DecodeString(ks.Crypto.CipherText)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	mac, err := hex.DecodeString(ks.Crypto.MAC)
	if err != nil {
		return nil, fmt.Errorf("decode mac: %w", err)
	}
	if !bytes.Equal(crypto.Keccak256(derived[16:32], cipherText), mac) {
		return nil, sdkerrors.Wallet("Could not decrypt key with given password")
	}

	iv, err := hex.DecodeString(ks.Crypto.CipherParams.IV)
	if err != nil {
		return nil, fmt.Errorf("decode iv: %w", err)
	}
	plain, err := aesCTR(derived[:16], cipherText, iv)
	if err != nil {
		return nil, err
	}
	key, err := crypto.ToECDSA(plain)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	if ks.Address != "" && !strings.EqualFold(ks.Address, hex.EncodeToString(crypto.PubkeyToAddress(key.PublicKey).Bytes())) {
		return nil, fmt.Errorf("keystore address mismatch")
	}
	return key, nil
}

func aesCTR(key, in, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	out := make([]byte, len(in))
	cipher.NewCTR(block, iv).XORKeyStream(out, in)
	return out, nil
}

func intParam(params map[string]interface{}, name string) int {
	switch v := params[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// KeystoreAddress 读取 keystore 文件中的地址（不解密）
func KeystoreAddress(data []byte) (common.Address, error) {
	var ks KeystoreV3
	if err := json.Unmarshal(data, &ks); err != nil {
		return common.Address{}, fmt.Errorf("decode keystore: %w", err)
	}
	if !common.IsHexAddress(ks.Address) {
		return common.Address{}, fmt.Errorf("keystore has invalid address %q", ks.Address)
	}
	return common.HexToAddress(ks.Address), nil
}

// SaveKeystore 加密私钥并写入目录，文件名 UTC--<timestamp>--<address>
func SaveKeystore(dir string, key *ecdsa.PrivateKey, password string, scryptN, scryptP int) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create keystore dir: %w", err)
	}
	data, err := EncryptKey(key, password, scryptN, scryptP)
	if err != nil {
		return "", err
	}

	address := crypto.PubkeyToAddress(key.PublicKey)
	filename := fmt.Sprintf("UTC--%s--%s",
		time.Now().UTC().Format("2006-01-02T15-04-05.000000000Z"),
		hex.EncodeToString(address.Bytes()),
	)
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("write keystore: %w", err)
	}
	return path, nil
}

// KeystoreSigner Keystore签名器实现，需要 Unlock 后才能签名
type KeystoreSigner struct {
	path    string
	address common.Address
	holder  keyHolder
}

// NewKeystoreSigner 打开 keystore 文件，初始为锁定状态
func NewKeystoreSigner(path string) (*KeystoreSigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sdkerrors.WalletWrap("Keystore file not found", err)
	}
	address, err := KeystoreAddress(data)
	if err != nil {
		return nil, sdkerrors.WalletWrap("Invalid keystore file", err)
	}
	s := &KeystoreSigner{path: path, address: address}
	s.holder.locked = true
	return s, nil
}

// Path keystore 文件路径
func (s *KeystoreSigner) Path() string { return s.path }

func (s *KeystoreSigner) Address() common.Address { return s.address }

func (s *KeystoreSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return s.holder.signTx(tx, chainID)
}

func (s *KeystoreSigner) SignHash(hash []byte) ([]byte, error) {
	return s.holder.signHash(hash)
}

// Unlock 用口令解密私钥
func (s *KeystoreSigner) Unlock(password string, duration time.Duration) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return sdkerrors.WalletWrap("Failed to read keystore", err)
	}
	key, err := DecryptKey(data, password)
	if err != nil {
		if sdkerrors.IsWallet(err) {
			return err
		}
		return sdkerrors.WalletWrap("Failed to decrypt keystore", err)
	}
	if crypto.PubkeyToAddress(key.PublicKey) != s.address {
		zeroKey(key)
		return sdkerrors.Wallet("Keystore address mismatch")
	}
	s.holder.set(key, duration)
	return nil
}

func (s *KeystoreSigner) Lock() { s.holder.lock(true) }

func (s *KeystoreSigner) IsLocked() bool { return s.holder.isLocked() }

func (s *KeystoreSigner) Type() SignerType { return SignerTypeKeystore }

var _ Signer = (*KeystoreSigner)(nil)
