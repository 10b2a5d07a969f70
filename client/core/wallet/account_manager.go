package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

// AccountInfo keystore 目录中的账户
type AccountInfo struct {
	Address      common.Address `json:"address"`
	KeystorePath string         `json:"keystore_path"`
	CreatedAt    time.Time      `json:"created_at"` // 文件修改时间
}

// AccountManager 管理 keystore 目录中的加密账户
type AccountManager struct {
	keystoreDir string
	scryptN     int
	scryptP     int
}

// NewAccountManager 创建账户管理器，目录不存在时自动创建
func NewAccountManager(keystoreDir string) (*AccountManager, error) {
	if err := os.MkdirAll(keystoreDir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &AccountManager{
		keystoreDir: keystoreDir,
		scryptN:     StandardScryptN,
		scryptP:     StandardScryptP,
	}, nil
}

// UseLightScrypt 使用轻量 scrypt 参数（测试与本地开发）
func (am *AccountManager) UseLightScrypt() {
	am.scryptN = LightScryptN
	am.scryptP = LightScryptP
}

// Dir keystore 目录
func (am *AccountManager) Dir() string { return am.keystoreDir }

// CreateAccount 生成新私钥并加密保存
func (am *AccountManager) CreateAccount(password string) (*AccountInfo, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, sdkerrors.WalletWrap("Failed to generate key", err)
	}
	defer zeroKey(key)
	return am.store(key, password)
}

// ImportPrivateKey 导入十六进制私钥
func (am *AccountManager) ImportPrivateKey(hexKey, password string) (*AccountInfo, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, sdkerrors.WalletWrap("Invalid private key", err)
	}
	defer zeroKey(key)

	address := crypto.PubkeyToAddress(key.PublicKey)
	if _, err := am.Find(address); err == nil {
		return nil, sdkerrors.Wallet(fmt.Sprintf("Account %s already exists", address.Hex()))
	}
	return am.store(key, password)
}

func (am *AccountManager) store(key *ecdsa.PrivateKey, password string) (*AccountInfo, error) {
	path, err := SaveKeystore(am.keystoreDir, key, password, am.scryptN, am.scryptP)
	if err != nil {
		return nil, sdkerrors.WalletWrap("Failed to save keystore", err)
	}
	return &AccountInfo{
		Address:      crypto.PubkeyToAddress(key.PublicKey),
		KeystorePath: path,
		CreatedAt:    time.Now(),
	}, nil
}

// ListAccounts 列出目录中所有可识别的 keystore 文件，按创建时间排序
func (am *AccountManager) ListAccounts() ([]*AccountInfo, error) {
	entries, err := os.ReadDir(am.keystoreDir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}

	accounts := make([]*AccountInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(am.keystoreDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		address, err := KeystoreAddress(data)
		if err != nil {
			continue // 跳过非 keystore 文件
		}
		info := &AccountInfo{Address: address, KeystorePath: path}
		if fi, err := entry.Info(); err == nil {
			info.CreatedAt = fi.ModTime()
		}
		accounts = append(accounts, info)
	}

	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

// Find 按地址查找账户
func (am *AccountManager) Find(address common.Address) (*AccountInfo, error) {
	accounts, err := am.ListAccounts()
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		if account.Address == address {
			return account, nil
		}
	}
	return nil, sdkerrors.Wallet(fmt.Sprintf("Account %s not found", address.Hex()))
}

// Signer 返回指定账户的 keystore 签名器；password 非空时立即解锁
func (am *AccountManager) Signer(address common.Address, password string, duration time.Duration) (*KeystoreSigner, error) {
	account, err := am.Find(address)
	if err != nil {
		return nil, err
	}
	signer, err := NewKeystoreSigner(account.KeystorePath)
	if err != nil {
		return nil, err
	}
	if password != "" {
		if err := signer.Unlock(password, duration); err != nil {
			return nil, err
		}
	}
	return signer, nil
}

// Delete 验证口令后删除账户文件
func (am *AccountManager) Delete(address common.Address, password string) error {
	account, err := am.Find(address)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(account.KeystorePath)
	if err != nil {
		return fmt.Errorf("read keystore: %w", err)
	}
	key, err := DecryptKey(data, password)
	if err != nil {
		return err
	}
	zeroKey(key)
	return os.Remove(account.KeystorePath)
}
