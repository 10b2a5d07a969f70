package wallet

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// MnemonicStrength 助记词熵强度（bits）
type MnemonicStrength int

const (
	Mnemonic12Words MnemonicStrength = 128
	Mnemonic24Words MnemonicStrength = 256
)

// GenerateMnemonic 生成新的 BIP39 助记词
func GenerateMnemonic(strength MnemonicStrength) (string, error) {
	if strength < 128 || strength > 256 || strength%32 != 0 {
		return "", fmt.Errorf("invalid mnemonic strength: %d, must be 128, 160, 192, 224, or 256", strength)
	}

	entropy := make([]byte, int(strength)/8)
	if _, err := rand.Read(entropy); err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic 校验助记词，返回具体原因
func ValidateMnemonic(mnemonic string) error {
	mnemonic = normalizeSpaces(mnemonic)
	if mnemonic == "" {
		return fmt.Errorf("助记词不能为空")
	}

	words := strings.Split(mnemonic, " ")
	switch len(words) {
	case 12, 15, 18, 21, 24:
	default:
		return fmt.Errorf("助记词数量无效: %d，应为 12, 15, 18, 21 或 24", len(words))
	}

	wordSet := make(map[string]struct{}, 2048)
	for _, w := range bip39.GetWordList() {
		wordSet[w] = struct{}{}
	}
	for i, word := range words {
		if _, ok := wordSet[word]; !ok {
			return fmt.Errorf("第 %d 个单词 '%s' 不在 BIP39 词表中", i+1, word)
		}
	}

	if !bip39.IsMnemonicValid(mnemonic) {
		return fmt.Errorf("校验和验证失败，请检查助记词是否正确")
	}
	return nil
}

// MnemonicToSeed 助记词加可选口令生成种子
func MnemonicToSeed(mnemonic, passphrase string) ([]byte, error) {
	mnemonic = normalizeSpaces(mnemonic)
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	return bip39.NewSeed(mnemonic, passphrase), nil
}

// normalizeSpaces 规范化空格（将多个连续空格替换为单个空格）
func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
