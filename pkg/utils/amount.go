package utils

import (
	"math/big"
	"strings"

	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

// EtherDecimals 以太坊原生币精度
const EtherDecimals = 18

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(EtherDecimals), nil)

// ========================================
// 金额格式化与解析
// ========================================

// FormatEther 把 wei 格式化为以太单位字符串，保留 4 位小数
//
// 采用截断而非四舍五入，保证展示值不大于实际余额：
//   - 1500000000000000000 -> "1.5000"
//   - 1 -> "0.0000"
func FormatEther(wei *big.Int) string {
	return FormatUnits(wei, EtherDecimals, 4)
}

// FormatUnits 按指定精度格式化整数金额
//
// 参数：
//   - amount: 最小单位金额，nil 视为 0
//   - decimals: 代币精度
//   - places: 保留的小数位数
func FormatUnits(amount *big.Int, decimals, places int) string {
	if amount == nil {
		amount = new(big.Int)
	}

	neg := amount.Sign() < 0
	abs := new(big.Int).Abs(amount)

	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, unit, new(big.Int))

	fracStr := frac.String()
	if pad := decimals - len(fracStr); pad > 0 {
		fracStr = strings.Repeat("0", pad) + fracStr
	}
	if places < decimals {
		fracStr = fracStr[:places]
	} else {
		fracStr += strings.Repeat("0", places-decimals)
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(whole.String())
	if places > 0 {
		b.WriteByte('.')
		b.WriteString(fracStr)
	}
	return b.String()
}

// ParseEther 把以太单位字符串精确解析为 wei
//
// 支持最多 18 位小数，超出精度或格式非法时返回 ValidationError。
func ParseEther(ether string) (*big.Int, error) {
	return ParseUnits(ether, EtherDecimals)
}

// ParseUnits 把十进制字符串解析为最小单位整数
func ParseUnits(value string, decimals int) (*big.Int, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return nil, sdkerrors.Validation("Amount cannot be empty", "amount")
	}

	neg := false
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		s = s[1:]
	}

	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && (!hasDot || frac == "") {
		return nil, sdkerrors.Validationf("amount", "Invalid amount: %s", value)
	}
	if len(frac) > decimals {
		return nil, sdkerrors.Validationf("amount", "Amount %s exceeds %d decimals", value, decimals)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, sdkerrors.Validationf("amount", "Invalid amount: %s", value)
	}

	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	result, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, sdkerrors.Validationf("amount", "Invalid amount: %s", value)
	}
	if neg {
		result.Neg(result)
	}
	return result, nil
}

// MustParseEther 解析失败时 panic，仅用于常量
func MustParseEther(ether string) *big.Int {
	v, err := ParseEther(ether)
	if err != nil {
		panic(err)
	}
	return v
}

// WeiPerEther 返回 1 ether 对应的 wei
func WeiPerEther() *big.Int {
	return new(big.Int).Set(weiPerEther)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
