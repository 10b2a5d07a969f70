// Package sdkerrors 定义 SDK 的错误分类
//
// 所有对外返回的错误都可以通过 errors.As 还原为 *Error，
// 并按 Kind 区分：参数校验、合约调用、网络、钱包。
package sdkerrors

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind int

const (
	KindValidation Kind = iota + 1
	KindContract
	KindNetwork
	KindWallet
)

// String 返回类别名称
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindContract:
		return "ContractError"
	case KindNetwork:
		return "NetworkError"
	case KindWallet:
		return "WalletError"
	default:
		return "AssembleError"
	}
}

// 错误码
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeContract   = "CONTRACT_ERROR"
	CodeNetwork    = "NETWORK_ERROR"
	CodeWallet     = "WALLET_ERROR"
)

// ErrWalletNotConnected 写操作缺少签名器
var ErrWalletNotConnected = Wallet("Wallet not connected")

// Error SDK 错误
type Error struct {
	Kind    Kind
	Code    string
	Message string

	// Field 校验失败的字段名（仅 KindValidation）
	Field string
	// ContractError 合约层返回的原始错误描述（仅 KindContract）
	ContractError string
	// RevertName 解码出的自定义错误名，如 "NoEvent"（仅 KindContract）
	RevertName string
	// ChainID 相关链 ID，0 表示未知（仅 KindNetwork）
	ChainID uint64

	Cause error
}

// Error 实现 error 接口
func (e *Error) Error() string {
	switch {
	case e.RevertName != "":
		return fmt.Sprintf("%s: reverted with %s", e.Message, e.RevertName)
	case e.ContractError != "":
		return fmt.Sprintf("%s: %s", e.Message, e.ContractError)
	case e.Cause != nil && e.Kind != KindValidation:
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	default:
		return e.Message
	}
}

// Unwrap 返回底层错误
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 同类别且同消息的错误视为相等，便于与哨兵错误比较
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Validation 创建参数校验错误
func Validation(message, field string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message, Field: field}
}

// Validationf 创建带格式化消息的参数校验错误
func Validationf(field, format string, args ...interface{}) *Error {
	return Validation(fmt.Sprintf(format, args...), field)
}

// Contract 创建合约调用错误
func Contract(message string, cause error) *Error {
	e := &Error{Kind: KindContract, Code: CodeContract, Message: message, Cause: cause}
	if cause != nil {
		var inner *Error
		if errors.As(cause, &inner) && inner.Kind == KindContract {
			e.RevertName = inner.RevertName
			e.ContractError = inner.ContractError
		} else {
			e.ContractError = cause.Error()
		}
	}
	return e
}

// Revert 创建带自定义错误名的合约错误
func Revert(message, revertName string, cause error) *Error {
	e := Contract(message, cause)
	e.RevertName = revertName
	return e
}

// Network 创建网络错误
func Network(message string, chainID uint64, cause error) *Error {
	return &Error{Kind: KindNetwork, Code: CodeNetwork, Message: message, ChainID: chainID, Cause: cause}
}

// Wallet 创建钱包错误
func Wallet(message string) *Error {
	return &Error{Kind: KindWallet, Code: CodeWallet, Message: message}
}

// WalletWrap 创建带底层原因的钱包错误
func WalletWrap(message string, cause error) *Error {
	e := Wallet(message)
	e.Cause = cause
	return e
}

// Wrap 把任意错误包装为合约错误；已分类的 SDK 错误原样返回
//
// 校验、网络、钱包错误在调用链中不应被降级为合约错误。
func Wrap(message string, err error) error {
	if err == nil {
		return nil
	}
	var sdkErr *Error
	if errors.As(err, &sdkErr) && sdkErr.Kind != KindContract {
		return err
	}
	return Contract(message, err)
}

// ===== 类型判断 =====

func kindOf(err error) (Kind, bool) {
	var sdkErr *Error
	if errors.As(err, &sdkErr) {
		return sdkErr.Kind, true
	}
	return 0, false
}

// IsAssembleError 是否为 SDK 错误
func IsAssembleError(err error) bool {
	_, ok := kindOf(err)
	return ok
}

// IsValidation 是否为参数校验错误
func IsValidation(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindValidation
}

// IsContract 是否为合约错误
func IsContract(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindContract
}

// IsNetwork 是否为网络错误
func IsNetwork(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNetwork
}

// IsWallet 是否为钱包错误
func IsWallet(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindWallet
}

// FieldOf 返回校验错误的字段名
func FieldOf(err error) string {
	var sdkErr *Error
	if errors.As(err, &sdkErr) {
		return sdkErr.Field
	}
	return ""
}

// RevertNameOf 返回合约自定义错误名
func RevertNameOf(err error) string {
	var sdkErr *Error
	if errors.As(err, &sdkErr) {
		return sdkErr.RevertName
	}
	return ""
}
