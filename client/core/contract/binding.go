package contract

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/weisyn/assemble-go/client/core/cache"
	"github.com/weisyn/assemble-go/client/core/transport"
	logpkg "github.com/weisyn/assemble-go/internal/core/infrastructure/log"
	"github.com/weisyn/assemble-go/internal/core/infrastructure/metrics"
	logInterface "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

// 默认交易参数
const (
	DefaultGasMarginPercent    = 120
	DefaultReceiptPollInterval = 2 * time.Second
)

// TxSigner 交易签名能力，wallet.Signer 满足该接口
type TxSigner interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Binding Assemble 合约绑定
type Binding struct {
	address common.Address
	abi     abi.ABI
	client  transport.Client
	logger  logInterface.Logger
	metrics *metrics.Metrics
	cache   cache.Cache

	gasMarginPercent uint64
	pollInterval     time.Duration

	chainMu sync.Mutex
	chainID *big.Int
}

// Option 绑定选项
type Option func(*Binding)

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) Option {
	return func(b *Binding) { b.logger = logger }
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Binding) { b.metrics = m }
}

// WithCache 设置只读调用缓存
func WithCache(c cache.Cache) Option {
	return func(b *Binding) { b.cache = c }
}

// WithGasMargin 设置 gas 估算放大比例（百分比，至少 100）
func WithGasMargin(percent uint64) Option {
	return func(b *Binding) {
		if percent >= 100 {
			b.gasMarginPercent = percent
		}
	}
}

// WithReceiptPollInterval 设置等待回执的轮询间隔
func WithReceiptPollInterval(d time.Duration) Option {
	return func(b *Binding) {
		if d > 0 {
			b.pollInterval = d
		}
	}
}

// WithChainID 预置链 ID，省去一次 eth_chainId 查询
func WithChainID(chainID *big.Int) Option {
	return func(b *Binding) {
		if chainID != nil {
			b.chainID = new(big.Int).Set(chainID)
		}
	}
}

// NewBinding 创建合约绑定
func NewBinding(address common.Address, client transport.Client, opts ...Option) (*Binding, error) {
	if client == nil {
		return nil, fmt.Errorf("transport client is nil")
	}
	parsed, err := ParsedABI()
	if err != nil {
		return nil, err
	}

	b := &Binding{
		address:          address,
		abi:              parsed,
		client:           client,
		cache:            cache.Nop{},
		gasMarginPercent: DefaultGasMarginPercent,
		pollInterval:     DefaultReceiptPollInterval,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logpkg.WithModule(b.logger, "contract")
	return b, nil
}

// Address 合约地址
func (b *Binding) Address() common.Address {
	return b.address
}

// ABI 合约 ABI
func (b *Binding) ABI() abi.ABI {
	return b.abi
}

// Client 底层传输客户端
func (b *Binding) Client() transport.Client {
	return b.client
}

// ChainID 返回链 ID，首次调用后缓存
func (b *Binding) ChainID(ctx context.Context) (*big.Int, error) {
	b.chainMu.Lock()
	defer b.chainMu.Unlock()

	if b.chainID != nil {
		return new(big.Int).Set(b.chainID), nil
	}
	id, err := b.client.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	b.chainID = id
	return new(big.Int).Set(id), nil
}

// ===== 只读调用 =====

// Call 执行只读调用并返回解码后的输出
func (b *Binding) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	raw, err := b.callRaw(ctx, common.Address{}, method, args)
	if err != nil {
		return nil, err
	}
	return b.unpack(method, raw)
}

// CallFrom 以指定 from 地址执行只读调用，用于依赖 msg.sender 的视图函数
func (b *Binding) CallFrom(ctx context.Context, from common.Address, method string, args ...interface{}) ([]interface{}, error) {
	raw, err := b.callRaw(ctx, from, method, args)
	if err != nil {
		return nil, err
	}
	return b.unpack(method, raw)
}

// CallInto 执行只读调用并把多返回值解码到结构体
func (b *Binding) CallInto(ctx context.Context, out interface{}, method string, args ...interface{}) error {
	raw, err := b.callRaw(ctx, common.Address{}, method, args)
	if err != nil {
		return err
	}
	if err := b.abi.UnpackIntoInterface(out, method, raw); err != nil {
		return fmt.Errorf("unpack %s: %w", method, err)
	}
	return nil
}

// CallCached 与 Call 相同，但结果在 ttl 内从缓存读取
func (b *Binding) CallCached(ctx context.Context, ttl time.Duration, method string, args ...interface{}) ([]interface{}, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	key := "call:" + strings.ToLower(b.address.Hex()) + ":" + hex.EncodeToString(data)
	if raw, ok, cerr := b.cache.Get(ctx, key); cerr == nil && ok {
		b.metrics.ObserveCache(b.cache.Backend(), true)
		return b.unpack(method, raw)
	} else if cerr != nil {
		b.logger.Warnf("读取缓存失败 %s: %v", method, cerr)
	}
	b.metrics.ObserveCache(b.cache.Backend(), false)

	raw, err := b.callData(ctx, common.Address{}, method, data)
	if err != nil {
		return nil, err
	}
	out, err := b.unpack(method, raw)
	if err != nil {
		return nil, err
	}
	if cerr := b.cache.Set(ctx, key, raw, ttl); cerr != nil {
		b.logger.Warnf("写入缓存失败 %s: %v", method, cerr)
	}
	return out, nil
}

func (b *Binding) callRaw(ctx context.Context, from common.Address, method string, args []interface{}) ([]byte, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return b.callData(ctx, from, method, data)
}

func (b *Binding) callData(ctx context.Context, from common.Address, method string, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{From: from, To: &b.address, Data: data}
	raw, err := b.client.CallContract(ctx, msg, nil)
	if err != nil {
		err = b.decodeRevert(err)
	}
	b.metrics.ObserveContract(method, "call", err)
	if err != nil {
		b.logger.Debugf("调用 %s 失败: %v", method, err)
		return nil, err
	}
	return raw, nil
}

func (b *Binding) unpack(method string, raw []byte) ([]interface{}, error) {
	out, err := b.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return out, nil
}

// ===== 交易 =====

// EstimateGas 估算调用所需 gas（未加放大系数）
func (b *Binding) EstimateGas(ctx context.Context, from common.Address, value *big.Int, method string, args ...interface{}) (uint64, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return 0, fmt.Errorf("pack %s: %w", method, err)
	}
	return b.estimate(ctx, from, value, data)
}

func (b *Binding) estimate(ctx context.Context, from common.Address, value *big.Int, data []byte) (uint64, error) {
	gas, err := b.client.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &b.address, Value: value, Data: data})
	if err != nil {
		return 0, b.decodeRevert(err)
	}
	return gas, nil
}

// Transact 构建、签名并广播交易，返回交易哈希
//
// 最新区块带 base fee 时使用 EIP-1559 交易，否则使用 legacy 交易。
func (b *Binding) Transact(ctx context.Context, signer TxSigner, value *big.Int, method string, args ...interface{}) (common.Hash, error) {
	if signer == nil {
		return common.Hash{}, sdkerrors.ErrWalletNotConnected
	}
	if value == nil {
		value = new(big.Int)
	}

	hash, err := b.transact(ctx, signer, value, method, args)
	b.metrics.ObserveContract(method, "transact", err)
	if err != nil {
		b.logger.Warnf("交易 %s 失败: %v", method, err)
		return common.Hash{}, err
	}
	b.logger.Infof("交易 %s 已广播: %s", method, hash.Hex())
	return hash, nil
}

func (b *Binding) transact(ctx context.Context, signer TxSigner, value *big.Int, method string, args []interface{}) (common.Hash, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack %s: %w", method, err)
	}
	from := signer.Address()

	chainID, err := b.ChainID(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	gas, err := b.estimate(ctx, from, value, data)
	if err != nil {
		return common.Hash{}, err
	}
	gasLimit := gas * b.gasMarginPercent / 100

	nonce, err := b.client.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, err
	}
	head, err := b.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, err
	}

	var tx *types.Transaction
	if head.BaseFee != nil {
		tip, err := b.client.SuggestGasTipCap(ctx)
		if err != nil {
			return common.Hash{}, err
		}
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gasLimit,
			To:        &b.address,
			Value:     value,
			Data:      data,
		})
	} else {
		gasPrice, err := b.client.SuggestGasPrice(ctx)
		if err != nil {
			return common.Hash{}, err
		}
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gasLimit,
			To:       &b.address,
			Value:    value,
			Data:     data,
		})
	}

	signed, err := signer.SignTx(tx, chainID)
	if err != nil {
		return common.Hash{}, sdkerrors.WalletWrap("Failed to sign transaction", err)
	}
	if err := b.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, b.decodeRevert(err)
	}
	return signed.Hash(), nil
}

// WaitMined 轮询直到交易上链；回执状态失败时返回合约错误和回执
func (b *Binding) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := b.client.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, sdkerrors.Contract("Transaction reverted", fmt.Errorf("tx %s failed in block %v", hash.Hex(), receipt.BlockNumber))
			}
			return receipt, nil
		case !errors.Is(err, ethereum.NotFound):
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, sdkerrors.Network("Timed out waiting for transaction", 0, ctx.Err())
		case <-ticker.C:
		}
	}
}

// ===== 日志 =====

// EventID 事件签名哈希（topic0）
func (b *Binding) EventID(event string) (common.Hash, error) {
	ev, ok := b.abi.Events[event]
	if !ok {
		return common.Hash{}, fmt.Errorf("unknown event %q", event)
	}
	return ev.ID, nil
}

// UnpackLog 把日志解码到结构体，indexed 字段从 topics 解析
func (b *Binding) UnpackLog(out interface{}, event string, log types.Log) error {
	ev, ok := b.abi.Events[event]
	if !ok {
		return fmt.Errorf("unknown event %q", event)
	}
	if len(log.Topics) == 0 || log.Topics[0] != ev.ID {
		return fmt.Errorf("log is not a %s event", event)
	}
	if len(log.Data) > 0 {
		if err := b.abi.UnpackIntoInterface(out, event, log.Data); err != nil {
			return fmt.Errorf("unpack %s data: %w", event, err)
		}
	}

	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopics(out, indexed, log.Topics[1:]); err != nil {
		return fmt.Errorf("parse %s topics: %w", event, err)
	}
	return nil
}

// ===== revert 解码 =====

// decodeRevert 把节点返回的 revert 数据解码为带自定义错误名的合约错误
func (b *Binding) decodeRevert(err error) error {
	if err == nil || sdkerrors.IsAssembleError(err) {
		return err
	}

	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		if strings.Contains(err.Error(), "execution reverted") {
			return sdkerrors.Contract("execution reverted", err)
		}
		return err
	}

	data := revertData(dataErr.ErrorData())
	if len(data) < 4 {
		return sdkerrors.Contract("execution reverted", err)
	}
	if reason, uerr := abi.UnpackRevert(data); uerr == nil {
		return sdkerrors.Revert("execution reverted", reason, err)
	}
	if name, ok := b.ErrorName(data); ok {
		return sdkerrors.Revert("execution reverted", name, err)
	}
	return sdkerrors.Contract("execution reverted", err)
}

// ErrorName 按 4 字节选择器匹配合约自定义错误
func (b *Binding) ErrorName(data []byte) (string, bool) {
	if len(data) < 4 {
		return "", false
	}
	for name, e := range b.abi.Errors {
		if bytes.Equal(e.ID[:4], data[:4]) {
			return name, true
		}
	}
	return "", false
}

func revertData(v interface{}) []byte {
	switch d := v.(type) {
	case string:
		b, err := hexutil.Decode(d)
		if err != nil {
			return nil
		}
		return b
	case []byte:
		return d
	case hexutil.Bytes:
		return d
	default:
		return nil
	}
}
