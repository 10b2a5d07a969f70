// Package transport 定义 SDK 与以太坊节点通信的传输接口
//
// 管理器和合约绑定只依赖 Client 接口；EthClient 基于 go-ethereum ethclient 实现，
// FallbackClient 在多个端点之间做优先级故障转移，InstrumentedClient 记录 prometheus 指标。
package transport

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Client 统一传输客户端接口 - SDK 与节点通信的唯一通道
type Client interface {
	// ===== 链信息 =====

	// ChainID 获取链ID
	ChainID(ctx context.Context) (*big.Int, error)

	// BlockNumber 获取最新区块高度
	BlockNumber(ctx context.Context) (uint64, error)

	// HeaderByNumber 获取区块头，number 为 nil 时返回最新区块
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)

	// ===== 合约调用 =====

	// CallContract 执行 eth_call，blockNumber 为 nil 时使用最新状态
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)

	// EstimateGas 估算交易 gas
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)

	// ===== 交易提交与查询 =====

	// PendingNonceAt 获取账户待处理 nonce
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)

	// SuggestGasPrice 建议 gas 价格（legacy 交易）
	SuggestGasPrice(ctx context.Context) (*big.Int, error)

	// SuggestGasTipCap 建议小费上限（EIP-1559 交易）
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)

	// SendTransaction 发送已签名交易
	SendTransaction(ctx context.Context, tx *types.Transaction) error

	// TransactionReceipt 获取交易回执，未上链时返回 ethereum.NotFound
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// ===== 日志 =====

	// FilterLogs 按条件查询合约日志
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)

	// ===== 连接管理 =====

	// Ping 检查节点连接
	Ping(ctx context.Context) error

	// Close 关闭连接
	Close() error
}

// ClientConfig 客户端配置
type ClientConfig struct {
	// ChainID 期望的链 ID，用于网络错误上下文
	ChainID uint64 `json:"chain_id"`

	// 节点端点(按优先级排序)
	Endpoints []EndpointConfig `json:"endpoints"`

	// 超时配置
	Timeout       time.Duration `json:"timeout"`
	RetryAttempts int           `json:"retry_attempts"`
	RetryBackoff  time.Duration `json:"retry_backoff"`

	// 健康检查，负数表示关闭
	HealthCheckInterval time.Duration `json:"health_check_interval"`
}

// EndpointConfig 端点配置
type EndpointConfig struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"` // 优先级,数字越小越优先
	URL      string `json:"url"`      // http(s):// 或 ws(s)://
}

// 默认值
const (
	DefaultTimeout             = 30 * time.Second
	DefaultRetryAttempts       = 3
	DefaultRetryBackoff        = time.Second
	DefaultHealthCheckInterval = 30 * time.Second
)

// withDefaults 填充未设置的配置项
func (c ClientConfig) withDefaults() ClientConfig {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.HealthCheckInterval == 0 {
		c.HealthCheckInterval = DefaultHealthCheckInterval
	}
	return c
}
