package transport

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/weisyn/assemble-go/internal/core/infrastructure/metrics"
)

// InstrumentedClient 为每个 RPC 方法记录调用次数和耗时
type InstrumentedClient struct {
	next    Client
	metrics *metrics.Metrics
}

// NewInstrumentedClient 包装 Client；m 为 nil 时不记录
func NewInstrumentedClient(next Client, m *metrics.Metrics) *InstrumentedClient {
	return &InstrumentedClient{next: next, metrics: m}
}

// Unwrap 返回被包装的客户端
func (c *InstrumentedClient) Unwrap() Client {
	return c.next
}

func (c *InstrumentedClient) observe(method string, started time.Time, err error) {
	c.metrics.ObserveRPC(method, started, err)
}

func (c *InstrumentedClient) ChainID(ctx context.Context) (*big.Int, error) {
	started := time.Now()
	id, err := c.next.ChainID(ctx)
	c.observe("eth_chainId", started, err)
	return id, err
}

func (c *InstrumentedClient) BlockNumber(ctx context.Context) (uint64, error) {
	started := time.Now()
	n, err := c.next.BlockNumber(ctx)
	c.observe("eth_blockNumber", started, err)
	return n, err
}

func (c *InstrumentedClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	started := time.Now()
	h, err := c.next.HeaderByNumber(ctx, number)
	c.observe("eth_getBlockByNumber", started, err)
	return h, err
}

func (c *InstrumentedClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	started := time.Now()
	out, err := c.next.CallContract(ctx, msg, blockNumber)
	c.observe("eth_call", started, err)
	return out, err
}

func (c *InstrumentedClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	started := time.Now()
	gas, err := c.next.EstimateGas(ctx, msg)
	c.observe("eth_estimateGas", started, err)
	return gas, err
}

func (c *InstrumentedClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	started := time.Now()
	nonce, err := c.next.PendingNonceAt(ctx, account)
	c.observe("eth_getTransactionCount", started, err)
	return nonce, err
}

func (c *InstrumentedClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	started := time.Now()
	price, err := c.next.SuggestGasPrice(ctx)
	c.observe("eth_gasPrice", started, err)
	return price, err
}

func (c *InstrumentedClient) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	started := time.Now()
	tip, err := c.next.SuggestGasTipCap(ctx)
	c.observe("eth_maxPriorityFeePerGas", started, err)
	return tip, err
}

func (c *InstrumentedClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	started := time.Now()
	err := c.next.SendTransaction(ctx, tx)
	c.observe("eth_sendRawTransaction", started, err)
	return err
}

func (c *InstrumentedClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	started := time.Now()
	r, err := c.next.TransactionReceipt(ctx, txHash)
	c.observe("eth_getTransactionReceipt", started, err)
	return r, err
}

func (c *InstrumentedClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	started := time.Now()
	logs, err := c.next.FilterLogs(ctx, q)
	c.observe("eth_getLogs", started, err)
	return logs, err
}

func (c *InstrumentedClient) Ping(ctx context.Context) error {
	return c.next.Ping(ctx)
}

func (c *InstrumentedClient) Close() error {
	return c.next.Close()
}

var _ Client = (*InstrumentedClient)(nil)
