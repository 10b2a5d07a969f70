package transport

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// EthClient 基于 go-ethereum ethclient 的单端点客户端
type EthClient struct {
	endpoint string
	rpc      *rpc.Client
	eth      *ethclient.Client
	timeout  time.Duration
}

// Dial 连接节点端点；timeout 作用于每一次调用
func Dial(ctx context.Context, endpoint string, timeout time.Duration) (*EthClient, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("empty endpoint")
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	rc, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	return &EthClient{
		endpoint: endpoint,
		rpc:      rc,
		eth:      ethclient.NewClient(rc),
		timeout:  timeout,
	}, nil
}

// Endpoint 返回端点地址
func (c *EthClient) Endpoint() string {
	return c.endpoint
}

func (c *EthClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *EthClient) ChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.eth.ChainID(ctx)
}

func (c *EthClient) BlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.eth.BlockNumber(ctx)
}

func (c *EthClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.eth.HeaderByNumber(ctx, number)
}

func (c *EthClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.eth.CallContract(ctx, msg, blockNumber)
}

func (c *EthClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.eth.EstimateGas(ctx, msg)
}

func (c *EthClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.eth.PendingNonceAt(ctx, account)
}

func (c *EthClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.eth.SuggestGasPrice(ctx)
}

func (c *EthClient) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.eth.SuggestGasTipCap(ctx)
}

func (c *EthClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.eth.SendTransaction(ctx, tx)
}

func (c *EthClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.eth.TransactionReceipt(ctx, txHash)
}

func (c *EthClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.eth.FilterLogs(ctx, q)
}

// Ping 通过 eth_chainId 检查节点可用
func (c *EthClient) Ping(ctx context.Context) error {
	_, err := c.ChainID(ctx)
	return err
}

func (c *EthClient) Close() error {
	c.eth.Close()
	return nil
}

// 确保实现了Client接口
var _ Client = (*EthClient)(nil)
