package transport

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	logpkg "github.com/weisyn/assemble-go/internal/core/infrastructure/log"
	logInterface "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

// FallbackClient 支持故障转移的客户端
type FallbackClient struct {
	config    ClientConfig
	clients   []clientWithPriority
	current   int
	mu        sync.RWMutex
	logger    logInterface.Logger
	closeCh   chan struct{}
	closeOnce sync.Once
}

type clientWithPriority struct {
	name      string
	priority  int
	client    Client
	healthy   bool
	lastCheck time.Time
}

// NamedClient 已建立连接的端点，用于 NewFallbackFromClients
type NamedClient struct {
	Name     string
	Priority int
	Client   Client
}

// NewFallbackClient 连接配置中的全部端点并创建支持故障转移的客户端
//
// 单个端点连接失败只记录日志；没有任何端点可用时返回 NetworkError。
func NewFallbackClient(ctx context.Context, config ClientConfig, logger logInterface.Logger) (*FallbackClient, error) {
	if len(config.Endpoints) == 0 {
		return nil, sdkerrors.Network("No RPC endpoints configured", config.ChainID, nil)
	}
	config = config.withDefaults()
	logger = logpkg.WithModule(logger, "transport")

	named := make([]NamedClient, 0, len(config.Endpoints))
	for _, ep := range config.Endpoints {
		if ep.URL == "" {
			continue // 跳过无效端点
		}
		c, err := Dial(ctx, ep.URL, config.Timeout)
		if err != nil {
			logger.Warnf("端点 %s 连接失败: %v", ep.Name, err)
			continue
		}
		named = append(named, NamedClient{Name: ep.Name, Priority: ep.Priority, Client: c})
	}

	if len(named) == 0 {
		return nil, sdkerrors.Network("Failed to connect to any RPC endpoint", config.ChainID, nil)
	}
	return newFallback(config, named, logger), nil
}

// NewFallbackFromClients 使用已建立的连接创建故障转移客户端
func NewFallbackFromClients(config ClientConfig, clients []NamedClient, logger logInterface.Logger) (*FallbackClient, error) {
	if len(clients) == 0 {
		return nil, sdkerrors.Network("No RPC endpoints configured", config.ChainID, nil)
	}
	return newFallback(config.withDefaults(), clients, logpkg.WithModule(logger, "transport")), nil
}

func newFallback(config ClientConfig, named []NamedClient, logger logInterface.Logger) *FallbackClient {
	fc := &FallbackClient{
		config:  config,
		clients: make([]clientWithPriority, 0, len(named)),
		logger:  logger,
		closeCh: make(chan struct{}),
	}
	for _, n := range named {
		fc.clients = append(fc.clients, clientWithPriority{
			name:     n.Name,
			priority: n.Priority,
			client:   n.Client,
			healthy:  true, // 初始假设健康
		})
	}

	// 按优先级排序，同优先级保持配置顺序
	sort.SliceStable(fc.clients, func(i, j int) bool {
		return fc.clients[i].priority < fc.clients[j].priority
	})

	if config.HealthCheckInterval > 0 {
		go fc.healthCheckLoop()
	}
	return fc
}

// healthCheckLoop 健康检查循环
func (fc *FallbackClient) healthCheckLoop() {
	ticker := time.NewTicker(fc.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fc.checkAllClients()
		case <-fc.closeCh:
			return
		}
	}
}

// checkAllClients 检查所有客户端健康状态
func (fc *FallbackClient) checkAllClients() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fc.mu.RLock()
	snapshot := make([]Client, len(fc.clients))
	for i := range fc.clients {
		snapshot[i] = fc.clients[i].client
	}
	fc.mu.RUnlock()

	// Ping 不持锁，避免慢端点阻塞正常调用
	results := make([]bool, len(snapshot))
	for i, c := range snapshot {
		results[i] = c.Ping(ctx) == nil
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	now := time.Now()
	for i := range fc.clients {
		if fc.clients[i].healthy != results[i] {
			fc.logger.Infof("端点 %s 健康状态变化: %v", fc.clients[i].name, results[i])
		}
		fc.clients[i].healthy = results[i]
		fc.clients[i].lastCheck = now
	}
}

// getClient 获取优先级最高的健康客户端及其下标
func (fc *FallbackClient) getClient() (Client, int) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	for i, c := range fc.clients {
		if c.healthy {
			fc.current = i
			return c.client, i
		}
	}

	// 所有客户端都不健康，轮换尝试
	if len(fc.clients) > 0 {
		fc.current = (fc.current + 1) % len(fc.clients)
		return fc.clients[fc.current].client, fc.current
	}

	return nil, -1
}

// markUnhealthy 标记端点不健康
func (fc *FallbackClient) markUnhealthy(idx int, err error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if idx < 0 || idx >= len(fc.clients) {
		return
	}
	if fc.clients[idx].healthy {
		fc.logger.Warnf("端点 %s 调用失败，切换端点: %v", fc.clients[idx].name, err)
	}
	fc.clients[idx].healthy = false
}

// tryWithFallback 尝试执行操作,端点故障时降级
//
// 节点返回的业务错误（revert、NotFound 等）直接返回，不重试。
func (fc *FallbackClient) tryWithFallback(ctx context.Context, op func(Client) error) error {
	var lastErr error

	for attempt := 0; attempt < fc.config.RetryAttempts; attempt++ {
		client, idx := fc.getClient()
		if client == nil {
			return sdkerrors.Network("No available RPC endpoint", fc.config.ChainID, nil)
		}

		err := op(client)
		if err == nil {
			return nil
		}
		if !isEndpointFailure(err) {
			return err
		}

		lastErr = err
		fc.markUnhealthy(idx, err)

		// 退避重试
		if attempt < fc.config.RetryAttempts-1 {
			select {
			case <-time.After(fc.config.RetryBackoff * time.Duration(attempt+1)):
			case <-ctx.Done():
				return sdkerrors.Network("Request cancelled", fc.config.ChainID, ctx.Err())
			}
		}
	}

	return sdkerrors.Network("All RPC endpoints failed", fc.config.ChainID, lastErr)
}

// Healthy 返回当前健康端点名称，按优先级排序
func (fc *FallbackClient) Healthy() []string {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	var names []string
	for _, c := range fc.clients {
		if c.healthy {
			names = append(names, c.name)
		}
	}
	return names
}

// ===== Client接口实现(通过tryWithFallback降级) =====

func (fc *FallbackClient) ChainID(ctx context.Context) (*big.Int, error) {
	var result *big.Int
	err := fc.tryWithFallback(ctx, func(c Client) error {
		var e error
		result, e = c.ChainID(ctx)
		return e
	})
	return result, err
}

func (fc *FallbackClient) BlockNumber(ctx context.Context) (uint64, error) {
	var result uint64
	err := fc.tryWithFallback(ctx, func(c Client) error {
		var e error
		result, e = c.BlockNumber(ctx)
		return e
	})
	return result, err
}

func (fc *FallbackClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	var result *types.Header
	err := fc.tryWithFallback(ctx, func(c Client) error {
		var e error
		result, e = c.HeaderByNumber(ctx, number)
		return e
	})
	return result, err
}

func (fc *FallbackClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var result []byte
	err := fc.tryWithFallback(ctx, func(c Client) error {
		var e error
		result, e = c.CallContract(ctx, msg, blockNumber)
		return e
	})
	return result, err
}

func (fc *FallbackClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var result uint64
	err := fc.tryWithFallback(ctx, func(c Client) error {
		var e error
		result, e = c.EstimateGas(ctx, msg)
		return e
	})
	return result, err
}

func (fc *FallbackClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var result uint64
	err := fc.tryWithFallback(ctx, func(c Client) error {
		var e error
		result, e = c.PendingNonceAt(ctx, account)
		return e
	})
	return result, err
}

func (fc *FallbackClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var result *big.Int
	err := fc.tryWithFallback(ctx, func(c Client) error {
		var e error
		result, e = c.SuggestGasPrice(ctx)
		return e
	})
	return result, err
}

func (fc *FallbackClient) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	var result *big.Int
	err := fc.tryWithFallback(ctx, func(c Client) error {
		var e error
		result, e = c.SuggestGasTipCap(ctx)
		return e
	})
	return result, err
}

// SendTransaction 发送交易
//
// 端点故障时换端点重发同一笔已签名交易；后续端点回复 "already known"
// 说明之前的端点已经广播成功，视为成功。
func (fc *FallbackClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	retried := false
	return fc.tryWithFallback(ctx, func(c Client) error {
		err := c.SendTransaction(ctx, tx)
		if retried && isAlreadyKnown(err) {
			fc.logger.Debugf("交易 %s 已被节点接收", tx.Hash().Hex())
			return nil
		}
		retried = true
		return err
	})
}

func (fc *FallbackClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var result *types.Receipt
	err := fc.tryWithFallback(ctx, func(c Client) error {
		var e error
		result, e = c.TransactionReceipt(ctx, txHash)
		return e
	})
	return result, err
}

func (fc *FallbackClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	var result []types.Log
	err := fc.tryWithFallback(ctx, func(c Client) error {
		var e error
		result, e = c.FilterLogs(ctx, q)
		return e
	})
	return result, err
}

func (fc *FallbackClient) Ping(ctx context.Context) error {
	return fc.tryWithFallback(ctx, func(c Client) error {
		return c.Ping(ctx)
	})
}

func (fc *FallbackClient) Close() error {
	var err error
	fc.closeOnce.Do(func() {
		close(fc.closeCh)

		fc.mu.Lock()
		defer fc.mu.Unlock()

		for _, c := range fc.clients {
			if e := c.client.Close(); e != nil && err == nil {
				err = fmt.Errorf("close %s: %w", c.name, e)
			}
		}
	})
	return err
}

// 确保实现了Client接口
var _ Client = (*FallbackClient)(nil)
