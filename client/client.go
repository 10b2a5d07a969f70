// Package client Assemble SDK 统一入口
//
// Client 按 Profile 组装传输层、合约绑定、缓存和可选的日志索引，
// 并对外暴露各业务管理器。钱包可以随时连接、断开或替换。
package client

import (
	"context"
	"fmt"
	"math/big"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/assemble-go/client/core/assemble"
	"github.com/weisyn/assemble-go/client/core/cache"
	"github.com/weisyn/assemble-go/client/core/config"
	"github.com/weisyn/assemble-go/client/core/contract"
	"github.com/weisyn/assemble-go/client/core/indexer"
	"github.com/weisyn/assemble-go/client/core/transport"
	"github.com/weisyn/assemble-go/client/core/wallet"
	badgerconfig "github.com/weisyn/assemble-go/internal/config/storage/badger"
	logimpl "github.com/weisyn/assemble-go/internal/core/infrastructure/log"
	"github.com/weisyn/assemble-go/internal/core/infrastructure/metrics"
	"github.com/weisyn/assemble-go/internal/core/infrastructure/storage/badger"
	logInterface "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
	"github.com/weisyn/assemble-go/pkg/utils"
)

// Client Assemble 客户端
//
// 管理器字段在 SwitchProfile 后会被替换，调用方不要长期持有旧的管理器引用。
type Client struct {
	mu sync.RWMutex

	profile       *config.Profile
	transport     transport.Client
	ownsTransport bool
	cache         cache.Cache
	ownsCache     bool
	binding       *contract.Binding
	store         *badger.Store
	indexer       *indexer.Indexer
	session       *assemble.Session

	logger  logInterface.Logger
	metrics *metrics.Metrics

	Events        *assemble.EventManager
	Tickets       *assemble.TicketManager
	Social        *assemble.SocialManager
	Protocol      *assemble.ProtocolManager
	ERC20         *assemble.ERC20Manager
	Venues        *assemble.VenueManager
	PrivateEvents *assemble.PrivateEventManager
	PlatformFees  *assemble.PlatformFeeManager
	Refunds       *assemble.RefundManager
	Tokens        *assemble.TokenManager
}

type options struct {
	signer  wallet.Signer
	logger  logInterface.Logger
	metrics *metrics.Metrics
	cache   cache.Cache
}

// Option 客户端选项
type Option func(*options)

// WithSigner 创建时连接钱包
func WithSigner(signer wallet.Signer) Option {
	return func(o *options) { o.signer = signer }
}

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics 设置指标，未设置时不上报
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithCache 使用外部缓存代替 Profile 中的缓存配置，由调用方负责关闭
func WithCache(c cache.Cache) Option {
	return func(o *options) { o.cache = c }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logimpl.WithModule(o.logger, "assemble")
	if o.metrics == nil {
		o.metrics = metrics.NewNop()
	}
	return o
}

// New 按 Profile 连接节点并创建客户端
//
// 所有端点都不可用时返回网络错误。
func New(ctx context.Context, profile *config.Profile, opts ...Option) (*Client, error) {
	if profile == nil {
		return nil, sdkerrors.Validation("profile is required", "profile")
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	fallback, err := transport.NewFallbackClient(ctx, profile.TransportConfig(), o.logger)
	if err != nil {
		return nil, sdkerrors.Network(fmt.Sprintf("Failed to connect to %s", profile.Name), profile.ChainID, err)
	}

	c := &Client{logger: o.logger, metrics: o.metrics}
	if err := c.assemble(profile, fallback, true, o); err != nil {
		_ = fallback.Close()
		return nil, err
	}
	c.logger.Infof("已连接 %s (chain %d)", profile.Name, profile.ChainID)
	return c, nil
}

// NewWithTransport 使用已有传输层创建客户端，传输层由调用方负责关闭
func NewWithTransport(profile *config.Profile, t transport.Client, opts ...Option) (*Client, error) {
	if profile == nil {
		return nil, sdkerrors.Validation("profile is required", "profile")
	}
	if t == nil {
		return nil, sdkerrors.Validation("transport is required", "transport")
	}
	o := buildOptions(opts)
	c := &Client{logger: o.logger, metrics: o.metrics}
	if err := c.assemble(profile, t, false, o); err != nil {
		return nil, err
	}
	return c, nil
}

// assemble 组装各层并替换当前状态，失败时不修改 c
func (c *Client) assemble(profile *config.Profile, t transport.Client, ownsTransport bool, o options) error {
	address, err := profile.Contract()
	if err != nil {
		return err
	}

	cc := o.cache
	if cc == nil {
		if cc, err = cache.NewFromConfig(profile.CacheSettings()); err != nil {
			return fmt.Errorf("create cache: %w", err)
		}
	}

	var tc transport.Client = transport.NewInstrumentedClient(t, o.metrics)
	bindingOpts := []contract.Option{
		contract.WithLogger(o.logger),
		contract.WithMetrics(o.metrics),
		contract.WithCache(cc),
		contract.WithChainID(new(big.Int).SetUint64(profile.ChainID)),
	}
	if profile.GasMarginPercent > 0 {
		bindingOpts = append(bindingOpts, contract.WithGasMargin(profile.GasMarginPercent))
	}
	if d := profile.ReceiptPollInterval.Std(); d > 0 {
		bindingOpts = append(bindingOpts, contract.WithReceiptPollInterval(d))
	}
	binding, err := contract.NewBinding(address, tc, bindingOpts...)
	if err != nil {
		closeOwnedCache(o, cc)
		return err
	}

	var (
		store *badger.Store
		ix    *indexer.Indexer
	)
	if profile.Index.Enabled {
		store, ix, err = openIndex(profile, binding, o)
		if err != nil {
			closeOwnedCache(o, cc)
			return err
		}
	}

	sessionOpts := []assemble.SessionOption{assemble.WithLogger(o.logger)}
	if ix != nil {
		sessionOpts = append(sessionOpts, assemble.WithIndexer(ix))
	}
	if o.signer != nil {
		sessionOpts = append(sessionOpts, assemble.WithSigner(o.signer))
	}
	session := assemble.NewSession(binding, sessionOpts...)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = profile
	c.transport = t
	c.ownsTransport = ownsTransport
	c.cache = cc
	c.ownsCache = o.cache == nil
	c.binding = binding
	c.store = store
	c.indexer = ix
	c.session = session
	c.Events = assemble.NewEventManager(session)
	c.Tickets = assemble.NewTicketManager(session)
	c.Social = assemble.NewSocialManager(session)
	c.Protocol = assemble.NewProtocolManager(session)
	c.ERC20 = assemble.NewERC20Manager(session)
	c.Venues = assemble.NewVenueManager(session)
	c.PrivateEvents = assemble.NewPrivateEventManager(session)
	c.PlatformFees = assemble.NewPlatformFeeManager(session)
	c.Refunds = assemble.NewRefundManager(session)
	c.Tokens = assemble.NewTokenManager(session)
	return nil
}

func closeOwnedCache(o options, cc cache.Cache) {
	if o.cache == nil && cc != nil {
		_ = cc.Close()
	}
}

// openIndex 打开 badger 索引库
//
// backend 为 memory 或未指定路径且无数据目录时使用内存库。
func openIndex(profile *config.Profile, binding *contract.Binding, o options) (*badger.Store, *indexer.Indexer, error) {
	opts := &badgerconfig.BadgerOptions{}
	switch {
	case profile.Index.Backend == "memory":
		opts.InMemory = true
	case profile.Index.Path != "":
		opts.Path = profile.Index.Path
	case profile.DataPath != "":
		opts.Path = filepath.Join(profile.DataPath, "index", profile.Name)
	default:
		opts.InMemory = true
	}
	if !opts.InMemory {
		dir, err := utils.EnsureDataDir(opts.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("prepare index dir: %w", err)
		}
		opts.Path = dir
	}

	store, err := badger.New(badgerconfig.New(opts), logimpl.WithModule(o.logger, "badger"))
	if err != nil {
		return nil, nil, fmt.Errorf("open index store: %w", err)
	}
	ix, err := indexer.New(binding, store, indexer.Config{
		StartBlock:    profile.Index.StartBlock,
		BatchSize:     profile.Index.BatchSize,
		Confirmations: profile.Index.Confirmations,
	}, indexer.WithLogger(o.logger), indexer.WithMetrics(o.metrics))
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, ix, nil
}

// Profile 当前网络配置
func (c *Client) Profile() *config.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile
}

// Binding 当前合约绑定
func (c *Client) Binding() *contract.Binding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.binding
}

// Transport 当前传输层（未包装指标）
func (c *Client) Transport() transport.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transport
}

// Session 当前会话
func (c *Client) Session() *assemble.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Indexer 日志索引，未启用时为 nil
func (c *Client) Indexer() *indexer.Indexer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexer
}

// ContractAddress 合约地址
func (c *Client) ContractAddress() common.Address {
	return c.Binding().Address()
}

// Account 当前钱包地址
func (c *Client) Account() (common.Address, bool) {
	return c.Session().Account()
}

// IsConnected 是否已连接钱包
func (c *Client) IsConnected() bool {
	return c.Session().Signer() != nil
}

// SetSigner 连接或替换钱包
func (c *Client) SetSigner(signer wallet.Signer) {
	c.Session().SetSigner(signer)
	if signer != nil {
		c.logger.Infof("钱包已连接: %s", signer.Address().Hex())
	}
}

// Disconnect 断开钱包，之后的写操作返回 ErrWalletNotConnected
func (c *Client) Disconnect() {
	c.Session().SetSigner(nil)
	c.logger.Info("钱包已断开")
}

// ChainID 节点报告的链 ID
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := c.Binding().ChainID(ctx)
	if err != nil {
		return nil, sdkerrors.Network("Failed to get chain id", c.Profile().ChainID, err)
	}
	return id, nil
}

// Ping 检查节点连通性
func (c *Client) Ping(ctx context.Context) error {
	c.mu.RLock()
	t, chainID := c.transport, c.profile.ChainID
	c.mu.RUnlock()
	if err := t.Ping(ctx); err != nil {
		return sdkerrors.Network("Node is unreachable", chainID, err)
	}
	return nil
}

// SyncIndex 追赶日志索引
func (c *Client) SyncIndex(ctx context.Context) (*indexer.SyncResult, error) {
	ix := c.Indexer()
	if ix == nil {
		return nil, sdkerrors.Validation("Event index is not enabled for this profile", "index")
	}
	return ix.Sync(ctx)
}

// SwitchProfile 切换到另一个网络
//
// 新网络连接失败时保留当前状态并返回网络错误；成功后保留已连接的钱包。
func (c *Client) SwitchProfile(ctx context.Context, profile *config.Profile) error {
	if profile == nil {
		return sdkerrors.Validation("profile is required", "profile")
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	fallback, err := transport.NewFallbackClient(ctx, profile.TransportConfig(), c.logger)
	if err != nil {
		return sdkerrors.Network(fmt.Sprintf("Failed to switch to %s", profile.Name), profile.ChainID, err)
	}

	c.mu.RLock()
	old := c.snapshot()
	signer := c.session.Signer()
	c.mu.RUnlock()

	o := options{signer: signer, logger: c.logger, metrics: c.metrics}
	if err := c.assemble(profile, fallback, true, o); err != nil {
		_ = fallback.Close()
		return err
	}
	old.close(c.logger)
	c.logger.Infof("已切换到 %s (chain %d)", profile.Name, profile.ChainID)
	return nil
}

// Close 释放传输层、缓存和索引库
func (c *Client) Close() error {
	c.mu.Lock()
	res := c.snapshot()
	c.transport, c.cache, c.store, c.indexer = nil, nil, nil, nil
	c.mu.Unlock()
	return res.close(c.logger)
}

type resources struct {
	transport     transport.Client
	ownsTransport bool
	cache         cache.Cache
	ownsCache     bool
	store         *badger.Store
}

func (c *Client) snapshot() resources {
	return resources{
		transport:     c.transport,
		ownsTransport: c.ownsTransport,
		cache:         c.cache,
		ownsCache:     c.ownsCache,
		store:         c.store,
	}
}

func (r resources) close(logger logInterface.Logger) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.store != nil {
		keep(r.store.Close())
	}
	if r.ownsCache && r.cache != nil {
		keep(r.cache.Close())
	}
	if r.ownsTransport && r.transport != nil {
		keep(r.transport.Close())
	}
	if firstErr != nil {
		logger.Warnf("释放客户端资源失败: %v", firstErr)
	}
	return firstErr
}
