// Package assemble 提供 Assemble 协议的业务管理器
//
// 每个管理器对应合约的一组功能（活动、门票、社交、协议、ERC-20、场馆、私有活动、
// 平台费、退款、代币），共享同一个 Session：合约绑定、可切换的签名器、可选的日志索引。
//
// 约定：
//   - 所有读操作先做参数校验（ValidationError，不发 RPC），再调用合约；
//   - 合约/ABI/revert 失败包装为 ContractError，传输层不可达保持为 NetworkError；
//   - 写操作要求签名器，缺失时返回 WalletError "Wallet not connected"，成功返回交易哈希。
package assemble

import (
	"context"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/assemble-go/client/core/contract"
	"github.com/weisyn/assemble-go/client/core/indexer"
	"github.com/weisyn/assemble-go/client/core/wallet"
	"github.com/weisyn/assemble-go/pkg/codec"
	logInterface "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

// 只读常量的缓存时长
const constantsTTL = 10 * time.Minute

// Session 管理器共享的连接状态
type Session struct {
	binding *contract.Binding
	indexer *indexer.Indexer
	logger  logInterface.Logger
	now     func() time.Time

	mu     sync.RWMutex
	signer wallet.Signer

	venueMu sync.RWMutex
	venues  map[common.Hash]string // 已知场馆名，按哈希索引
}

// SessionOption 会话选项
type SessionOption func(*Session)

// WithSigner 设置初始签名器
func WithSigner(signer wallet.Signer) SessionOption {
	return func(s *Session) { s.signer = signer }
}

// WithIndexer 启用日志索引，依赖索引的查询在未启用时退化为链上扫描或返回空结果
func WithIndexer(ix *indexer.Indexer) SessionOption {
	return func(s *Session) { s.indexer = ix }
}

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// WithClock 替换时间源
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSession 创建会话
func NewSession(binding *contract.Binding, opts ...SessionOption) *Session {
	s := &Session{
		binding: binding,
		now:     time.Now,
		venues:  make(map[common.Hash]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Binding 合约绑定
func (s *Session) Binding() *contract.Binding { return s.binding }

// Indexer 日志索引，未启用时为 nil
func (s *Session) Indexer() *indexer.Indexer { return s.indexer }

// SetSigner 替换签名器；nil 表示断开钱包
func (s *Session) SetSigner(signer wallet.Signer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signer = signer
}

// Signer 当前签名器
func (s *Session) Signer() wallet.Signer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signer
}

// Account 当前账户地址，未连接钱包时 ok 为 false
func (s *Session) Account() (common.Address, bool) {
	signer := s.Signer()
	if signer == nil {
		return common.Address{}, false
	}
	return signer.Address(), true
}

// RegisterVenue 记录场馆名，供场馆搜索与凭证反查使用
func (s *Session) RegisterVenue(name string) common.Hash {
	hash := codec.VenueHash(name)
	s.venueMu.Lock()
	s.venues[hash] = name
	s.venueMu.Unlock()
	return hash
}

// venueName 按哈希查找已知场馆名
func (s *Session) venueName(hash common.Hash) (string, bool) {
	s.venueMu.RLock()
	defer s.venueMu.RUnlock()
	name, ok := s.venues[hash]
	return name, ok
}

// knownVenues 已知场馆，按名称排序
func (s *Session) knownVenues() []knownVenue {
	s.venueMu.RLock()
	out := make([]knownVenue, 0, len(s.venues))
	for hash, name := range s.venues {
		out = append(out, knownVenue{hash: hash, name: name})
	}
	s.venueMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

type knownVenue struct {
	hash common.Hash
	name string
}

// ===== 调用辅助 =====

// requireSigner 写操作前检查钱包
func (s *Session) requireSigner() (wallet.Signer, error) {
	signer := s.Signer()
	if signer == nil {
		return nil, sdkerrors.ErrWalletNotConnected
	}
	return signer, nil
}

// call 只读调用，失败包装为 failMsg
func (s *Session) call(ctx context.Context, failMsg, method string, args ...interface{}) ([]interface{}, error) {
	out, err := s.binding.Call(ctx, method, args...)
	if err != nil {
		return nil, sdkerrors.Wrap(failMsg, err)
	}
	return out, nil
}

// callConstant 读取协议常量，结果进入缓存
func (s *Session) callConstant(ctx context.Context, failMsg, method string) (*big.Int, error) {
	out, err := s.binding.CallCached(ctx, constantsTTL, method)
	if err != nil {
		return nil, sdkerrors.Wrap(failMsg, err)
	}
	return bigOut(out, 0), nil
}

// transact 发送交易，调用方需已通过 requireSigner
func (s *Session) transact(ctx context.Context, signer wallet.Signer, failMsg string, value *big.Int, method string, args ...interface{}) (common.Hash, error) {
	hash, err := s.binding.Transact(ctx, signer, value, method, args...)
	if err != nil {
		return common.Hash{}, sdkerrors.Wrap(failMsg, err)
	}
	return hash, nil
}

// write requireSigner + transact
func (s *Session) write(ctx context.Context, failMsg string, value *big.Int, method string, args ...interface{}) (common.Hash, error) {
	signer, err := s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	return s.transact(ctx, signer, failMsg, value, method, args...)
}

// balanceOf 读取 owner 持有的 tokenID 数量
func (s *Session) balanceOf(ctx context.Context, failMsg string, owner common.Address, tokenID *big.Int) (*big.Int, error) {
	out, err := s.call(ctx, failMsg, contract.MethodBalanceOf, owner, tokenID)
	if err != nil {
		return nil, err
	}
	return bigOut(out, 0), nil
}

// blockTime 区块时间戳，读取失败时返回 0
func (s *Session) blockTime(ctx context.Context, block uint64) uint64 {
	header, err := s.binding.Client().HeaderByNumber(ctx, new(big.Int).SetUint64(block))
	if err != nil || header == nil {
		return 0
	}
	return header.Time
}

// syncedIndexer 同步索引后返回；未启用索引时返回 nil
func (s *Session) syncedIndexer(ctx context.Context) (*indexer.Indexer, error) {
	if s.indexer == nil {
		return nil, nil
	}
	if _, err := s.indexer.Sync(ctx); err != nil {
		return nil, sdkerrors.Wrap("Failed to sync event index", err)
	}
	return s.indexer, nil
}

// ===== 返回值转换 =====

func bigOut(out []interface{}, i int) *big.Int {
	if i < len(out) {
		if v, ok := out[i].(*big.Int); ok && v != nil {
			return v
		}
	}
	return new(big.Int)
}

func boolOut(out []interface{}, i int) bool {
	if i < len(out) {
		v, _ := out[i].(bool)
		return v
	}
	return false
}

func addressOut(out []interface{}, i int) common.Address {
	if i < len(out) {
		v, _ := out[i].(common.Address)
		return v
	}
	return common.Address{}
}

func uint8Out(out []interface{}, i int) uint8 {
	if i < len(out) {
		v, _ := out[i].(uint8)
		return v
	}
	return 0
}

// abiConvert 把 ABI 解出的匿名 tuple 转为具名结构体
func abiConvert[T any](v interface{}) *T {
	return abi.ConvertType(v, new(T)).(*T)
}

func u64(v uint64) *big.Int { return new(big.Int).SetUint64(v) }

// clampUint64 超出 uint64 的值截断为最大值
func clampUint64(v *big.Int) uint64 {
	if v == nil || v.Sign() < 0 {
		return 0
	}
	if !v.IsUint64() {
		return ^uint64(0)
	}
	return v.Uint64()
}

// requireUint256 nil、负数或超过 256 位的整数参数视为无效
func requireUint256(v *big.Int, field string) error {
	if v == nil || v.Sign() < 0 || v.BitLen() > 256 {
		return sdkerrors.Validationf(field, "Invalid %s", field)
	}
	return nil
}
