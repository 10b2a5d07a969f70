// Package indexer 把 Assemble 合约日志同步到本地存储
//
// 链上合约不提供按用户枚举代币、邀请、退款的视图函数，这些查询依赖日志。
// Indexer 按区块窗口调用 eth_getLogs，解码后与检查点一起写入同一事务，
// 因此中断后重跑 Sync 不会重复或遗漏记录。
package indexer

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/weisyn/assemble-go/client/core/contract"
	logimpl "github.com/weisyn/assemble-go/internal/core/infrastructure/log"
	"github.com/weisyn/assemble-go/internal/core/infrastructure/metrics"
	logInterface "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

// DefaultBatchSize 单次 eth_getLogs 覆盖的区块数
const DefaultBatchSize uint64 = 2000

// Config 同步配置
type Config struct {
	StartBlock    uint64 // 首次同步的起始区块（通常为合约部署区块）
	BatchSize     uint64 // 每个窗口的区块数
	Confirmations uint64 // 只索引落后链头该数量的区块
}

// SyncResult 一次同步的结果
type SyncResult struct {
	FromBlock uint64 `json:"from_block"`
	ToBlock   uint64 `json:"to_block"`
	Logs      int    `json:"logs"`
	UpToDate  bool   `json:"up_to_date"` // 开始时已无新区块
}

// Option 配置项
type Option func(*Indexer)

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) Option {
	return func(ix *Indexer) { ix.logger = logger }
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(ix *Indexer) { ix.metrics = m }
}

// Indexer 合约日志索引器
type Indexer struct {
	binding *contract.Binding
	store   *Store
	cfg     Config
	logger  logInterface.Logger
	metrics *metrics.Metrics

	// 事件签名 -> 事件名
	events map[common.Hash]string

	syncMu sync.Mutex
}

// indexedEvents 需要索引的事件
var indexedEvents = []string{
	contract.EventTransfer,
	contract.EventEventCreated,
	contract.EventEventCancelled,
	contract.EventUserInvited,
	contract.EventInvitationRevoked,
	contract.EventRefundClaimed,
	contract.EventPlatformFeeAllocated,
	contract.EventTicketPurchased,
}

// New 创建索引器
func New(binding *contract.Binding, kv storage.BadgerStore, cfg Config, opts ...Option) (*Indexer, error) {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	ix := &Indexer{
		binding: binding,
		store:   NewStore(kv, binding.Address()),
		cfg:     cfg,
		events:  make(map[common.Hash]string, len(indexedEvents)),
	}
	for _, opt := range opts {
		opt(ix)
	}
	ix.logger = logimpl.WithModule(ix.logger, "indexer")

	for _, name := range indexedEvents {
		id, err := binding.EventID(name)
		if err != nil {
			return nil, err
		}
		ix.events[id] = name
	}
	return ix, nil
}

// Store 底层记录存储
func (ix *Indexer) Store() *Store { return ix.store }

// topics 所有索引事件的 topic0
func (ix *Indexer) topics() [][]common.Hash {
	ids := make([]common.Hash, 0, len(ix.events))
	for _, name := range indexedEvents {
		id, _ := ix.binding.EventID(name)
		ids = append(ids, id)
	}
	return [][]common.Hash{ids}
}

// Sync 从检查点同步到 链头-确认数；可重复调用
func (ix *Indexer) Sync(ctx context.Context) (*SyncResult, error) {
	ix.syncMu.Lock()
	defer ix.syncMu.Unlock()

	client := ix.binding.Client()
	head, err := client.BlockNumber(ctx)
	if err != nil {
		return nil, sdkerrors.Wrap("Failed to get block number", err)
	}

	from := ix.cfg.StartBlock
	cp, ok, err := ix.store.Checkpoint(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		from = cp + 1
	}

	result := &SyncResult{FromBlock: from}
	if head < ix.cfg.Confirmations || from > head-ix.cfg.Confirmations {
		result.UpToDate = true
		if ok {
			result.ToBlock = cp
		}
		return result, nil
	}
	target := head - ix.cfg.Confirmations

	topics := ix.topics()
	address := ix.binding.Address()
	for start := from; start <= target; start += ix.cfg.BatchSize {
		end := start + ix.cfg.BatchSize - 1
		if end > target || end < start {
			end = target
		}

		logs, err := client.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(start),
			ToBlock:   new(big.Int).SetUint64(end),
			Addresses: []common.Address{address},
			Topics:    topics,
		})
		if err != nil {
			return result, sdkerrors.Wrap(fmt.Sprintf("Failed to fetch logs for blocks %d-%d", start, end), err)
		}

		entries := make([]entry, 0, len(logs))
		for _, l := range logs {
			e, ok := ix.decode(l)
			if ok {
				entries = append(entries, e)
			}
		}

		if err := ix.store.commit(ctx, entries, end); err != nil {
			return result, fmt.Errorf("store logs for blocks %d-%d: %w", start, end, err)
		}

		result.ToBlock = end
		result.Logs += len(entries)
		ix.metrics.SetIndexedBlock(end)
		ix.logger.Debugf("索引区块 %d-%d，日志 %d 条", start, end, len(entries))

		if end == target {
			break
		}
	}

	ix.logger.Infof("索引同步完成: %d-%d，共 %d 条日志", result.FromBlock, result.ToBlock, result.Logs)
	return result, nil
}

// decode 把日志解码为存储记录；不认识或无法解码的日志跳过
func (ix *Indexer) decode(l types.Log) (entry, bool) {
	if l.Removed || len(l.Topics) == 0 {
		return entry{}, false
	}
	name, known := ix.events[l.Topics[0]]
	if !known {
		return entry{}, false
	}

	meta := LogMeta{Block: l.BlockNumber, TxHash: l.TxHash, LogIndex: l.Index}
	var (
		kind  string
		value interface{}
		err   error
	)

	switch name {
	case contract.EventTransfer:
		var ev contract.TransferLog
		if err = ix.binding.UnpackLog(&ev, name, l); err == nil {
			kind, value = KindTransfer, Transfer{LogMeta: meta, Caller: ev.Caller, From: ev.From, To: ev.To, TokenID: ev.Id, Amount: ev.Amount}
		}
	case contract.EventEventCreated:
		var ev contract.EventCreatedLog
		if err = ix.binding.UnpackLog(&ev, name, l); err == nil {
			kind, value = KindEventCreated, EventCreated{LogMeta: meta, EventID: ev.EventId, Organizer: ev.Organizer, StartTime: ev.StartTime}
		}
	case contract.EventEventCancelled:
		var ev contract.EventCancelledLog
		if err = ix.binding.UnpackLog(&ev, name, l); err == nil {
			kind, value = KindEventCancelled, EventCancelled{LogMeta: meta, EventID: ev.EventId, Organizer: ev.Organizer, Timestamp: ev.Timestamp}
		}
	case contract.EventUserInvited, contract.EventInvitationRevoked:
		var ev contract.InvitationLog
		if err = ix.binding.UnpackLog(&ev, name, l); err == nil {
			kind, value = KindInvitation, Invitation{
				LogMeta:   meta,
				EventID:   ev.EventId,
				Invitee:   ev.Invitee,
				Organizer: ev.Organizer,
				Revoked:   name == contract.EventInvitationRevoked,
			}
		}
	case contract.EventRefundClaimed:
		var ev contract.RefundClaimedLog
		if err = ix.binding.UnpackLog(&ev, name, l); err == nil {
			kind, value = KindRefund, RefundClaimed{LogMeta: meta, EventID: ev.EventId, User: ev.User, Amount: ev.Amount, RefundType: ev.RefundType}
		}
	case contract.EventPlatformFeeAllocated:
		var ev contract.PlatformFeeAllocatedLog
		if err = ix.binding.UnpackLog(&ev, name, l); err == nil {
			kind, value = KindPlatformFee, PlatformFee{LogMeta: meta, EventID: ev.EventId, Referrer: ev.Referrer, Amount: ev.Amount, FeeBps: ev.FeeBps}
		}
	case contract.EventTicketPurchased:
		var ev contract.TicketPurchasedLog
		if err = ix.binding.UnpackLog(&ev, name, l); err == nil {
			kind, value = KindTicketPurchase, TicketPurchase{LogMeta: meta, EventID: ev.EventId, Buyer: ev.Buyer, Quantity: ev.Quantity, Price: ev.Price}
		}
	}

	if err != nil {
		ix.logger.Warnf("跳过无法解码的 %s 日志 (block=%d index=%d): %v", name, l.BlockNumber, l.Index, err)
		return entry{}, false
	}
	ix.metrics.ObserveIndexedLog(name)
	return entry{kind: kind, meta: meta, value: value}, true
}
