// Package badger 提供基于BadgerDB的存储实现
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"

	badgerconfig "github.com/weisyn/assemble-go/internal/config/storage/badger"
	logimpl "github.com/weisyn/assemble-go/internal/core/infrastructure/log"
	log "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
	interfaces "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/storage"
)

// ErrClosing 存储正在关闭
var ErrClosing = errors.New("badger store is closing")

// Store 实现BadgerStore接口
type Store struct {
	db         *badgerdb.DB
	config     *badgerconfig.Config
	logger     log.Logger
	cancelFunc context.CancelFunc // 取消后台维护任务

	// 关闭过程中拒绝新的写入，并等待进行中的写入结束
	closing int32
	writeWg sync.WaitGroup
}

var _ interfaces.BadgerStore = (*Store)(nil)

// New 打开数据库并启动维护任务
func New(config *badgerconfig.Config, logger log.Logger) (*Store, error) {
	if config == nil {
		config = badgerconfig.New(nil)
	}
	logger = logimpl.WithModule(logger, "indexer")

	var opts badgerdb.Options
	if config.IsInMemory() {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
		logger.Debug("使用内存BadgerDB")
	} else {
		dataDir := config.GetPath()
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return nil, fmt.Errorf("create badger dir %s: %w", dataDir, err)
		}
		opts = badgerdb.DefaultOptions(dataDir)
		opts.SyncWrites = config.IsSyncWritesEnabled()
		// 索引数据量小，降低 value log 文件与缓存占用
		opts.ValueLogFileSize = 64 << 20
		logger.Infof("初始化BadgerDB存储，数据目录: %s", dataDir)
	}
	opts.MemTableSize = config.GetMemTableSize()
	opts.ValueThreshold = valueThresholdFor(opts.MemTableSize, opts.ValueThreshold)
	opts.BlockCacheSize = 16 << 20
	opts.IndexCacheSize = 16 << 20
	opts.NumMemtables = 2
	opts.NumCompactors = 2
	opts.Logger = newBadgerLogger(logger)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	store := &Store{
		db:     db,
		config: config,
		logger: logger,
	}

	if config.IsAutoCompactionEnabled() && !config.IsInMemory() {
		ctx, cancel := context.WithCancel(context.Background())
		store.cancelFunc = cancel
		store.StartMaintenanceRoutines(ctx)
	}

	return store, nil
}

// valueThresholdFor 小内存表下收紧 ValueThreshold
//
// badger 要求 ValueThreshold 不超过单批上限（内存表的 15%），否则 Open 失败。
func valueThresholdFor(memTableSize, current int64) int64 {
	limit := memTableSize / 10
	if limit < 1 {
		limit = 1
	}
	if current > limit {
		return limit
	}
	return current
}

// Close 关闭存储并释放资源
func (s *Store) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closing, 0, 1) {
		return nil
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	if s.db == nil {
		return nil
	}

	waitCh := make(chan struct{})
	go func() {
		s.writeWg.Wait()
		close(waitCh)
	}()
	select {
	case <-waitCh:
	case <-time.After(30 * time.Second):
		s.logger.Warn("等待写事务超时（30s），继续关闭 BadgerDB")
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("关闭BadgerDB失败: %w", err)
	}
	return nil
}

func (s *Store) beginWrite() (func(), error) {
	if atomic.LoadInt32(&s.closing) == 1 {
		return nil, ErrClosing
	}
	s.writeWg.Add(1)
	// Add 之后再确认一次
	if atomic.LoadInt32(&s.closing) == 1 {
		s.writeWg.Done()
		return nil, ErrClosing
	}
	return s.writeWg.Done, nil
}

// Get 获取指定键的值
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	var valCopy []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		valCopy, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("badger获取键失败: %w", err)
	}
	return valCopy, nil
}

// Set 设置键值对
func (s *Store) Set(ctx context.Context, key, value []byte) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key, value)
	})
}

// Delete 删除指定键的值
func (s *Store) Delete(ctx context.Context, key []byte) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(key)
	})
}

// Exists 检查键是否存在
func (s *Store) Exists(ctx context.Context, key []byte) (bool, error) {
	var exists bool
	err := s.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(key)
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("badger检查键存在性失败: %w", err)
	}
	return exists, nil
}

// IteratePrefix 按字节序遍历前缀下的键值对
func (s *Store) IteratePrefix(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error {
	return s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(item.KeyCopy(nil), val); err != nil {
				return err
			}
		}
		return nil
	})
}

// RunInTransaction 在事务中执行操作
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx interfaces.BadgerTransaction) error) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()

	tx := &Transaction{
		txn:   s.db.NewTransaction(true),
		state: int32(TxActive),
	}
	defer tx.Discard()

	if err := fn(tx); err != nil {
		return fmt.Errorf("事务执行失败: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("事务提交失败: %w", err)
	}
	return nil
}

// badgerLogger 实现BadgerDB的日志接口
type badgerLogger struct {
	logger log.Logger
}

func newBadgerLogger(logger log.Logger) *badgerLogger {
	return &badgerLogger{logger: logger}
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf("[BadgerDB] "+format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf("[BadgerDB] "+format, args...)
}

// Infof BadgerDB 的信息日志较多，降级为 debug
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf("[BadgerDB] "+format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf("[BadgerDB] "+format, args...)
}
