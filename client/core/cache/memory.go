package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

// expiryHeaderSize 每条记录前 8 字节存放过期时间（UnixNano）
const expiryHeaderSize = 8

// Memory 基于 BigCache 的进程内缓存
//
// BigCache 只有全局生命周期窗口，单条 TTL 通过值前缀中的过期时间实现。
type Memory struct {
	cache      *bigcache.BigCache
	defaultTTL time.Duration
	now        func() time.Time
}

// NewMemory 创建进程内缓存；maxEntrySize 为 0 时使用 BigCache 默认值
func NewMemory(defaultTTL time.Duration, maxEntrySize int) (*Memory, error) {
	if defaultTTL <= 0 {
		defaultTTL = DefaultConfig().DefaultTTL
	}

	cfg := bigcache.DefaultConfig(defaultTTL)
	cfg.Shards = 64
	cfg.CleanWindow = defaultTTL
	cfg.Verbose = false
	if maxEntrySize > 0 {
		cfg.MaxEntrySize = maxEntrySize
	}

	bc, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("create bigcache: %w", err)
	}
	return &Memory{cache: bc, defaultTTL: defaultTTL, now: time.Now}, nil
}

// Get 读取缓存，过期记录视为未命中
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	entry, err := m.cache.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("bigcache get: %w", err)
	}
	if len(entry) < expiryHeaderSize {
		return nil, false, nil
	}

	expiresAt := int64(binary.BigEndian.Uint64(entry[:expiryHeaderSize]))
	if m.now().UnixNano() >= expiresAt {
		_ = m.cache.Delete(key)
		return nil, false, nil
	}

	value := make([]byte, len(entry)-expiryHeaderSize)
	copy(value, entry[expiryHeaderSize:])
	return value, true, nil
}

// Set 写入缓存
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	entry := make([]byte, expiryHeaderSize+len(value))
	binary.BigEndian.PutUint64(entry[:expiryHeaderSize], uint64(m.now().Add(ttl).UnixNano()))
	copy(entry[expiryHeaderSize:], value)

	if err := m.cache.Set(key, entry); err != nil {
		return fmt.Errorf("bigcache set: %w", err)
	}
	return nil
}

// Delete 删除缓存
func (m *Memory) Delete(_ context.Context, key string) error {
	if err := m.cache.Delete(key); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("bigcache delete: %w", err)
	}
	return nil
}

// Len 当前记录数（含未清理的过期记录）
func (m *Memory) Len() int {
	return m.cache.Len()
}

func (m *Memory) Backend() string { return BackendMemory }

// Close 关闭缓存
func (m *Memory) Close() error {
	return m.cache.Close()
}

var _ Cache = (*Memory)(nil)
