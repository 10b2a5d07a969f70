// Package storage 定义本地键值存储接口
//
// 索引器用它持久化解码后的合约日志与同步检查点。
package storage

import (
	"context"
)

// BadgerStore 键值存储接口
type BadgerStore interface {
	// Close 关闭数据库，等待进行中的写入完成
	Close() error

	// Get 获取指定键的值；键不存在时返回 nil 值和 nil 错误
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set 设置键值对，已存在时覆盖
	Set(ctx context.Context, key, value []byte) error

	// Delete 删除指定键，键不存在不报错
	Delete(ctx context.Context, key []byte) error

	// Exists 检查键是否存在
	Exists(ctx context.Context, key []byte) (bool, error)

	// IteratePrefix 按键的字节序遍历前缀下的键值对，fn 返回错误时停止
	IteratePrefix(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error

	// RunInTransaction 在单个读写事务中执行 fn，fn 返回错误时回滚
	RunInTransaction(ctx context.Context, fn func(tx BadgerTransaction) error) error
}

// BadgerTransaction 事务内的键值操作
type BadgerTransaction interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Exists(key []byte) (bool, error)
}
