// maintenance.go - 数据库维护相关功能

package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
)

// gcInterval 值日志垃圾回收间隔
var gcInterval = 30 * time.Minute

// RunValueLogGC 执行值日志垃圾回收
func (s *Store) RunValueLogGC(ctx context.Context, discardRatio float64) error {
	resultCh := make(chan error, 1)

	go func() {
		resultCh <- s.db.RunValueLogGC(discardRatio)
	}()

	select {
	case err := <-resultCh:
		if err == nil || errors.Is(err, badgerdb.ErrNoRewrite) {
			return nil
		}
		// 关闭过程中的 GC 请求会被拒绝
		if errors.Is(err, badgerdb.ErrRejected) || strings.Contains(err.Error(), "GC request rejected") {
			return nil
		}
		return fmt.Errorf("值日志垃圾回收失败: %w", err)
	case <-ctx.Done():
		return fmt.Errorf("值日志垃圾回收被取消: %w", ctx.Err())
	}
}

// StartMaintenanceRoutines 启动定期值日志垃圾回收
func (s *Store) StartMaintenanceRoutines(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(gcInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.RunValueLogGC(ctx, 0.5); err != nil {
					s.logger.Warnf("定期值日志垃圾回收失败: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
