package indexer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/storage"
)

// 键布局：
//
//	cp/<contract>                         -> 最后已索引区块（8 字节大端）
//	rec/<contract>/<kind>/<block>/<index> -> JSON 记录
//
// block 与 index 为定长十六进制，字节序即链上顺序。
const (
	checkpointPrefix = "cp/"
	recordPrefix     = "rec/"
)

// Store 索引记录存储
type Store struct {
	kv       storage.BadgerStore
	contract string
}

// NewStore 为指定合约创建记录存储
func NewStore(kv storage.BadgerStore, contract common.Address) *Store {
	return &Store{kv: kv, contract: strings.ToLower(contract.Hex())}
}

type entry struct {
	kind  string
	meta  LogMeta
	value interface{}
}

func (s *Store) checkpointKey() []byte {
	return []byte(checkpointPrefix + s.contract)
}

func (s *Store) kindPrefix(kind string) []byte {
	return []byte(recordPrefix + s.contract + "/" + kind + "/")
}

func (s *Store) recordKey(kind string, meta LogMeta) []byte {
	return []byte(fmt.Sprintf("%s%s/%s/%016x/%08x", recordPrefix, s.contract, kind, meta.Block, meta.LogIndex))
}

// Checkpoint 返回最后已索引区块；尚未同步时 ok 为 false
func (s *Store) Checkpoint(ctx context.Context) (block uint64, ok bool, err error) {
	val, err := s.kv.Get(ctx, s.checkpointKey())
	if err != nil {
		return 0, false, fmt.Errorf("read checkpoint: %w", err)
	}
	if len(val) != 8 {
		return 0, false, nil
	}
	return binary.BigEndian.Uint64(val), true, nil
}

// commit 在一个事务中写入记录并推进检查点；重复写入同一日志会覆盖为相同内容
func (s *Store) commit(ctx context.Context, entries []entry, checkpoint uint64) error {
	return s.kv.RunInTransaction(ctx, func(tx storage.BadgerTransaction) error {
		for _, e := range entries {
			data, err := json.Marshal(e.value)
			if err != nil {
				return fmt.Errorf("encode %s record: %w", e.kind, err)
			}
			if err := tx.Set(s.recordKey(e.kind, e.meta), data); err != nil {
				return err
			}
		}
		cp := make([]byte, 8)
		binary.BigEndian.PutUint64(cp, checkpoint)
		return tx.Set(s.checkpointKey(), cp)
	})
}

// scan 按链上顺序遍历某类记录
func scan[T any](ctx context.Context, s *Store, kind string, fn func(rec *T) error) error {
	return s.kv.IteratePrefix(ctx, s.kindPrefix(kind), func(_, value []byte) error {
		rec := new(T)
		if err := json.Unmarshal(value, rec); err != nil {
			return fmt.Errorf("decode %s record: %w", kind, err)
		}
		return fn(rec)
	})
}

// collect 返回某类记录中满足 keep 的全部记录
func collect[T any](ctx context.Context, s *Store, kind string, keep func(rec *T) bool) ([]T, error) {
	var out []T
	err := scan(ctx, s, kind, func(rec *T) error {
		if keep == nil || keep(rec) {
			out = append(out, *rec)
		}
		return nil
	})
	return out, err
}
