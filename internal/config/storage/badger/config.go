package badger

// BadgerOptions 索引库配置选项
type BadgerOptions struct {
	// === 基础配置 ===
	Path       string `json:"path"`        // 数据库存储路径
	InMemory   bool   `json:"in_memory"`   // 纯内存模式，不落盘
	SyncWrites bool   `json:"sync_writes"` // 是否同步写入

	// === 基础性能配置 ===
	MemTableSize int64 `json:"mem_table_size"` // 内存表大小

	// === 维护配置 ===
	EnableAutoCompaction bool `json:"enable_auto_compaction"` // 是否定期执行值日志GC
}

const (
	// 索引可从链上重建，不要求同步落盘
	defaultSyncWrites = false

	defaultMemTableSize = 16 << 20 // 16MB

	defaultEnableAutoCompaction = true
)

// Config BadgerDB配置实现
type Config struct {
	options *BadgerOptions
}

// New 创建配置；user 为 nil 时使用默认值，Path 为空时进入内存模式
func New(user *BadgerOptions) *Config {
	options := &BadgerOptions{
		SyncWrites:           defaultSyncWrites,
		MemTableSize:         defaultMemTableSize,
		EnableAutoCompaction: defaultEnableAutoCompaction,
	}
	if user != nil {
		options.Path = user.Path
		options.InMemory = user.InMemory
		options.SyncWrites = user.SyncWrites
		if user.MemTableSize > 0 {
			options.MemTableSize = user.MemTableSize
		}
		options.EnableAutoCompaction = user.EnableAutoCompaction
	}
	if options.Path == "" {
		options.InMemory = true
	}
	return &Config{options: options}
}

// GetOptions 获取完整配置选项
func (c *Config) GetOptions() *BadgerOptions {
	return c.options
}

// GetPath 获取数据库路径
func (c *Config) GetPath() string {
	return c.options.Path
}

// IsInMemory 是否为内存模式
func (c *Config) IsInMemory() bool {
	return c.options.InMemory
}

// IsSyncWritesEnabled 是否启用同步写入
func (c *Config) IsSyncWritesEnabled() bool {
	return c.options.SyncWrites
}

// GetMemTableSize 获取内存表大小
func (c *Config) GetMemTableSize() int64 {
	return c.options.MemTableSize
}

// IsAutoCompactionEnabled 是否启用自动压缩
func (c *Config) IsAutoCompactionEnabled() bool {
	return c.options.EnableAutoCompaction
}
