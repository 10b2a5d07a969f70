package log

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap/zapcore"
)

// LogOptions 日志配置选项
type LogOptions struct {
	// === 基础配置 ===
	Level     string `json:"level"`      // 日志级别 (debug, info, warn, error, fatal)
	ToConsole bool   `json:"to_console"` // 是否输出到 stderr
	FilePath  string `json:"file_path"`  // 日志文件路径，为空不写文件
	JSON      bool   `json:"json"`       // 控制台是否使用 JSON 编码

	// === 轮转配置 ===
	MaxSize    int  `json:"max_size"`    // 单个日志文件最大大小(MB)
	MaxBackups int  `json:"max_backups"` // 最大备份文件数
	MaxAge     int  `json:"max_age"`     // 日志文件最大保留天数
	Compress   bool `json:"compress"`    // 是否压缩历史日志文件

	// === 分文件配置 ===
	SplitFiles bool   `json:"split_files"`  // 按 module 字段拆分文件
	RPCLogFile string `json:"rpc_log_file"` // 链路日志文件名
	SDKLogFile string `json:"sdk_log_file"` // 业务日志文件名

	// === 调试配置 ===
	EnableCaller     bool `json:"enable_caller"`     // 是否启用调用者信息
	EnableStacktrace bool `json:"enable_stacktrace"` // 是否启用堆栈跟踪

	// === 内部配置（不对外暴露） ===
	LevelMap map[string]zapcore.Level `json:"-"` // 级别映射
}

// Config 日志配置实现
type Config struct {
	options *LogOptions
}

// New 创建日志配置
//
// userConfig 可以是 *LogOptions；未设置的字段使用默认值。
func New(userConfig interface{}) *Config {
	options := createDefaultLogOptions()

	if user, ok := userConfig.(*LogOptions); ok && user != nil {
		applyUserLogOptions(options, user)
	}

	return &Config{options: options}
}

// Default 返回默认日志选项的副本
func Default() *LogOptions {
	return createDefaultLogOptions()
}

func createDefaultLogOptions() *LogOptions {
	return &LogOptions{
		Level:     defaultLogLevel,
		ToConsole: defaultToConsole,
		FilePath:  defaultFilePath,

		MaxSize:    defaultMaxSize,
		MaxBackups: defaultMaxBackups,
		MaxAge:     defaultMaxAge,
		Compress:   defaultCompress,

		SplitFiles: defaultSplitFiles,
		RPCLogFile: defaultRPCLogFile,
		SDKLogFile: defaultSDKLogFile,

		EnableCaller:     defaultEnableCaller,
		EnableStacktrace: defaultEnableStacktrace,

		LevelMap: defaultLevelMap,
	}
}

// applyUserLogOptions 只覆盖用户实际设置的字段
func applyUserLogOptions(options, user *LogOptions) {
	if user.Level != "" {
		options.Level = strings.ToLower(user.Level)
	}
	options.ToConsole = user.ToConsole
	options.JSON = user.JSON
	if user.FilePath != "" {
		options.FilePath = user.FilePath
	}
	if user.MaxSize > 0 {
		options.MaxSize = user.MaxSize
	}
	if user.MaxBackups > 0 {
		options.MaxBackups = user.MaxBackups
	}
	if user.MaxAge > 0 {
		options.MaxAge = user.MaxAge
	}
	options.Compress = user.Compress
	options.SplitFiles = user.SplitFiles
	if user.RPCLogFile != "" {
		options.RPCLogFile = user.RPCLogFile
	}
	if user.SDKLogFile != "" {
		options.SDKLogFile = user.SDKLogFile
	}
	options.EnableCaller = user.EnableCaller
	options.EnableStacktrace = user.EnableStacktrace
}

// GetOptions 获取完整的日志配置选项
func (c *Config) GetOptions() *LogOptions {
	return c.options
}

// GetLevel 获取日志级别
func (c *Config) GetLevel() string {
	return c.options.Level
}

// GetZapLevel 获取zap日志级别
func (c *Config) GetZapLevel() zapcore.Level {
	if level, exists := c.options.LevelMap[c.options.Level]; exists {
		return level
	}
	return zapcore.InfoLevel
}

// IsConsoleEnabled 是否启用控制台输出
func (c *Config) IsConsoleEnabled() bool {
	return c.options.ToConsole
}

// GetFilePath 获取日志文件路径
func (c *Config) GetFilePath() string {
	return c.options.FilePath
}

// GetMaxSize 获取单个文件最大大小(MB)
func (c *Config) GetMaxSize() int {
	return c.options.MaxSize
}

// GetMaxBackups 获取最大备份文件数
func (c *Config) GetMaxBackups() int {
	return c.options.MaxBackups
}

// GetMaxAge 获取最大保留天数
func (c *Config) GetMaxAge() int {
	return c.options.MaxAge
}

// IsCompressionEnabled 是否启用压缩
func (c *Config) IsCompressionEnabled() bool {
	return c.options.Compress
}

// IsSplitEnabled 是否按 module 拆分文件
func (c *Config) IsSplitEnabled() bool {
	return c.options.SplitFiles
}

// GetRPCLogPath 链路日志文件完整路径
func (c *Config) GetRPCLogPath() string {
	return filepath.Join(filepath.Dir(c.options.FilePath), c.options.RPCLogFile)
}

// GetSDKLogPath 业务日志文件完整路径
func (c *Config) GetSDKLogPath() string {
	return filepath.Join(filepath.Dir(c.options.FilePath), c.options.SDKLogFile)
}

// IsCallerEnabled 是否启用调用者信息
func (c *Config) IsCallerEnabled() bool {
	return c.options.EnableCaller
}

// IsStacktraceEnabled 是否启用堆栈跟踪
func (c *Config) IsStacktraceEnabled() bool {
	return c.options.EnableStacktrace
}

// CreateFileEncoder 创建文件编码器（JSON）
func (c *Config) CreateFileEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
	})
}

// CreateConsoleEncoder 创建控制台编码器
func (c *Config) CreateConsoleEncoder() zapcore.Encoder {
	if c.options.JSON {
		return c.CreateFileEncoder()
	}
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05.000"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
	})
}
