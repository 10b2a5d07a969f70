package log

import (
	"go.uber.org/zap/zapcore"
)

// 日志配置默认值
const (
	// defaultLogLevel SDK 默认只输出 warn 及以上，避免干扰宿主程序
	defaultLogLevel = "warn"

	// defaultToConsole 控制台输出写到 stderr，stdout 留给命令输出
	defaultToConsole = true

	// defaultFilePath 为空表示不写文件
	defaultFilePath = ""

	// === 日志轮转配置 ===

	defaultMaxSize    = 50
	defaultMaxBackups = 5
	defaultMaxAge     = 14
	defaultCompress   = true

	// === 调试配置 ===

	defaultEnableCaller     = false
	defaultEnableStacktrace = false

	// === 分文件配置 ===

	// defaultSplitFiles 写文件时把链路日志和业务日志分开
	defaultSplitFiles = true

	// defaultRPCLogFile 传输层、索引器、缓存的日志
	defaultRPCLogFile = "assemble-rpc.log"

	// defaultSDKLogFile 管理器、钱包、命令行的日志
	defaultSDKLogFile = "assemble-sdk.log"
)

// 默认的日志级别映射
var defaultLevelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"panic": zapcore.PanicLevel,
	"fatal": zapcore.FatalLevel,
}
