// Package log 提供基于 zap 的日志实现
// 支持控制台输出、lumberjack 文件轮转以及按 module 字段拆分日志文件
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	logconfig "github.com/weisyn/assemble-go/internal/config/log"
	logInterface "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
)

// 日志级别定义
const (
	DebugLevel = string(logInterface.DebugLevel)
	InfoLevel  = string(logInterface.InfoLevel)
	WarnLevel  = string(logInterface.WarnLevel)
	ErrorLevel = string(logInterface.ErrorLevel)
	FatalLevel = string(logInterface.FatalLevel)
)

var (
	// 全局日志实例
	globalLogger logInterface.Logger
	mu           sync.RWMutex
)

// Logger 实现 log.Logger 接口
type Logger struct {
	zapLogger *zap.Logger
	sugar     *zap.SugaredLogger
}

func init() {
	ResetDefault()
}

// ResetDefault 重置全局日志记录器为默认配置
func ResetDefault() {
	logger, err := New(logconfig.New(nil))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize default logger: %v\n", err)
		return
	}
	SetLogger(logger)
}

// moduleRoutingCore 根据 module 字段把日志写入链路日志或业务日志
type moduleRoutingCore struct {
	rpcCore      zapcore.Core
	sdkCore      zapcore.Core
	fallbackCore zapcore.Core // 没有 module 字段时写两个文件
}

func (c *moduleRoutingCore) Enabled(level zapcore.Level) bool {
	return c.rpcCore.Enabled(level) || c.sdkCore.Enabled(level) || c.fallbackCore.Enabled(level)
}

func (c *moduleRoutingCore) With(fields []zapcore.Field) zapcore.Core {
	// With 携带的 module 字段在 Write 阶段不可见，这里提前决定路由
	if module := moduleOf(fields); module != "" {
		switch {
		case isRPCModule(module):
			return c.rpcCore.With(fields)
		case isSDKModule(module):
			return c.sdkCore.With(fields)
		}
	}
	return &moduleRoutingCore{
		rpcCore:      c.rpcCore.With(fields),
		sdkCore:      c.sdkCore.With(fields),
		fallbackCore: c.fallbackCore.With(fields),
	}
}

func (c *moduleRoutingCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *moduleRoutingCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	module := moduleOf(fields)
	switch {
	case isRPCModule(module):
		return c.rpcCore.Write(entry, fields)
	case isSDKModule(module):
		return c.sdkCore.Write(entry, fields)
	default:
		return c.fallbackCore.Write(entry, fields)
	}
}

func (c *moduleRoutingCore) Sync() error {
	var errs []error
	if err := c.rpcCore.Sync(); err != nil {
		errs = append(errs, err)
	}
	if err := c.sdkCore.Sync(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("sync log files: %v", errs)
	}
	return nil
}

// moduleOf 从字段中取出 module 值
func moduleOf(fields []zapcore.Field) string {
	for _, field := range fields {
		if field.Key != "module" {
			continue
		}
		switch field.Type {
		case zapcore.StringType:
			return field.String
		case zapcore.StringerType:
			if s, ok := field.Interface.(fmt.Stringer); ok && s != nil {
				return s.String()
			}
		default:
			if str, ok := field.Interface.(string); ok {
				return str
			}
		}
	}
	return ""
}

// isRPCModule 链路模块：传输、合约绑定、索引、缓存
func isRPCModule(module string) bool {
	switch module {
	case "transport", "contract", "indexer", "cache", "metrics":
		return true
	}
	return false
}

// isSDKModule 业务模块：管理器（assemble.*）、钱包、客户端、命令行
func isSDKModule(module string) bool {
	if strings.HasPrefix(module, "assemble") {
		return true
	}
	switch module {
	case "wallet", "client", "cli", "config":
		return true
	}
	return false
}

// createFileWriter 创建带轮转的文件写入器
func createFileWriter(logPath string, config *logconfig.Config) zapcore.WriteSyncer {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "create log dir %s: %v\n", logDir, err)
		return zapcore.AddSync(os.Stderr)
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    config.GetMaxSize(),
		MaxBackups: config.GetMaxBackups(),
		MaxAge:     config.GetMaxAge(),
		Compress:   config.IsCompressionEnabled(),
	})
}

// New 根据配置创建新的日志记录器
func New(config *logconfig.Config) (logInterface.Logger, error) {
	level := zap.NewAtomicLevelAt(config.GetZapLevel())

	var cores []zapcore.Core

	if config.IsConsoleEnabled() {
		cores = append(cores, zapcore.NewCore(config.CreateConsoleEncoder(), zapcore.Lock(os.Stderr), level))
	}

	if outputPath := config.GetFilePath(); outputPath != "" {
		absPath, err := filepath.Abs(outputPath)
		if err != nil {
			return nil, fmt.Errorf("resolve log file path: %w", err)
		}
		fileEncoder := config.CreateFileEncoder()

		if config.IsSplitEnabled() {
			rpcCore := zapcore.NewCore(fileEncoder, createFileWriter(filepath.Join(filepath.Dir(absPath), filepath.Base(config.GetRPCLogPath())), config), level)
			sdkCore := zapcore.NewCore(fileEncoder, createFileWriter(filepath.Join(filepath.Dir(absPath), filepath.Base(config.GetSDKLogPath())), config), level)
			cores = append(cores, &moduleRoutingCore{
				rpcCore:      rpcCore,
				sdkCore:      sdkCore,
				fallbackCore: zapcore.NewTee(rpcCore, sdkCore),
			})
		} else {
			cores = append(cores, zapcore.NewCore(fileEncoder, createFileWriter(absPath, config), level))
		}
	}

	if len(cores) == 0 {
		return NewNop(), nil
	}

	var zapOptions []zap.Option
	if config.IsCallerEnabled() {
		// 跳过一层封装，调用位置指向业务代码
		zapOptions = append(zapOptions, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if config.IsStacktraceEnabled() {
		zapOptions = append(zapOptions, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	zapLogger := zap.New(zapcore.NewTee(cores...), zapOptions...)
	return &Logger{
		zapLogger: zapLogger,
		sugar:     zapLogger.Sugar(),
	}, nil
}

// NewFromOptions 从日志选项创建日志记录器
func NewFromOptions(options *logconfig.LogOptions) (logInterface.Logger, error) {
	return New(logconfig.New(options))
}

// NewNop 返回丢弃所有输出的日志记录器
func NewNop() logInterface.Logger {
	zapLogger := zap.NewNop()
	return &Logger{zapLogger: zapLogger, sugar: zapLogger.Sugar()}
}

// NewFromZap 包装已有的 zap.Logger
func NewFromZap(zapLogger *zap.Logger) logInterface.Logger {
	if zapLogger == nil {
		return NewNop()
	}
	return &Logger{zapLogger: zapLogger, sugar: zapLogger.Sugar()}
}

// GetZapLogger 获取底层的zap日志记录器
func (l *Logger) GetZapLogger() *zap.Logger {
	return l.zapLogger
}

// SetLogger 设置全局日志记录器
func SetLogger(logger logInterface.Logger) {
	if logger == nil {
		return
	}
	mu.Lock()
	globalLogger = logger
	mu.Unlock()
}

// GetLogger 获取全局日志记录器
func GetLogger() logInterface.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// OrDefault nil 时返回全局日志记录器
func OrDefault(logger logInterface.Logger) logInterface.Logger {
	if logger != nil {
		return logger
	}
	if g := GetLogger(); g != nil {
		return g
	}
	return NewNop()
}

// ===== 全局日志函数 =====

// Debugf 使用格式化字符串记录调试级别的日志
func Debugf(format string, args ...interface{}) {
	if l := GetLogger(); l != nil {
		l.Debugf(format, args...)
	}
}

// Infof 使用格式化字符串记录信息级别的日志
func Infof(format string, args ...interface{}) {
	if l := GetLogger(); l != nil {
		l.Infof(format, args...)
	}
}

// Warnf 使用格式化字符串记录警告级别的日志
func Warnf(format string, args ...interface{}) {
	if l := GetLogger(); l != nil {
		l.Warnf(format, args...)
	}
}

// Errorf 使用格式化字符串记录错误级别的日志
func Errorf(format string, args ...interface{}) {
	if l := GetLogger(); l != nil {
		l.Errorf(format, args...)
	}
}

// With 基于全局日志记录器创建带字段的日志记录器
func With(args ...interface{}) logInterface.Logger {
	return OrDefault(nil).With(args...)
}

// toZapFields 把 key, value 成对参数转换为 zap 字段，落单的最后一个参数被丢弃
func toZapFields(args ...interface{}) []zap.Field {
	if len(args)%2 != 0 {
		args = args[:len(args)-1]
	}

	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if s, ok := args[i+1].(string); ok {
			fields = append(fields, zap.String(key, s))
			continue
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}

func (l *Logger) Debug(msg string) { l.sugar.Debug(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

func (l *Logger) Info(msg string) { l.sugar.Info(msg) }

func (l *Logger) Infof(format string, args ...interface{}) { l.sugar.Infof(format, args...) }

func (l *Logger) Warn(msg string) { l.sugar.Warn(msg) }

func (l *Logger) Warnf(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }

func (l *Logger) Error(msg string) { l.sugar.Error(msg) }

func (l *Logger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

func (l *Logger) Fatal(msg string) { l.sugar.Fatal(msg) }

func (l *Logger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }

// With 返回一个带有额外字段的Logger
func (l *Logger) With(args ...interface{}) logInterface.Logger {
	zapLogger := l.zapLogger.With(toZapFields(args...)...)
	return &Logger{
		zapLogger: zapLogger,
		sugar:     zapLogger.Sugar(),
	}
}

// Sync 同步日志缓冲区到输出
func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}
