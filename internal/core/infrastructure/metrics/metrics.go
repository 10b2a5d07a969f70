// Package metrics 提供 SDK 的 prometheus 指标
//
// 指标注册在调用方提供的 Registerer 上；命令行使用默认注册表。
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

const namespace = "assemble"

// Metrics SDK 指标集合
type Metrics struct {
	rpcCalls      *prometheus.CounterVec
	rpcLatency    *prometheus.HistogramVec
	contractCalls *prometheus.CounterVec
	errors        *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	indexedBlock  prometheus.Gauge
	indexedLogs   *prometheus.CounterVec
}

// New 创建并注册指标；reg 为 nil 时只创建不注册
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		rpcCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "JSON-RPC calls by method and result",
		}, []string{"method", "result"}),
		rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "latency_seconds",
			Help:      "JSON-RPC call latency",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		contractCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contract",
			Name:      "calls_total",
			Help:      "Contract method invocations by kind (call/transact) and result",
		}, []string{"method", "kind", "result"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors returned to callers by error kind",
		}, []string{"kind"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Read cache lookups by backend and result",
		}, []string{"backend", "result"}),
		indexedBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "checkpoint_block",
			Help:      "Last block scanned by the log indexer",
		}),
		indexedLogs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "logs_total",
			Help:      "Decoded contract logs by event name",
		}, []string{"event"}),
	}

	if reg != nil {
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				var are prometheus.AlreadyRegisteredError
				if !errors.As(err, &are) {
					return nil, err
				}
			}
		}
	}
	return m, nil
}

// NewNop 不注册任何注册表的指标集合
func NewNop() *Metrics {
	m, _ := New(nil)
	return m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.rpcCalls, m.rpcLatency, m.contractCalls, m.errors,
		m.cacheLookups, m.indexedBlock, m.indexedLogs,
	}
}

// ObserveRPC 记录一次 RPC 调用
func (m *Metrics) ObserveRPC(method string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.rpcCalls.WithLabelValues(method, result(err)).Inc()
	m.rpcLatency.WithLabelValues(method).Observe(time.Since(started).Seconds())
	if err != nil {
		m.ObserveError(err)
	}
}

// ObserveContract 记录一次合约方法调用，kind 为 call 或 transact
func (m *Metrics) ObserveContract(method, kind string, err error) {
	if m == nil {
		return
	}
	m.contractCalls.WithLabelValues(method, kind, result(err)).Inc()
}

// ObserveError 按错误类别计数
func (m *Metrics) ObserveError(err error) {
	if m == nil || err == nil {
		return
	}
	var sdkErr *sdkerrors.Error
	kind := "unclassified"
	if errors.As(err, &sdkErr) {
		kind = sdkErr.Kind.String()
	}
	m.errors.WithLabelValues(kind).Inc()
}

// ObserveCache 记录缓存命中情况
func (m *Metrics) ObserveCache(backend string, hit bool) {
	if m == nil {
		return
	}
	r := "miss"
	if hit {
		r = "hit"
	}
	m.cacheLookups.WithLabelValues(backend, r).Inc()
}

// SetIndexedBlock 更新索引检查点
func (m *Metrics) SetIndexedBlock(block uint64) {
	if m == nil {
		return
	}
	m.indexedBlock.Set(float64(block))
}

// ObserveIndexedLog 记录解码出的日志
func (m *Metrics) ObserveIndexedLog(event string) {
	if m == nil {
		return
	}
	m.indexedLogs.WithLabelValues(event).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
