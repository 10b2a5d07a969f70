package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// ModuleParams 指标模块依赖
type ModuleParams struct {
	fx.In

	Registerer prometheus.Registerer `optional:"true"`
}

// Module 返回 metrics 模块
//
// 未提供 Registerer 时注册到 prometheus 默认注册表。
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(func(p ModuleParams) (*Metrics, error) {
			reg := p.Registerer
			if reg == nil {
				reg = prometheus.DefaultRegisterer
			}
			return New(reg)
		}),
	)
}
