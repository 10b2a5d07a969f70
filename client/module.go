package client

import (
	"context"

	"go.uber.org/fx"

	"github.com/weisyn/assemble-go/client/core/config"
	"github.com/weisyn/assemble-go/client/core/contract"
	"github.com/weisyn/assemble-go/client/core/transport"
	"github.com/weisyn/assemble-go/client/core/wallet"
	logconfig "github.com/weisyn/assemble-go/internal/config/log"
	logimpl "github.com/weisyn/assemble-go/internal/core/infrastructure/log"
	"github.com/weisyn/assemble-go/internal/core/infrastructure/metrics"
	logInterface "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
)

// ModuleParams 客户端模块依赖
type ModuleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Profile   *config.Profile
	Logger    logInterface.Logger `optional:"true"`
	Metrics   *metrics.Metrics    `optional:"true"`
	Signer    wallet.Signer       `optional:"true"`
}

// Module 返回客户端模块
//
// 宿主应用提供 *config.Profile；模块按 Profile 的日志配置提供日志记录器，
// 构造时连接节点，停止时释放资源。
func Module() fx.Option {
	return fx.Module("assemble",
		fx.Provide(func(p *config.Profile) *logconfig.LogOptions { return p.Log }),
		logimpl.Module(),
		fx.Provide(
			ProvideClient,
			func(c *Client) *contract.Binding { return c.Binding() },
			func(c *Client) transport.Client { return c.Transport() },
		),
	)
}

// ProvideClient 创建客户端并挂到生命周期上
func ProvideClient(p ModuleParams) (*Client, error) {
	opts := []Option{WithLogger(p.Logger), WithMetrics(p.Metrics)}
	if p.Signer != nil {
		opts = append(opts, WithSigner(p.Signer))
	}

	c, err := New(context.Background(), p.Profile, opts...)
	if err != nil {
		return nil, err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error { return c.Close() },
	})
	return c, nil
}
