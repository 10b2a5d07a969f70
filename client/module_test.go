package client_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/weisyn/assemble-go/client"
	"github.com/weisyn/assemble-go/client/core/cache"
	"github.com/weisyn/assemble-go/client/core/config"
	"github.com/weisyn/assemble-go/client/core/contract"
	logInterface "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
)

func TestModule_ProvidesClient(t *testing.T) {
	// http 端点惰性连接，构造阶段不发请求
	profile := &config.Profile{
		Name:            "local",
		ChainID:         31337,
		ContractAddress: "0x00000000000000000000000000000000A55E4B1E",
		Endpoints:       []config.EndpointConfig{{Name: "anvil", URL: "http://127.0.0.1:8545"}},
		Cache:           config.CacheConfig{Backend: cache.BackendNone},
	}

	var (
		c       *client.Client
		binding *contract.Binding
		logger  logInterface.Logger
	)
	app := fxtest.New(t,
		fx.Supply(profile),
		client.Module(),
		fx.Populate(&c, &binding, &logger),
	)
	app.RequireStart()

	require.NotNil(t, c)
	assert.Same(t, c.Binding(), binding)
	assert.NotNil(t, logger)
	assert.Equal(t, "local", c.Profile().Name)
	assert.NotNil(t, c.Transport())

	app.RequireStop()
}
