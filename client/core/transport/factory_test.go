package transport

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logpkg "github.com/weisyn/assemble-go/internal/core/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

func testConfig() ClientConfig {
	return ClientConfig{
		ChainID:             11155111,
		RetryAttempts:       3,
		RetryBackoff:        time.Millisecond,
		HealthCheckInterval: -1,
	}
}

func newTestFallback(t *testing.T, clients ...NamedClient) *FallbackClient {
	t.Helper()
	fc, err := NewFallbackFromClients(testConfig(), clients, logpkg.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = fc.Close() })
	return fc
}

func TestFallbackClient_PriorityOrder(t *testing.T) {
	low := &stubClient{chainID: 2}
	high := &stubClient{chainID: 1}
	fc := newTestFallback(t,
		NamedClient{Name: "backup", Priority: 10, Client: low},
		NamedClient{Name: "primary", Priority: 1, Client: high},
	)

	id, err := fc.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Int64())
	assert.Zero(t, low.calls.Load())
}

func TestFallbackClient_FailsOverOnEndpointError(t *testing.T) {
	broken := &stubClient{chainID: 1, err: errConnRefused}
	backup := &stubClient{chainID: 2}
	fc := newTestFallback(t,
		NamedClient{Name: "primary", Priority: 0, Client: broken},
		NamedClient{Name: "backup", Priority: 1, Client: backup},
	)

	n, err := fc.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(200), n)
	assert.Equal(t, []string{"backup"}, fc.Healthy())

	// 故障端点被跳过
	_, err = fc.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), broken.calls.Load())
}

func TestFallbackClient_AllEndpointsFail(t *testing.T) {
	a := &stubClient{err: errConnRefused}
	b := &stubClient{err: errConnRefused}
	fc := newTestFallback(t,
		NamedClient{Name: "a", Client: a},
		NamedClient{Name: "b", Client: b},
	)

	_, err := fc.ChainID(context.Background())
	require.Error(t, err)
	assert.True(t, sdkerrors.IsNetwork(err))
	assert.ErrorIs(t, err, errConnRefused)

	var sdkErr *sdkerrors.Error
	require.ErrorAs(t, err, &sdkErr)
	assert.Equal(t, uint64(11155111), sdkErr.ChainID)
	assert.Equal(t, int32(3), a.calls.Load()+b.calls.Load())
}

func TestFallbackClient_NodeErrorsAreNotRetried(t *testing.T) {
	revert := &rpcError{code: 3, msg: "execution reverted"}
	primary := &stubClient{err: revert}
	backup := &stubClient{chainID: 2}
	fc := newTestFallback(t,
		NamedClient{Name: "primary", Client: primary},
		NamedClient{Name: "backup", Priority: 1, Client: backup},
	)

	_, err := fc.CallContract(context.Background(), ethereum.CallMsg{}, nil)
	require.Error(t, err)
	assert.Same(t, revert, err)
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Zero(t, backup.calls.Load())
	assert.Len(t, fc.Healthy(), 2)
}

func TestFallbackClient_ReceiptNotFoundPassesThrough(t *testing.T) {
	fc := newTestFallback(t, NamedClient{Name: "only", Client: &stubClient{}})

	_, err := fc.TransactionReceipt(context.Background(), common.Hash{})
	assert.ErrorIs(t, err, ethereum.NotFound)
}

func TestFallbackClient_SendTransactionAlreadyKnown(t *testing.T) {
	flaky := &stubClient{err: errConnRefused}
	backup := &stubClient{sendErr: &rpcError{code: -32000, msg: "already known"}}
	fc := newTestFallback(t,
		NamedClient{Name: "primary", Client: flaky},
		NamedClient{Name: "backup", Priority: 1, Client: backup},
	)

	tx := types.NewTx(&types.LegacyTx{Nonce: 1, GasPrice: big.NewInt(1), Gas: 21000})
	require.NoError(t, fc.SendTransaction(context.Background(), tx))
	assert.Equal(t, int32(1), flaky.sent.Load())
	assert.Equal(t, int32(1), backup.sent.Load())
}

func TestFallbackClient_SendTransactionRejected(t *testing.T) {
	primary := &stubClient{sendErr: &rpcError{code: -32000, msg: "nonce too low"}}
	backup := &stubClient{}
	fc := newTestFallback(t,
		NamedClient{Name: "primary", Client: primary},
		NamedClient{Name: "backup", Priority: 1, Client: backup},
	)

	tx := types.NewTx(&types.LegacyTx{Nonce: 1, GasPrice: big.NewInt(1), Gas: 21000})
	err := fc.SendTransaction(context.Background(), tx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonce too low")
	assert.Zero(t, backup.sent.Load())
}

func TestFallbackClient_HealthCheckRestores(t *testing.T) {
	primary := &stubClient{chainID: 1, err: errConnRefused}
	backup := &stubClient{chainID: 2}
	fc := newTestFallback(t,
		NamedClient{Name: "primary", Client: primary},
		NamedClient{Name: "backup", Priority: 1, Client: backup},
	)

	_, err := fc.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"backup"}, fc.Healthy())

	primary.err = nil
	fc.checkAllClients()
	assert.Equal(t, []string{"primary", "backup"}, fc.Healthy())

	id, err := fc.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Int64())
}

func TestFallbackClient_ContextCancelDuringBackoff(t *testing.T) {
	cfg := testConfig()
	cfg.RetryBackoff = time.Hour
	fc, err := NewFallbackFromClients(cfg, []NamedClient{{Name: "a", Client: &stubClient{err: errConnRefused}}}, logpkg.NewNop())
	require.NoError(t, err)
	defer fc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = fc.BlockNumber(ctx)
	require.Error(t, err)
	assert.True(t, sdkerrors.IsNetwork(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFallbackClient_CloseClosesAll(t *testing.T) {
	a, b := &stubClient{}, &stubClient{}
	fc, err := NewFallbackFromClients(testConfig(), []NamedClient{{Name: "a", Client: a}, {Name: "b", Client: b}}, nil)
	require.NoError(t, err)

	require.NoError(t, fc.Close())
	require.NoError(t, fc.Close())
	assert.True(t, a.closed.Load())
	assert.True(t, b.closed.Load())
}

func TestNewFallbackClient_NoEndpoints(t *testing.T) {
	_, err := NewFallbackClient(context.Background(), ClientConfig{ChainID: 1}, nil)
	require.Error(t, err)
	assert.True(t, sdkerrors.IsNetwork(err))

	_, err = NewFallbackFromClients(ClientConfig{}, nil, nil)
	assert.True(t, sdkerrors.IsNetwork(err))
}

func TestIsEndpointFailure(t *testing.T) {
	assert.True(t, isEndpointFailure(errConnRefused))
	assert.False(t, isEndpointFailure(nil))
	assert.False(t, isEndpointFailure(&rpcError{code: 3, msg: "execution reverted"}))
	assert.False(t, isEndpointFailure(ethereum.NotFound))
	assert.False(t, isEndpointFailure(context.Canceled))
	assert.True(t, isEndpointFailure(context.DeadlineExceeded))
}
