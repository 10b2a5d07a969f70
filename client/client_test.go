package client_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/assemble-go/client"
	"github.com/weisyn/assemble-go/client/core/cache"
	"github.com/weisyn/assemble-go/client/core/config"
	"github.com/weisyn/assemble-go/client/core/contract"
	"github.com/weisyn/assemble-go/client/core/contract/contracttest"
	"github.com/weisyn/assemble-go/client/core/wallet"
	logimpl "github.com/weisyn/assemble-go/internal/core/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

const hardhatKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var hardhatAddr = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

func localProfile(chain *contracttest.Chain) *config.Profile {
	return &config.Profile{
		Name:            "local",
		ChainID:         31337,
		ContractAddress: chain.Address.Hex(),
		Endpoints:       []config.EndpointConfig{{Name: "local", URL: "http://127.0.0.1:8545"}},
		Cache:           config.CacheConfig{Backend: cache.BackendNone},
	}
}

func newTestClient(t *testing.T, profile *config.Profile, chain *contracttest.Chain, opts ...client.Option) *client.Client {
	t.Helper()
	opts = append([]client.Option{client.WithLogger(logimpl.NewNop())}, opts...)
	c, err := client.NewWithTransport(profile, chain, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewWithTransport_WiresManagers(t *testing.T) {
	chain := contracttest.New()
	c := newTestClient(t, localProfile(chain), chain)

	assert.NotNil(t, c.Events)
	assert.NotNil(t, c.Tickets)
	assert.NotNil(t, c.Social)
	assert.NotNil(t, c.Protocol)
	assert.NotNil(t, c.ERC20)
	assert.NotNil(t, c.Venues)
	assert.NotNil(t, c.PrivateEvents)
	assert.NotNil(t, c.PlatformFees)
	assert.NotNil(t, c.Refunds)
	assert.NotNil(t, c.Tokens)
	assert.Equal(t, chain.Address, c.ContractAddress())
	assert.Nil(t, c.Indexer())

	friend := common.HexToAddress("0x2000000000000000000000000000000000000002")
	chain.Return(contract.MethodGetFriends, []common.Address{friend})
	friends, err := c.Social.GetFriends(context.Background(), hardhatAddr)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{friend}, friends)
}

func TestClient_WalletLifecycle(t *testing.T) {
	chain := contracttest.New()
	c := newTestClient(t, localProfile(chain), chain)
	assert.False(t, c.IsConnected())
	_, ok := c.Account()
	assert.False(t, ok)

	signer, err := wallet.NewPrivateKeySigner(hardhatKey)
	require.NoError(t, err)
	c.SetSigner(signer)
	assert.True(t, c.IsConnected())
	addr, ok := c.Account()
	require.True(t, ok)
	assert.Equal(t, hardhatAddr, addr)

	c.Disconnect()
	assert.False(t, c.IsConnected())
	_, err = c.Social.AddFriend(context.Background(), common.HexToAddress("0x2000000000000000000000000000000000000002"))
	assert.ErrorIs(t, err, sdkerrors.ErrWalletNotConnected)
	assert.Empty(t, chain.Sent())
}

func TestClient_WithSignerOption(t *testing.T) {
	chain := contracttest.New()
	signer, err := wallet.NewPrivateKeySigner(hardhatKey)
	require.NoError(t, err)
	c := newTestClient(t, localProfile(chain), chain, client.WithSigner(signer))

	addr, ok := c.Account()
	require.True(t, ok)
	assert.Equal(t, hardhatAddr, addr)
}

func TestClient_ChainID(t *testing.T) {
	chain := contracttest.New()
	c := newTestClient(t, localProfile(chain), chain)

	id, err := c.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(31337).Cmp(id))
	assert.NoError(t, c.Ping(context.Background()))
}

func TestClient_IndexEnabled(t *testing.T) {
	chain := contracttest.New()
	profile := localProfile(chain)
	profile.Index = config.IndexConfig{Enabled: true, Backend: "memory"}
	c := newTestClient(t, profile, chain)

	require.NotNil(t, c.Indexer())
	assert.Same(t, c.Indexer(), c.Session().Indexer())
	res, err := c.SyncIndex(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestClient_SyncIndexDisabled(t *testing.T) {
	chain := contracttest.New()
	c := newTestClient(t, localProfile(chain), chain)

	_, err := c.SyncIndex(context.Background())
	require.Error(t, err)
	assert.True(t, sdkerrors.IsValidation(err))
	assert.Equal(t, "index", sdkerrors.FieldOf(err))
}

func TestClient_CloseLeavesCallerTransport(t *testing.T) {
	chain := contracttest.New()
	c, err := client.NewWithTransport(localProfile(chain), chain, client.WithLogger(logimpl.NewNop()))
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.False(t, chain.Closed())
}

func TestNew_Validation(t *testing.T) {
	_, err := client.New(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, sdkerrors.IsValidation(err))

	_, err = client.New(context.Background(), &config.Profile{Name: "x", ChainID: 1})
	require.Error(t, err)
	assert.Equal(t, "endpoints", sdkerrors.FieldOf(err))

	_, err = client.NewWithTransport(&config.Profile{Name: "x", ChainID: 1, ContractAddress: "nope"}, contracttest.New())
	require.Error(t, err)
	assert.Equal(t, "contract_address", sdkerrors.FieldOf(err))
}

func TestNew_UnreachableEndpoint(t *testing.T) {
	profile := &config.Profile{
		Name:      "broken",
		ChainID:   31337,
		Endpoints: []config.EndpointConfig{{Name: "bad", URL: "ftp://127.0.0.1:1"}},
	}
	_, err := client.New(context.Background(), profile, client.WithLogger(logimpl.NewNop()))
	require.Error(t, err)
	assert.True(t, sdkerrors.IsNetwork(err))
}

func TestSwitchProfile_FailureKeepsState(t *testing.T) {
	chain := contracttest.New()
	profile := localProfile(chain)
	c := newTestClient(t, profile, chain)

	err := c.SwitchProfile(context.Background(), &config.Profile{
		Name:      "broken",
		ChainID:   1,
		Endpoints: []config.EndpointConfig{{Name: "bad", URL: "ftp://127.0.0.1:1"}},
	})
	require.Error(t, err)
	assert.True(t, sdkerrors.IsNetwork(err))
	assert.Same(t, profile, c.Profile())
	assert.NoError(t, c.Ping(context.Background()))
}
