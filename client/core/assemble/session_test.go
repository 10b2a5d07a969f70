package assemble_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/assemble-go/client/core/assemble"
	"github.com/weisyn/assemble-go/client/core/cache"
	"github.com/weisyn/assemble-go/client/core/contract"
	"github.com/weisyn/assemble-go/client/core/contract/contracttest"
	"github.com/weisyn/assemble-go/client/core/indexer"
	"github.com/weisyn/assemble-go/client/core/wallet"
	badgerconfig "github.com/weisyn/assemble-go/internal/config/storage/badger"
	"github.com/weisyn/assemble-go/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

const hardhatKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	hardhatAddr = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	alice       = common.HexToAddress("0x2000000000000000000000000000000000000002")
	bob         = common.HexToAddress("0x3000000000000000000000000000000000000003")
	tokenA      = common.HexToAddress("0x4000000000000000000000000000000000000004")

	// 固定时钟：2023-11-14T22:13:20Z
	fixedNow = time.Unix(1_700_000_000, 0)
)

type fixture struct {
	chain   *contracttest.Chain
	binding *contract.Binding
	session *assemble.Session
	signer  *wallet.PrivateKeySigner
}

type fixtureOption func(t *testing.T, f *fixture, opts *[]assemble.SessionOption)

// withoutWallet 不连接钱包
func withoutWallet() fixtureOption {
	return func(_ *testing.T, f *fixture, _ *[]assemble.SessionOption) { f.signer = nil }
}

// withIndexer 启用内存 badger 索引
func withIndexer() fixtureOption {
	return func(t *testing.T, f *fixture, opts *[]assemble.SessionOption) {
		store, err := badger.New(badgerconfig.New(nil), nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		ix, err := indexer.New(f.binding, store, indexer.Config{})
		require.NoError(t, err)
		*opts = append(*opts, assemble.WithIndexer(ix))
	}
}

// withCache 为 binding 挂上内存缓存，需放在 withIndexer 之前
func withCache() fixtureOption {
	return func(t *testing.T, f *fixture, _ *[]assemble.SessionOption) {
		mem, err := cache.NewMemory(time.Minute, 0)
		require.NoError(t, err)
		t.Cleanup(func() { _ = mem.Close() })
		f.binding, err = contract.NewBinding(f.chain.Address, f.chain,
			contract.WithReceiptPollInterval(time.Millisecond),
			contract.WithCache(mem),
		)
		require.NoError(t, err)
	}
}

func newFixture(t *testing.T, options ...fixtureOption) *fixture {
	t.Helper()
	chain := contracttest.New()
	binding, err := contract.NewBinding(chain.Address, chain, contract.WithReceiptPollInterval(time.Millisecond))
	require.NoError(t, err)
	signer, err := wallet.NewPrivateKeySigner(hardhatKey)
	require.NoError(t, err)

	f := &fixture{chain: chain, binding: binding, signer: signer}
	opts := []assemble.SessionOption{assemble.WithClock(func() time.Time { return fixedNow })}
	for _, o := range options {
		o(t, f, &opts)
	}
	if f.signer != nil {
		opts = append(opts, assemble.WithSigner(f.signer))
	}
	f.session = assemble.NewSession(f.binding, opts...)
	return f
}

// lastSent 最后一笔交易，必须存在
func (f *fixture) lastSent(t *testing.T) contracttest.SentTx {
	t.Helper()
	tx, ok := f.chain.LastSent()
	require.True(t, ok, "no transaction sent")
	return tx
}

// noRPC 断言没有发出任何调用或交易
func (f *fixture) noRPC(t *testing.T) {
	t.Helper()
	assert.Equal(t, 0, f.chain.TotalCalls())
	assert.Empty(t, f.chain.Sent())
}

// returnEvent 注册一个存在的活动
func (f *fixture) returnEvent(id int64, organizer common.Address, visibility, venueID uint8, cancelled bool) {
	f.chain.On(contract.MethodEvents, func(_ common.Address, args []interface{}) ([]interface{}, error) {
		return []interface{}{big.NewInt(1e16), uint64(1_800_000_000 + id), uint32(100), uint16(venueID), visibility, uint8(0)}, nil
	})
	f.chain.On(contract.MethodEventOrganizers, func(_ common.Address, args []interface{}) ([]interface{}, error) {
		if args[0].(*big.Int).Int64() <= id {
			return []interface{}{organizer}, nil
		}
		return []interface{}{common.Address{}}, nil
	})
	f.chain.Return(contract.MethodEventCancelled, cancelled)
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, sdkerrors.IsValidation(err), "want validation error, got %v", err)
	if field != "" {
		assert.Equal(t, field, sdkerrors.FieldOf(err))
	}
}

func requireWalletNotConnected(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, sdkerrors.ErrWalletNotConnected)
}

func TestSession_SignerLifecycle(t *testing.T) {
	f := newFixture(t)
	addr, ok := f.session.Account()
	require.True(t, ok)
	assert.Equal(t, hardhatAddr, addr)

	f.session.SetSigner(nil)
	_, ok = f.session.Account()
	assert.False(t, ok)
	assert.Nil(t, f.session.Signer())
}

func TestSession_RegisterVenue(t *testing.T) {
	f := newFixture(t)
	h1 := f.session.RegisterVenue("Madison Square Garden")
	h2 := f.session.RegisterVenue("Madison Square Garden")
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, common.Hash{}, h1)
}
