package assemble_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/assemble-go/client/core/assemble"
	"github.com/weisyn/assemble-go/client/core/contract"
	"github.com/weisyn/assemble-go/pkg/codec"
	"github.com/weisyn/assemble-go/pkg/types"
)

func TestTokenCodecPassthrough(t *testing.T) {
	m := assemble.NewTokenManager(newFixture(t).session)
	c := types.TokenIDComponents{Type: types.TokenTypeOrganizerCred, EventID: big.NewInt(12), TierID: 0, Serial: 3}

	id, err := m.ConstructTokenID(c)
	require.NoError(t, err)
	assert.True(t, c.Equal(m.ParseTokenID(id)))
	assert.True(t, m.IsValidTokenID(id))
	assert.True(t, m.IsSoulboundToken(types.TokenTypeOrganizerCred))
	assert.False(t, m.IsSoulboundToken(types.TokenTypeEventTicket))
	assert.Equal(t, types.TokenTypeOrganizerCred.DisplayName(), m.GetTokenTypeName(types.TokenTypeOrganizerCred))
}

func TestHasAttendanceBadge(t *testing.T) {
	f := newFixture(t)
	badge := codec.MustConstructTokenID(types.TokenIDComponents{Type: types.TokenTypeAttendanceBadge, EventID: big.NewInt(4)})
	f.chain.On(contract.MethodBalanceOf, func(_ common.Address, args []interface{}) ([]interface{}, error) {
		if args[1].(*big.Int).Cmp(badge) == 0 {
			return []interface{}{big.NewInt(1)}, nil
		}
		return []interface{}{big.NewInt(0)}, nil
	})
	m := assemble.NewTokenManager(f.session)

	ok, err := m.HasAttendanceBadge(context.Background(), alice, big.NewInt(4))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.HasOrganizerCredential(context.Background(), alice, big.NewInt(4))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.HasAttendanceBadge(context.Background(), alice, big.NewInt(0))
	requireValidation(t, err, "eventId")
}

func TestTokenBalanceAndSupply(t *testing.T) {
	f := newFixture(t)
	f.chain.Return(contract.MethodBalanceOf, big.NewInt(3))
	f.chain.Return(contract.MethodTotalSupply, big.NewInt(30))
	m := assemble.NewTokenManager(f.session)
	id := ticketTokenID(1, 0)

	bal, err := m.GetTokenBalance(context.Background(), alice, id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), bal.Int64())

	supply, err := m.GetTotalSupply(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(30), supply.Int64())

	_, err = m.GetTokenBalance(context.Background(), common.Address{}, id)
	requireValidation(t, err, "user")
}

func TestGetUserTokens_WithIndexer(t *testing.T) {
	f := newFixture(t, withIndexer())
	c := f.chain
	badge := codec.MustConstructTokenID(types.TokenIDComponents{Type: types.TokenTypeAttendanceBadge, EventID: big.NewInt(2)})
	cred := codec.MustConstructTokenID(types.TokenIDComponents{Type: types.TokenTypeOrganizerCred, EventID: big.NewInt(2)})
	venueHash := codec.VenueHash("Paradiso")
	venue := codec.VenueCredentialTokenID(venueHash, 0)
	gone := codec.MustConstructTokenID(types.TokenIDComponents{Type: types.TokenTypeAttendanceBadge, EventID: big.NewInt(9)})
	mint := func(block uint64, id *big.Int) {
		c.AddLogs(c.MakeLog(contract.EventTransfer, block, []interface{}{alice, common.Address{}, alice}, id, big.NewInt(1)))
	}
	mint(40, badge)
	mint(41, cred)
	mint(42, venue)
	mint(43, ticketTokenID(2, 0))
	mint(44, gone)
	mint(45, badge)
	c.On(contract.MethodBalanceOf, func(_ common.Address, args []interface{}) ([]interface{}, error) {
		if args[1].(*big.Int).Cmp(gone) == 0 {
			return []interface{}{big.NewInt(0)}, nil
		}
		return []interface{}{big.NewInt(1)}, nil
	})
	m := assemble.NewTokenManager(f.session)
	ctx := context.Background()

	all, err := m.GetUserTokens(ctx, alice)
	require.NoError(t, err)
	require.Len(t, all, 3, "tickets and zero-balance tokens are excluded")
	assert.Equal(t, types.TokenTypeAttendanceBadge, all[0].TokenType)
	assert.Equal(t, uint64(1_700_000_000+40*12), all[0].MintedAt, "first receipt block")
	assert.Equal(t, int64(2), all[0].EventID.Int64())

	badges, err := m.GetAttendanceBadges(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, badges, 1)

	creds, err := m.GetOrganizerCredentials(ctx, alice)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, 0, cred.Cmp(creds[0].TokenID))

	venues, err := m.GetVenueCredentials(ctx, alice)
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.Nil(t, venues[0].EventID)
	assert.Equal(t, 0, codec.VenueTokenKey(venueHash).Cmp(venues[0].VenueKey))
}

func TestGetUserTokens_NoIndexer(t *testing.T) {
	f := newFixture(t)
	tokens, err := assemble.NewTokenManager(f.session).GetUserTokens(context.Background(), alice)
	require.NoError(t, err)
	assert.Empty(t, tokens)
	f.noRPC(t)
}
