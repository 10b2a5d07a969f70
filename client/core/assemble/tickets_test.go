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
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
	"github.com/weisyn/assemble-go/pkg/types"
)

func ticketTokenID(eventID int64, tier uint64) *big.Int {
	return codec.MustConstructTokenID(types.TokenIDComponents{
		Type:    types.TokenTypeEventTicket,
		EventID: big.NewInt(eventID),
		TierID:  tier,
	})
}

func TestPurchaseTickets_OverloadSelection(t *testing.T) {
	f := newFixture(t)
	f.chain.Return(contract.MethodCalculatePrice, big.NewInt(3e16))
	m := assemble.NewTicketManager(f.session)
	ctx := context.Background()

	_, err := m.PurchaseTickets(ctx, types.PurchaseTicketsParams{EventID: big.NewInt(1), TierID: 0, Quantity: 3})
	require.NoError(t, err)
	tx := f.lastSent(t)
	assert.Equal(t, contract.MethodPurchaseTickets, tx.Method)
	assert.Len(t, tx.Args, 3)
	assert.Equal(t, 0, big.NewInt(3e16).Cmp(tx.Value), "value defaults to calculatePrice")

	_, err = m.PurchaseTickets(ctx, types.PurchaseTicketsParams{
		EventID:        big.NewInt(1),
		Quantity:       1,
		Referrer:       bob,
		PlatformFeeBps: 250,
		Value:          big.NewInt(12345),
	})
	require.NoError(t, err)
	tx = f.lastSent(t)
	assert.Equal(t, contract.MethodPurchaseTicketsWithFee, tx.Method)
	require.Len(t, tx.Args, 5)
	assert.Equal(t, bob, tx.Args[3])
	assert.Equal(t, 0, big.NewInt(250).Cmp(tx.Args[4].(*big.Int)))
	assert.Equal(t, 0, big.NewInt(12345).Cmp(tx.Value))
	assert.Equal(t, 1, f.chain.CallCount(contract.MethodCalculatePrice))
}

func TestPurchaseTickets_Validation(t *testing.T) {
	f := newFixture(t)
	m := assemble.NewTicketManager(f.session)
	ctx := context.Background()

	_, err := m.PurchaseTickets(ctx, types.PurchaseTicketsParams{EventID: big.NewInt(1), Quantity: 0})
	requireValidation(t, err, "quantity")
	_, err = m.PurchaseTickets(ctx, types.PurchaseTicketsParams{EventID: big.NewInt(1), Quantity: 51})
	requireValidation(t, err, "quantity")
	_, err = m.PurchaseTickets(ctx, types.PurchaseTicketsParams{EventID: big.NewInt(1), Quantity: 1, PlatformFeeBps: 501})
	requireValidation(t, err, "basisPoints")
	_, err = m.PurchaseTickets(ctx, types.PurchaseTicketsParams{Quantity: 1})
	requireValidation(t, err, "eventId")
	f.noRPC(t)
}

func TestPurchaseTickets_RevertName(t *testing.T) {
	f := newFixture(t)
	f.chain.Revert(contract.MethodPurchaseTickets, "BadQty")

	_, err := assemble.NewTicketManager(f.session).PurchaseTickets(context.Background(),
		types.PurchaseTicketsParams{EventID: big.NewInt(1), Quantity: 1, Value: big.NewInt(1)})
	require.Error(t, err)
	assert.True(t, sdkerrors.IsContract(err))
	assert.Equal(t, "BadQty", sdkerrors.RevertNameOf(err))
}

func TestPurchaseTickets_RequiresWallet(t *testing.T) {
	f := newFixture(t, withoutWallet())
	_, err := assemble.NewTicketManager(f.session).PurchaseTickets(context.Background(),
		types.PurchaseTicketsParams{EventID: big.NewInt(1), Quantity: 1})
	requireWalletNotConnected(t, err)
	f.noRPC(t)
}

func TestGenerateTokenID_MatchesCodec(t *testing.T) {
	f := newFixture(t)
	m := assemble.NewTicketManager(f.session)

	id, err := m.GenerateTokenID(big.NewInt(42), 2, 7)
	require.NoError(t, err)
	c := codec.ParseTokenID(id)
	assert.Equal(t, types.TokenTypeEventTicket, c.Type)
	assert.Equal(t, int64(42), c.EventID.Int64())
	assert.Equal(t, uint64(2), c.TierID)
	assert.Equal(t, uint64(7), c.Serial)

	f.chain.Return(contract.MethodGenerateTokenID, id)
	onChain, err := m.GenerateTokenIDOnChain(context.Background(), big.NewInt(42), 2, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, id.Cmp(onChain))
	args := f.chain.Calls(contract.MethodGenerateTokenID)[0].Args
	assert.Equal(t, uint8(types.TokenTypeEventTicket), args[0])
}

func TestGetTicketBalance(t *testing.T) {
	f := newFixture(t)
	want := ticketTokenID(3, 1)
	f.chain.On(contract.MethodBalanceOf, func(_ common.Address, args []interface{}) ([]interface{}, error) {
		if args[0].(common.Address) == alice && args[1].(*big.Int).Cmp(want) == 0 {
			return []interface{}{big.NewInt(2)}, nil
		}
		return []interface{}{big.NewInt(0)}, nil
	})

	bal, err := assemble.NewTicketManager(f.session).GetTicketBalance(context.Background(), alice, big.NewInt(3), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), bal.Int64())
}

func TestGetTickets_WithIndexer(t *testing.T) {
	f := newFixture(t, withIndexer())
	c := f.chain
	held, sold := ticketTokenID(1, 0), ticketTokenID(2, 0)
	badge := codec.MustConstructTokenID(types.TokenIDComponents{Type: types.TokenTypeAttendanceBadge, EventID: big.NewInt(1)})
	c.AddLogs(
		c.MakeLog(contract.EventTransfer, 10, []interface{}{alice, common.Address{}, alice}, held, big.NewInt(2)),
		c.MakeLog(contract.EventTransfer, 11, []interface{}{alice, common.Address{}, alice}, sold, big.NewInt(1)),
		c.MakeLog(contract.EventTransfer, 12, []interface{}{alice, alice, bob}, sold, big.NewInt(1)),
		c.MakeLog(contract.EventTransfer, 13, []interface{}{alice, common.Address{}, alice}, badge, big.NewInt(1)),
	)
	c.On(contract.MethodBalanceOf, func(_ common.Address, args []interface{}) ([]interface{}, error) {
		if args[1].(*big.Int).Cmp(held) == 0 {
			return []interface{}{big.NewInt(2)}, nil
		}
		return []interface{}{big.NewInt(0)}, nil
	})
	c.Return(contract.MethodUsedTickets, true)

	resp, err := assemble.NewTicketManager(f.session).GetTickets(context.Background(), alice)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	tk := resp.Tickets[0]
	assert.Equal(t, int64(1), tk.EventID.Int64())
	assert.Equal(t, int64(2), tk.Balance.Int64())
	assert.True(t, tk.IsUsed)
	assert.Equal(t, alice, tk.Owner)
	// 徽章不是门票，不查余额
	assert.Equal(t, 2, c.CallCount(contract.MethodBalanceOf))
}

func TestGetTickets_ScanWithoutIndexer(t *testing.T) {
	f := newFixture(t)
	c := f.chain
	c.Return(contract.MethodNextEventID, big.NewInt(2))
	c.On(contract.MethodTicketTiers, func(_ common.Address, args []interface{}) ([]interface{}, error) {
		if args[1].(*big.Int).Sign() == 0 {
			return []interface{}{"GA", big.NewInt(1), big.NewInt(10), big.NewInt(0), big.NewInt(0), big.NewInt(0), true}, nil
		}
		return []interface{}{"", big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0), false}, nil
	})
	c.Return(contract.MethodBalanceOf, big.NewInt(1))
	c.Return(contract.MethodUsedTickets, false)

	resp, err := assemble.NewTicketManager(f.session).GetTickets(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, resp.Tickets, 1)
	assert.Equal(t, 0, ticketTokenID(1, 0).Cmp(resp.Tickets[0].TokenID))
}

func TestTransferTickets(t *testing.T) {
	f := newFixture(t)
	m := assemble.NewTicketManager(f.session)

	_, err := m.TransferTickets(context.Background(), bob, big.NewInt(5), 1, 2)
	require.NoError(t, err)
	tx := f.lastSent(t)
	assert.Equal(t, contract.MethodTransfer, tx.Method)
	assert.Equal(t, hardhatAddr, tx.Args[0])
	assert.Equal(t, bob, tx.Args[1])
	assert.Equal(t, 0, ticketTokenID(5, 1).Cmp(tx.Args[2].(*big.Int)))

	_, err = m.TransferTickets(context.Background(), bob, big.NewInt(5), 1, 0)
	requireValidation(t, err, "amount")
	_, err = m.TransferTickets(context.Background(), common.Address{}, big.NewInt(5), 1, 1)
	requireValidation(t, err, "recipient")
}

func TestCheckInVariants(t *testing.T) {
	f := newFixture(t)
	m := assemble.NewTicketManager(f.session)
	ctx := context.Background()

	_, err := m.CheckIn(ctx, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, contract.MethodCheckIn, f.lastSent(t).Method)

	_, err = m.CheckInWithTicket(ctx, big.NewInt(1), ticketTokenID(1, 0))
	require.NoError(t, err)
	assert.Equal(t, contract.MethodCheckInWithTicket, f.lastSent(t).Method)

	_, err = m.CheckInDelegate(ctx, types.CheckInParams{EventID: big.NewInt(1), TicketTokenID: ticketTokenID(1, 0), Attendee: alice})
	require.NoError(t, err)
	tx := f.lastSent(t)
	assert.Equal(t, contract.MethodCheckInDelegate, tx.Method)
	assert.Equal(t, alice, tx.Args[2])

	_, err = m.CheckInWithTicket(ctx, big.NewInt(1), nil)
	requireValidation(t, err, "ticketTokenId")
	_, err = m.CheckInDelegate(ctx, types.CheckInParams{EventID: big.NewInt(1), TicketTokenID: big.NewInt(1)})
	requireValidation(t, err, "attendee")
}

func TestTicketReads(t *testing.T) {
	f := newFixture(t)
	f.chain.Return(contract.MethodIsValidTicketForEvent, true)
	f.chain.Return(contract.MethodUsedTickets, true)
	f.chain.Return(contract.MethodTotalSupply, big.NewInt(77))
	f.chain.Return(contract.MethodGetRefundAmounts, big.NewInt(5), big.NewInt(6))
	m := assemble.NewTicketManager(f.session)
	ctx := context.Background()
	id := ticketTokenID(1, 0)

	ok, err := m.IsValidTicketForEvent(ctx, id, big.NewInt(1))
	require.NoError(t, err)
	assert.True(t, ok)

	used, err := m.IsTicketUsed(ctx, id)
	require.NoError(t, err)
	assert.True(t, used)

	supply, err := m.TotalSupply(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(77), supply.Int64())

	amounts, err := m.GetRefundAmounts(ctx, big.NewInt(1), alice)
	require.NoError(t, err)
	assert.Equal(t, int64(11), amounts.Total().Int64())

	_, err = m.TotalSupply(ctx, big.NewInt(-1))
	requireValidation(t, err, "tokenId")
}

func TestClaimRefunds(t *testing.T) {
	f := newFixture(t)
	m := assemble.NewTicketManager(f.session)

	_, err := m.ClaimRefund(context.Background(), big.NewInt(9))
	require.NoError(t, err)
	assert.Equal(t, contract.MethodClaimTicketRefund, f.lastSent(t).Method)

	_, err = m.ClaimTipRefund(context.Background(), big.NewInt(9))
	require.NoError(t, err)
	assert.Equal(t, contract.MethodClaimTipRefund, f.lastSent(t).Method)
}
