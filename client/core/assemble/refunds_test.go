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
	"github.com/weisyn/assemble-go/pkg/types"
)

const refundWindow = 30 * 24 * 3600

func returnRefunds(f *fixture, cancelled bool, ticket, tip int64) {
	f.chain.Return(contract.MethodEventCancelled, cancelled)
	f.chain.Return(contract.MethodGetRefundAmounts, big.NewInt(ticket), big.NewInt(tip))
	f.chain.Return(contract.MethodRefundClaimDeadline, big.NewInt(refundWindow))
}

func TestGetRefundEligibility(t *testing.T) {
	now := uint64(fixedNow.Unix())
	cases := []struct {
		name      string
		cancelled bool
		ticket    int64
		tip       int64
		canClaim  bool
		reason    string
	}{
		{"not cancelled", false, 5, 0, false, "Event is not cancelled"},
		{"nothing to refund", true, 0, 0, false, "No refunds available"},
		{"claimable", true, 5, 2, true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			returnRefunds(f, tc.cancelled, tc.ticket, tc.tip)

			el, err := assemble.NewRefundManager(f.session).GetRefundEligibility(context.Background(), big.NewInt(1), alice)
			require.NoError(t, err)
			assert.Equal(t, tc.cancelled, el.IsCancelled)
			assert.Equal(t, tc.canClaim, el.CanClaim)
			assert.Equal(t, tc.reason, el.Reason)
			if tc.cancelled {
				assert.Equal(t, now+refundWindow, el.Deadline)
				assert.Equal(t, tc.ticket+tc.tip, el.Amounts.Total().Int64())
			} else {
				assert.Equal(t, 0, f.chain.CallCount(contract.MethodGetRefundAmounts))
			}
		})
	}
}

func TestRefundDeadline_FromIndexedCancellation(t *testing.T) {
	f := newFixture(t, withIndexer())
	c := f.chain
	cancelledAt := fixedNow.Unix() - 40*24*3600
	c.AddLogs(c.MakeLog(contract.EventEventCancelled, 50, []interface{}{big.NewInt(1), alice}, big.NewInt(cancelledAt)))
	returnRefunds(f, true, 5, 0)
	m := assemble.NewRefundManager(f.session)

	deadline, err := m.GetRefundDeadline(context.Background(), big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(cancelledAt+refundWindow), deadline)

	el, err := m.GetRefundEligibility(context.Background(), big.NewInt(1), bob)
	require.NoError(t, err)
	assert.False(t, el.CanClaim)
	assert.Equal(t, "Refund claim deadline has passed", el.Reason)

	ok, err := m.CanClaimRefund(context.Background(), big.NewInt(1), bob)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClaimAllRefunds_OnlyNonZero(t *testing.T) {
	f := newFixture(t)
	returnRefunds(f, true, 5, 0)

	hashes, err := assemble.NewRefundManager(f.session).ClaimAllRefunds(context.Background(), big.NewInt(1))
	require.NoError(t, err)
	require.Len(t, hashes, 1)
	assert.Equal(t, contract.MethodClaimTicketRefund, f.lastSent(t).Method)
	assert.Equal(t, hardhatAddr, f.chain.Calls(contract.MethodGetRefundAmounts)[0].Args[1])
}

func TestClaimAllRefunds_Both(t *testing.T) {
	f := newFixture(t)
	returnRefunds(f, true, 5, 3)

	hashes, err := assemble.NewRefundManager(f.session).ClaimAllRefunds(context.Background(), big.NewInt(1))
	require.NoError(t, err)
	require.Len(t, hashes, 2)
	sent := f.chain.Sent()
	assert.Equal(t, contract.MethodClaimTicketRefund, sent[0].Method)
	assert.Equal(t, contract.MethodClaimTipRefund, sent[1].Method)
	assert.NotEqual(t, hashes[0], hashes[1])
}

func TestClaimRefund_WalletAndValidation(t *testing.T) {
	f := newFixture(t, withoutWallet())
	m := assemble.NewRefundManager(f.session)
	_, err := m.ClaimTicketRefund(context.Background(), big.NewInt(1))
	requireWalletNotConnected(t, err)
	_, err = m.ClaimAllRefunds(context.Background(), big.NewInt(1))
	requireWalletNotConnected(t, err)

	f = newFixture(t)
	_, err = assemble.NewRefundManager(f.session).ClaimTipRefund(context.Background(), big.NewInt(0))
	requireValidation(t, err, "eventId")
	f.noRPC(t)
}

func TestHasClaimedRefunds_Heuristic(t *testing.T) {
	f := newFixture(t)
	returnRefunds(f, true, 0, 4)

	st, err := assemble.NewRefundManager(f.session).HasClaimedRefunds(context.Background(), big.NewInt(1), alice)
	require.NoError(t, err)
	assert.True(t, st.TicketRefundClaimed)
	assert.False(t, st.TipRefundClaimed)
}

func TestRefundHistory_WithIndexer(t *testing.T) {
	f := newFixture(t, withIndexer())
	c := f.chain
	c.AddLogs(
		c.MakeLog(contract.EventRefundClaimed, 60, []interface{}{big.NewInt(1), alice}, big.NewInt(500), "tip"),
		c.MakeLog(contract.EventRefundClaimed, 61, []interface{}{big.NewInt(2), alice}, big.NewInt(700), "ticket"),
		c.MakeLog(contract.EventRefundClaimed, 62, []interface{}{big.NewInt(1), bob}, big.NewInt(900), "ticket"),
	)
	m := assemble.NewRefundManager(f.session)

	history, err := m.GetRefundHistory(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, types.RefundTip, history[0].RefundType)
	assert.Equal(t, int64(500), history[0].Amount.Int64())
	assert.Equal(t, uint64(1_700_000_000+60*12), history[0].ClaimedAt)
	assert.Equal(t, types.RefundTicket, history[1].RefundType)

	st, err := m.HasClaimedRefunds(context.Background(), big.NewInt(1), alice)
	require.NoError(t, err)
	assert.True(t, st.TipRefundClaimed)
	assert.False(t, st.TicketRefundClaimed)
	assert.Equal(t, 0, c.CallCount(contract.MethodGetRefundAmounts))
}

func TestEstimateRefundGas(t *testing.T) {
	f := newFixture(t)
	est, err := assemble.NewRefundManager(f.session).EstimateRefundGas(context.Background(), big.NewInt(1), types.RefundTip)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000), est.Gas)
	assert.Equal(t, 0, big.NewInt(2e9).Cmp(est.GasPrice))
	assert.Equal(t, 0, big.NewInt(2e14).Cmp(est.Cost))

	f.chain.Revert(contract.MethodClaimTicketRefund, "NoRefund")
	_, err = assemble.NewRefundManager(f.session).EstimateRefundGas(context.Background(), big.NewInt(1), types.RefundTicket)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to estimate gas for refund")
}

func TestGetTotalRefundsAvailable(t *testing.T) {
	f := newFixture(t, withIndexer())
	c := f.chain
	c.AddLogs(
		c.MakeLog(contract.EventEventCancelled, 70, []interface{}{big.NewInt(1), bob}, big.NewInt(1_700_000_000)),
		c.MakeLog(contract.EventEventCancelled, 71, []interface{}{big.NewInt(3), bob}, big.NewInt(1_700_000_000)),
	)
	c.On(contract.MethodGetRefundAmounts, func(_ common.Address, args []interface{}) ([]interface{}, error) {
		if args[0].(*big.Int).Int64() == 1 {
			return []interface{}{big.NewInt(10), big.NewInt(1)}, nil
		}
		return []interface{}{big.NewInt(20), big.NewInt(0)}, nil
	})

	total, err := assemble.NewRefundManager(f.session).GetTotalRefundsAvailable(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, int64(31), total.Int64())
	assert.Equal(t, 2, c.CallCount(contract.MethodGetRefundAmounts))

	nf := newFixture(t)
	zero, err := assemble.NewRefundManager(nf.session).GetTotalRefundsAvailable(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, 0, zero.Sign())
}
