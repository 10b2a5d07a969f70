package assemble_test

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/assemble-go/client/core/assemble"
	"github.com/weisyn/assemble-go/client/core/contract"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

func TestAddFriend(t *testing.T) {
	f := newFixture(t)
	m := assemble.NewSocialManager(f.session)

	_, err := m.AddFriend(context.Background(), alice)
	require.NoError(t, err)
	tx := f.lastSent(t)
	assert.Equal(t, contract.MethodAddFriend, tx.Method)
	assert.Equal(t, alice, tx.Args[0])

	_, err = m.AddFriend(context.Background(), hardhatAddr)
	requireValidation(t, err, "friend")
	assert.Contains(t, err.Error(), "Cannot add yourself as a friend")

	_, err = m.AddFriend(context.Background(), common.Address{})
	requireValidation(t, err, "friend")
}

func TestFriendReads(t *testing.T) {
	f := newFixture(t)
	f.chain.Return(contract.MethodGetFriends, []common.Address{alice, bob})
	f.chain.Return(contract.MethodIsFriend, true)
	m := assemble.NewSocialManager(f.session)

	friends, err := m.GetFriends(context.Background(), hardhatAddr)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{alice, bob}, friends)

	ok, err := m.IsFriend(context.Background(), hardhatAddr, alice)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = m.IsFriend(context.Background(), hardhatAddr, common.Address{})
	requireValidation(t, err, "user2")
}

func TestPostComment(t *testing.T) {
	f := newFixture(t)
	m := assemble.NewSocialManager(f.session)
	ctx := context.Background()

	_, err := m.PostComment(ctx, big.NewInt(1), "see you there", nil)
	require.NoError(t, err)
	tx := f.lastSent(t)
	assert.Equal(t, contract.MethodPostComment, tx.Method)
	assert.Equal(t, "see you there", tx.Args[1])
	assert.Equal(t, 0, tx.Args[2].(*big.Int).Sign(), "nil parent becomes 0")

	_, err = m.PostComment(ctx, big.NewInt(1), "reply", big.NewInt(4))
	require.NoError(t, err)
	assert.Equal(t, int64(4), f.lastSent(t).Args[2].(*big.Int).Int64())
}

func TestPostComment_ContentValidation(t *testing.T) {
	f := newFixture(t)
	m := assemble.NewSocialManager(f.session)
	ctx := context.Background()

	_, err := m.PostComment(ctx, big.NewInt(1), "   ", nil)
	requireValidation(t, err, "content")
	assert.Contains(t, err.Error(), "cannot be empty")

	// 按字符计数，1000 个多字节字符可以通过
	_, err = m.PostComment(ctx, big.NewInt(1), strings.Repeat("票", 1001), nil)
	requireValidation(t, err, "content")
	assert.Contains(t, err.Error(), "cannot exceed 1000 characters")
	f.noRPC(t)

	_, err = m.PostComment(ctx, big.NewInt(1), strings.Repeat("票", 1000), nil)
	require.NoError(t, err)
}

func TestGetComment(t *testing.T) {
	f := newFixture(t)
	f.chain.On(contract.MethodGetComment, func(_ common.Address, args []interface{}) ([]interface{}, error) {
		if args[0].(*big.Int).Int64() == 9 {
			return []interface{}{contract.Comment{Timestamp: new(big.Int), ParentId: new(big.Int), Likes: new(big.Int)}}, nil
		}
		return []interface{}{contract.Comment{
			Author:    alice,
			Timestamp: big.NewInt(1_700_000_100),
			Content:   "hello",
			ParentId:  big.NewInt(0),
			Likes:     big.NewInt(3),
		}}, nil
	})
	m := assemble.NewSocialManager(f.session)

	c, err := m.GetComment(context.Background(), big.NewInt(1))
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, alice, c.Author)
	assert.Equal(t, "hello", c.Content)
	assert.Equal(t, uint64(3), c.Likes)
	assert.False(t, c.IsReply())

	missing, err := m.GetComment(context.Background(), big.NewInt(9))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetEventComments_Threads(t *testing.T) {
	f := newFixture(t)
	f.chain.Return(contract.MethodGetEventComments, []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3), big.NewInt(4)})
	parents := map[int64]int64{1: 0, 2: 1, 3: 0, 4: 0}
	f.chain.On(contract.MethodGetComment, func(_ common.Address, args []interface{}) ([]interface{}, error) {
		id := args[0].(*big.Int).Int64()
		if id == 4 {
			return nil, f.chain.RevertError("NoComment")
		}
		return []interface{}{contract.Comment{
			Author:    bob,
			Timestamp: big.NewInt(id),
			Content:   "c",
			ParentId:  big.NewInt(parents[id]),
			Likes:     big.NewInt(0),
		}}, nil
	})

	resp, err := assemble.NewSocialManager(f.session).GetEventComments(context.Background(), big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Comments, 2)
	assert.Equal(t, int64(1), resp.Comments[0].ID.Int64())
	require.Len(t, resp.Comments[0].Replies, 1)
	assert.Equal(t, int64(2), resp.Comments[0].Replies[0].ID.Int64())
	assert.Equal(t, int64(7), resp.Comments[0].Replies[0].EventID.Int64())
	assert.Empty(t, resp.Comments[1].Replies)
}

func TestLikeAndBan(t *testing.T) {
	f := newFixture(t)
	f.chain.Return(contract.MethodHasLikedComment, true)
	m := assemble.NewSocialManager(f.session)
	ctx := context.Background()

	_, err := m.LikeComment(ctx, big.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, contract.MethodLikeComment, f.lastSent(t).Method)

	_, err = m.UnlikeComment(ctx, big.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, contract.MethodUnlikeComment, f.lastSent(t).Method)

	liked, err := m.HasLikedComment(ctx, big.NewInt(2), alice)
	require.NoError(t, err)
	assert.True(t, liked)
	call := f.chain.Calls(contract.MethodHasLikedComment)[0]
	assert.Equal(t, alice, call.Args[1])

	_, err = m.BanUser(ctx, bob, big.NewInt(1))
	require.NoError(t, err)
	tx := f.lastSent(t)
	assert.Equal(t, contract.MethodBanUser, tx.Method)
	assert.Equal(t, bob, tx.Args[0])

	_, err = m.BanUser(ctx, hardhatAddr, big.NewInt(1))
	requireValidation(t, err, "user")

	_, err = m.UnbanUser(ctx, bob, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, contract.MethodUnbanUser, f.lastSent(t).Method)
}

func TestDeleteComment_Revert(t *testing.T) {
	f := newFixture(t)
	f.chain.Revert(contract.MethodDeleteComment, "NotAuth")

	_, err := assemble.NewSocialManager(f.session).DeleteComment(context.Background(), big.NewInt(1), big.NewInt(1))
	require.Error(t, err)
	assert.True(t, sdkerrors.IsContract(err))
	assert.Equal(t, "NotAuth", sdkerrors.RevertNameOf(err))
	assert.Contains(t, err.Error(), "Failed to delete comment")
}

func TestGetPaymentSplits(t *testing.T) {
	f := newFixture(t)
	f.chain.Return(contract.MethodGetPaymentSplits, []contract.PaymentSplit{
		{Recipient: alice, BasisPoints: big.NewInt(7000)},
		{Recipient: bob, BasisPoints: big.NewInt(3000)},
	})

	splits, err := assemble.NewSocialManager(f.session).GetPaymentSplits(context.Background(), big.NewInt(1))
	require.NoError(t, err)
	require.Len(t, splits, 2)
	assert.Equal(t, alice, splits[0].Recipient)
	assert.Equal(t, uint64(7000), splits[0].BasisPoints)
	assert.Equal(t, uint64(3000), splits[1].BasisPoints)
}

func TestGetPendingWithdrawals(t *testing.T) {
	f := newFixture(t)
	f.chain.Return(contract.MethodPendingWithdrawals, big.NewInt(5e17))

	v, err := assemble.NewSocialManager(f.session).GetPendingWithdrawals(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(5e17).Cmp(v))
}

func TestTipEvent_OverloadSelection(t *testing.T) {
	f := newFixture(t)
	m := assemble.NewSocialManager(f.session)
	ctx := context.Background()

	_, err := m.TipEvent(ctx, big.NewInt(1), big.NewInt(1e15), common.Address{}, 0)
	require.NoError(t, err)
	tx := f.lastSent(t)
	assert.Equal(t, contract.MethodTipEvent, tx.Method)
	assert.Equal(t, 0, big.NewInt(1e15).Cmp(tx.Value))

	_, err = m.TipEvent(ctx, big.NewInt(1), big.NewInt(1e15), bob, 100)
	require.NoError(t, err)
	tx = f.lastSent(t)
	assert.Equal(t, contract.MethodTipEventWithFee, tx.Method)
	assert.Equal(t, bob, tx.Args[1])

	_, err = m.TipEvent(ctx, big.NewInt(1), big.NewInt(0), common.Address{}, 0)
	requireValidation(t, err, "amount")
	_, err = m.TipEvent(ctx, big.NewInt(1), big.NewInt(1), bob, 501)
	requireValidation(t, err, "basisPoints")
}

func TestSocialWrites_RequireWallet(t *testing.T) {
	f := newFixture(t, withoutWallet())
	m := assemble.NewSocialManager(f.session)
	ctx := context.Background()

	_, err := m.AddFriend(ctx, alice)
	requireWalletNotConnected(t, err)
	_, err = m.PostComment(ctx, big.NewInt(1), "hi", nil)
	requireWalletNotConnected(t, err)
	_, err = m.TipEvent(ctx, big.NewInt(1), big.NewInt(1), common.Address{}, 0)
	requireWalletNotConnected(t, err)
	f.noRPC(t)
}
