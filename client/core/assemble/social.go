package assemble

import (
	"context"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/assemble-go/client/core/contract"
	logpkg "github.com/weisyn/assemble-go/internal/core/infrastructure/log"
	logInterface "github.com/weisyn/assemble-go/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/assemble-go/pkg/sdkerrors"
	"github.com/weisyn/assemble-go/pkg/types"
	"github.com/weisyn/assemble-go/pkg/utils"
)

// SocialManager 好友、评论、封禁与打赏
type SocialManager struct {
	s      *Session
	logger logInterface.Logger
}

// NewSocialManager 创建社交管理器
func NewSocialManager(s *Session) *SocialManager {
	return &SocialManager{s: s, logger: logpkg.WithModule(s.logger, "assemble.social")}
}

// ===== 好友 =====

// AddFriend 添加好友，不能添加自己
func (m *SocialManager) AddFriend(ctx context.Context, friend common.Address) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.RequireNonZeroAddress(friend, "friend"); err != nil {
		return common.Hash{}, err
	}
	if friend == signer.Address() {
		return common.Hash{}, sdkerrors.Validation("Cannot add yourself as a friend", "friend")
	}
	return m.s.transact(ctx, signer, "Failed to add friend", nil, contract.MethodAddFriend, friend)
}

// RemoveFriend 删除好友
func (m *SocialManager) RemoveFriend(ctx context.Context, friend common.Address) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.RequireNonZeroAddress(friend, "friend"); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to remove friend", nil, contract.MethodRemoveFriend, friend)
}

// GetFriends 用户的好友列表
func (m *SocialManager) GetFriends(ctx context.Context, user common.Address) ([]common.Address, error) {
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return nil, err
	}
	out, err := m.s.call(ctx, "Failed to get friends", contract.MethodGetFriends, user)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	friends, _ := out[0].([]common.Address)
	return friends, nil
}

// IsFriend 两个地址是否为好友
func (m *SocialManager) IsFriend(ctx context.Context, user1, user2 common.Address) (bool, error) {
	if err := utils.RequireNonZeroAddress(user1, "user1"); err != nil {
		return false, err
	}
	if err := utils.RequireNonZeroAddress(user2, "user2"); err != nil {
		return false, err
	}
	out, err := m.s.call(ctx, "Failed to check friendship", contract.MethodIsFriend, user1, user2)
	if err != nil {
		return false, err
	}
	return boolOut(out, 0), nil
}

// ===== 评论 =====

// PostComment 发表评论；parentID 为 nil 或 0 表示顶层评论
func (m *SocialManager) PostComment(ctx context.Context, eventID *big.Int, content string, parentID *big.Int) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if strings.TrimSpace(content) == "" {
		return common.Hash{}, sdkerrors.Validation("Comment content cannot be empty", "content")
	}
	if utf8.RuneCountInString(content) > utils.MaxCommentLength {
		return common.Hash{}, sdkerrors.Validation("Comment content cannot exceed 1000 characters", "content")
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return common.Hash{}, err
	}
	if parentID == nil {
		parentID = new(big.Int)
	}
	if err := requireUint256(parentID, "parentId"); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to post comment", nil, contract.MethodPostComment, eventID, content, parentID)
}

// DeleteComment 删除评论
func (m *SocialManager) DeleteComment(ctx context.Context, commentID, eventID *big.Int) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := requireUint256(commentID, "commentId"); err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to delete comment", nil, contract.MethodDeleteComment, commentID, eventID)
}

// LikeComment 点赞
func (m *SocialManager) LikeComment(ctx context.Context, commentID *big.Int) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := requireUint256(commentID, "commentId"); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to like comment", nil, contract.MethodLikeComment, commentID)
}

// UnlikeComment 取消点赞
func (m *SocialManager) UnlikeComment(ctx context.Context, commentID *big.Int) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := requireUint256(commentID, "commentId"); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to unlike comment", nil, contract.MethodUnlikeComment, commentID)
}

// GetComments 活动的评论 ID 列表
func (m *SocialManager) GetComments(ctx context.Context, eventID *big.Int) ([]*big.Int, error) {
	if err := utils.ValidateEventID(eventID); err != nil {
		return nil, err
	}
	return m.commentIDs(ctx, "Failed to get comments", eventID)
}

func (m *SocialManager) commentIDs(ctx context.Context, failMsg string, eventID *big.Int) ([]*big.Int, error) {
	out, err := m.s.call(ctx, failMsg, contract.MethodGetEventComments, eventID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	ids, _ := out[0].([]*big.Int)
	return ids, nil
}

// GetComment 读取评论；作者为零地址（评论不存在）时返回 nil
func (m *SocialManager) GetComment(ctx context.Context, commentID *big.Int) (*types.Comment, error) {
	if err := requireUint256(commentID, "commentId"); err != nil {
		return nil, err
	}
	return m.comment(ctx, commentID)
}

func (m *SocialManager) comment(ctx context.Context, commentID *big.Int) (*types.Comment, error) {
	out, err := m.s.call(ctx, "Failed to get comment", contract.MethodGetComment, commentID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	raw := *abiConvert[contract.Comment](out[0])
	if raw.Author == (common.Address{}) {
		return nil, nil
	}
	return &types.Comment{
		ID:        new(big.Int).Set(commentID),
		Author:    raw.Author,
		Content:   raw.Content,
		ParentID:  nonNil(raw.ParentId),
		Timestamp: clampUint64(raw.Timestamp),
		Likes:     clampUint64(raw.Likes),
		IsDeleted: raw.IsDeleted,
	}, nil
}

// GetEventComments 按楼层组织的评论：顶层评论及其直接回复
//
// 单条评论读取失败时跳过；Total 为成功读取的评论总数（含回复）。
func (m *SocialManager) GetEventComments(ctx context.Context, eventID *big.Int) (*types.CommentsResponse, error) {
	const failMsg = "Failed to get event comments"
	if err := utils.ValidateEventID(eventID); err != nil {
		return nil, err
	}
	ids, err := m.commentIDs(ctx, failMsg, eventID)
	if err != nil {
		return nil, err
	}

	var comments []*types.Comment
	for _, id := range ids {
		c, err := m.comment(ctx, id)
		if err != nil {
			if sdkerrors.IsNetwork(err) {
				return nil, err
			}
			m.logger.Warnf("读取评论 %s 失败: %v", id, err)
			continue
		}
		if c == nil {
			continue
		}
		c.EventID = new(big.Int).Set(eventID)
		comments = append(comments, c)
	}

	threads := make([]*types.CommentWithReplies, 0, len(comments))
	byID := make(map[string]*types.CommentWithReplies)
	for _, c := range comments {
		if c.IsReply() {
			continue
		}
		t := &types.CommentWithReplies{Comment: c, Replies: []*types.Comment{}}
		threads = append(threads, t)
		byID[c.ID.String()] = t
	}
	for _, c := range comments {
		if !c.IsReply() {
			continue
		}
		if parent, ok := byID[c.ParentID.String()]; ok {
			parent.Replies = append(parent.Replies, c)
		}
	}
	return &types.CommentsResponse{Comments: threads, Total: len(comments)}, nil
}

// HasLikedComment 用户是否点赞过评论
func (m *SocialManager) HasLikedComment(ctx context.Context, commentID *big.Int, user common.Address) (bool, error) {
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return false, err
	}
	if err := requireUint256(commentID, "commentId"); err != nil {
		return false, err
	}
	out, err := m.s.call(ctx, "Failed to check comment like status", contract.MethodHasLikedComment, commentID, user)
	if err != nil {
		return false, err
	}
	return boolOut(out, 0), nil
}

// ===== 封禁 =====

// BanUser 在活动中封禁用户，不能封禁自己
func (m *SocialManager) BanUser(ctx context.Context, user common.Address, eventID *big.Int) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return common.Hash{}, err
	}
	if user == signer.Address() {
		return common.Hash{}, sdkerrors.Validation("Cannot ban yourself", "user")
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to ban user", nil, contract.MethodBanUser, user, eventID)
}

// UnbanUser 解除封禁
func (m *SocialManager) UnbanUser(ctx context.Context, user common.Address, eventID *big.Int) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return common.Hash{}, err
	}
	return m.s.transact(ctx, signer, "Failed to unban user", nil, contract.MethodUnbanUser, user, eventID)
}

// ===== 分账与打赏 =====

// GetPaymentSplits 活动的收入分账
func (m *SocialManager) GetPaymentSplits(ctx context.Context, eventID *big.Int) ([]types.PaymentSplit, error) {
	if err := utils.ValidateEventID(eventID); err != nil {
		return nil, err
	}
	out, err := m.s.call(ctx, "Failed to get payment splits", contract.MethodGetPaymentSplits, eventID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	raw := *abiConvert[[]contract.PaymentSplit](out[0])
	splits := make([]types.PaymentSplit, len(raw))
	for i, sp := range raw {
		splits[i] = types.PaymentSplit{Recipient: sp.Recipient, BasisPoints: clampUint64(sp.BasisPoints)}
	}
	return splits, nil
}

// GetPendingWithdrawals 待提取的 ETH
func (m *SocialManager) GetPendingWithdrawals(ctx context.Context, user common.Address) (*big.Int, error) {
	if err := utils.RequireNonZeroAddress(user, "user"); err != nil {
		return nil, err
	}
	out, err := m.s.call(ctx, "Failed to get pending withdrawals", contract.MethodPendingWithdrawals, user)
	if err != nil {
		return nil, err
	}
	return bigOut(out, 0), nil
}

// TipEvent 打赏活动
//
// 设置推荐人或平台费时调用 tipEvent(eventId, referrer, platformFeeBps)，否则调用单参数版本。
func (m *SocialManager) TipEvent(ctx context.Context, eventID, amount *big.Int, referrer common.Address, platformFeeBps uint64) (common.Hash, error) {
	signer, err := m.s.requireSigner()
	if err != nil {
		return common.Hash{}, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return common.Hash{}, sdkerrors.Validation("Tip amount must be greater than 0", "amount")
	}
	if err := utils.ValidateBasisPoints(platformFeeBps, utils.MaxPlatformFeeBps); err != nil {
		return common.Hash{}, err
	}
	if err := utils.ValidateEventID(eventID); err != nil {
		return common.Hash{}, err
	}
	if referrer != (common.Address{}) || platformFeeBps > 0 {
		return m.s.transact(ctx, signer, "Failed to tip event", amount, contract.MethodTipEventWithFee, eventID, referrer, u64(platformFeeBps))
	}
	return m.s.transact(ctx, signer, "Failed to tip event", amount, contract.MethodTipEvent, eventID)
}
