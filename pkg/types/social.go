package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Comment 活动评论
type Comment struct {
	ID        *big.Int       `json:"id"`
	EventID   *big.Int       `json:"event_id"`
	Author    common.Address `json:"author"`
	Content   string         `json:"content"`
	ParentID  *big.Int       `json:"parent_id"`
	Timestamp uint64         `json:"timestamp"`
	Likes     uint64         `json:"likes"`
	IsDeleted bool           `json:"is_deleted"`
}

// IsReply 是否为回复
func (c *Comment) IsReply() bool {
	return c.ParentID != nil && c.ParentID.Sign() != 0
}

// CommentWithReplies 顶层评论及其回复
type CommentWithReplies struct {
	*Comment
	Replies []*Comment `json:"replies"`
}

// CommentsResponse 评论查询结果
type CommentsResponse struct {
	Comments []*CommentWithReplies `json:"comments"`
	Total    int                   `json:"total"`
}

// PaymentSplit 收款分账
type PaymentSplit struct {
	Recipient   common.Address `json:"recipient"`
	BasisPoints uint64         `json:"basis_points"`
}
