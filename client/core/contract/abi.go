// Package contract 提供 Assemble 合约的 ABI 绑定
//
// 合约 ABI 内嵌在二进制中，由 assemble.abi.json（主合约）与 assemble_ext.abi.json
// （ERC-20 支付与记账函数）合并而成。重载函数按 go-ethereum 的规则命名，
// 例如 purchaseTickets 的五参数版本为 purchaseTickets0。
package contract

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed abi/assemble.abi.json
var assembleABIJSON []byte

//go:embed abi/assemble_ext.abi.json
var assembleExtABIJSON []byte

var (
	parsedOnce sync.Once
	parsedABI  abi.ABI
	parseErr   error
)

// ParsedABI 返回合并后的合约 ABI
func ParsedABI() (abi.ABI, error) {
	parsedOnce.Do(func() {
		merged, err := mergeABI(assembleABIJSON, assembleExtABIJSON)
		if err != nil {
			parseErr = err
			return
		}
		parsedABI, parseErr = abi.JSON(bytes.NewReader(merged))
	})
	return parsedABI, parseErr
}

// MustABI 返回合并后的合约 ABI，解析失败时 panic
func MustABI() abi.ABI {
	parsed, err := ParsedABI()
	if err != nil {
		panic(fmt.Sprintf("parse embedded assemble abi: %v", err))
	}
	return parsed
}

// mergeABI 把多个 ABI 数组按顺序拼接
func mergeABI(docs ...[]byte) ([]byte, error) {
	var all []json.RawMessage
	for i, doc := range docs {
		var entries []json.RawMessage
		if err := json.Unmarshal(doc, &entries); err != nil {
			return nil, fmt.Errorf("decode abi document %d: %w", i, err)
		}
		all = append(all, entries...)
	}
	return json.Marshal(all)
}

// 合约常量
const (
	MethodMaxPaymentSplits    = "MAX_PAYMENT_SPLITS"
	MethodMaxPlatformFee      = "MAX_PLATFORM_FEE"
	MethodMaxProtocolFee      = "MAX_PROTOCOL_FEE"
	MethodMaxTicketQuantity   = "MAX_TICKET_QUANTITY"
	MethodRefundClaimDeadline = "REFUND_CLAIM_DEADLINE"
	MethodProtocolFeeBps      = "protocolFeeBps"
	MethodFeeTo               = "feeTo"
	MethodNextEventID         = "nextEventId"
	MethodNextCommentID       = "nextCommentId"
)

// 活动
const (
	MethodCreateEvent      = "createEvent"
	MethodEvents           = "events"
	MethodEventOrganizers  = "eventOrganizers"
	MethodEventCancelled   = "eventCancelled"
	MethodIsEventCancelled = "isEventCancelled"
	MethodCancelEvent      = "cancelEvent"
	MethodTicketTiers      = "ticketTiers"
	MethodGetPaymentSplits = "getPaymentSplits"
	MethodInviteToEvent    = "inviteToEvent"
	MethodRemoveInvitation = "removeInvitation"
	MethodIsInvited        = "isInvited"
	MethodEventInvites     = "eventInvites"
	MethodUpdateRSVP       = "updateRSVP"
	MethodGetUserRSVP      = "getUserRSVP"
	MethodRSVPs            = "rsvps"
	MethodHasAttended      = "hasAttended"
	MethodVenueEventCount  = "venueEventCount"
)

// 门票与代币
const (
	MethodPurchaseTickets          = "purchaseTickets"
	MethodPurchaseTicketsWithFee   = "purchaseTickets0"
	MethodCalculatePrice           = "calculatePrice"
	MethodBalanceOf                = "balanceOf"
	MethodTotalSupply              = "totalSupply"
	MethodTransfer                 = "transfer"
	MethodApprove                  = "approve"
	MethodAllowance                = "allowance"
	MethodSetOperator              = "setOperator"
	MethodIsOperator               = "isOperator"
	MethodUseTicket                = "useTicket"
	MethodUsedTickets              = "usedTickets"
	MethodCheckIn                  = "checkIn"
	MethodCheckInWithTicket        = "checkInWithTicket"
	MethodCheckInDelegate          = "checkInDelegate"
	MethodIsValidTicketForEvent    = "isValidTicketForEvent"
	MethodGenerateTokenID          = "generateTokenId"
	MethodClaimOrganizerCredential = "claimOrganizerCredential"
	MethodGetRefundAmounts         = "getRefundAmounts"
	MethodClaimTicketRefund        = "claimTicketRefund"
	MethodClaimTipRefund           = "claimTipRefund"
	MethodUserTicketPayments       = "userTicketPayments"
	MethodUserTipPayments          = "userTipPayments"
	MethodTipEventWithFee          = "tipEvent"
	MethodTipEvent                 = "tipEvent0"
	MethodPendingWithdrawals       = "pendingWithdrawals"
	MethodClaimFunds               = "claimFunds"
	MethodTotalReferralFees        = "totalReferralFees"
	MethodSetProtocolFee           = "setProtocolFee"
	MethodSetFeeTo                 = "setFeeTo"
)

// ERC-20 支付
const (
	MethodPurchaseTicketsERC20        = "purchaseTicketsERC20"
	MethodPurchaseTicketsERC20WithFee = "purchaseTicketsERC200"
	MethodTipEventERC20               = "tipEventERC20"
	MethodTipEventERC20WithFee        = "tipEventERC200"
	MethodClaimERC20Funds             = "claimERC20Funds"
	MethodPendingERC20Withdrawals     = "pendingERC20Withdrawals"
	MethodSupportedTokens             = "supportedTokens"
)

// 社交
const (
	MethodAddFriend        = "addFriend"
	MethodRemoveFriend     = "removeFriend"
	MethodGetFriends       = "getFriends"
	MethodIsFriend         = "isFriend"
	MethodPostComment      = "postComment"
	MethodDeleteComment    = "deleteComment"
	MethodLikeComment      = "likeComment"
	MethodUnlikeComment    = "unlikeComment"
	MethodGetComment       = "getComment"
	MethodGetEventComments = "getEventComments"
	MethodHasLikedComment  = "hasLikedComment"
	MethodBanUser          = "banUser"
	MethodUnbanUser        = "unbanUser"
)

// 事件
const (
	EventTransfer             = "Transfer"
	EventEventCreated         = "EventCreated"
	EventEventCancelled       = "EventCancelled"
	EventTicketPurchased      = "TicketPurchased"
	EventTicketUsed           = "TicketUsed"
	EventUserInvited          = "UserInvited"
	EventInvitationRevoked    = "InvitationRevoked"
	EventRefundClaimed        = "RefundClaimed"
	EventPlatformFeeAllocated = "PlatformFeeAllocated"
	EventEventTipped          = "EventTipped"
	EventRSVPUpdated          = "RSVPUpdated"
	EventCommentPosted        = "CommentPosted"
	EventAttendanceVerified   = "AttendanceVerified"
)
