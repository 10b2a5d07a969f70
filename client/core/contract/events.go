package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// 合约事件的解码结构，配合 Binding.UnpackLog 使用

// TransferLog Transfer(caller, from, to, id, amount)
type TransferLog struct {
	Caller common.Address
	From   common.Address
	To     common.Address
	Id     *big.Int
	Amount *big.Int
}

// EventCreatedLog EventCreated(eventId, organizer, startTime)
type EventCreatedLog struct {
	EventId   *big.Int
	Organizer common.Address
	StartTime *big.Int
}

// EventCancelledLog EventCancelled(eventId, organizer, timestamp)
type EventCancelledLog struct {
	EventId   *big.Int
	Organizer common.Address
	Timestamp *big.Int
}

// TicketPurchasedLog TicketPurchased(eventId, buyer, quantity, price)
type TicketPurchasedLog struct {
	EventId  *big.Int
	Buyer    common.Address
	Quantity *big.Int
	Price    *big.Int
}

// InvitationLog UserInvited / InvitationRevoked(eventId, invitee, organizer)
type InvitationLog struct {
	EventId   *big.Int
	Invitee   common.Address
	Organizer common.Address
}

// RefundClaimedLog RefundClaimed(eventId, user, amount, refundType)
type RefundClaimedLog struct {
	EventId    *big.Int
	User       common.Address
	Amount     *big.Int
	RefundType string
}

// PlatformFeeAllocatedLog PlatformFeeAllocated(eventId, referrer, amount, feeBps)
type PlatformFeeAllocatedLog struct {
	EventId  *big.Int
	Referrer common.Address
	Amount   *big.Int
	FeeBps   *big.Int
}
