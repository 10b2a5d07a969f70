package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Coordinates 经纬度（度）
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// VenueData 场馆信息
type VenueData struct {
	Hash        common.Hash  `json:"hash"`
	Name        string       `json:"name"`
	EventCount  uint64       `json:"event_count"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// VenueCredential 场馆凭证
type VenueCredential struct {
	VenueHash           common.Hash `json:"venue_hash"`
	VenueName           string      `json:"venue_name"`
	EventCount          uint64      `json:"event_count"`
	FirstEventTimestamp uint64      `json:"first_event_timestamp"`
	TokenID             *big.Int    `json:"token_id"`
}
