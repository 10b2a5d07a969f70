package codec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/weisyn/assemble-go/pkg/types"
)

// VenueHash 场馆名的 keccak256（UTF-8 字节，区分大小写，不做归一化）
func VenueHash(name string) common.Hash {
	return crypto.Keccak256Hash([]byte(name))
}

// VenueTokenKey 场馆哈希在 token id 中的键，取低 96 位
func VenueTokenKey(hash common.Hash) *big.Int {
	h := new(uint256.Int).SetBytes32(hash[:])
	return h.And(h, mask96).ToBig()
}

// VenueCredentialTokenID 场馆凭证的 token id（tierId 为 0）
func VenueCredentialTokenID(hash common.Hash, serial uint64) *big.Int {
	return MustConstructTokenID(types.TokenIDComponents{
		Type:    types.TokenTypeVenueCred,
		EventID: VenueTokenKey(hash),
		Serial:  serial,
	})
}
