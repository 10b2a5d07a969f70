// Package codec 实现 Assemble 合约使用的定长位编码
//
// token id 布局（高位在前）：
//
//	[224,232) tokenType   8 位
//	[128,224) eventId    96 位（VENUE_CRED 时为场馆键）
//	[ 64,128) tierId     64 位
//	[  0, 64) serial     64 位
//
// 位置编码：纬度、经度各放大 1e6 后取整，按 128 位补码分别放在高、低半区。
// 两类编码都与链上实现逐位一致，纯函数，可并发调用。
package codec

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/weisyn/assemble-go/pkg/sdkerrors"
	"github.com/weisyn/assemble-go/pkg/types"
)

const (
	typeOffset  = 224
	eventOffset = 128
	tierOffset  = 64

	// EventIDBits eventId 字段宽度
	EventIDBits = 96
)

var (
	mask96 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), EventIDBits), uint256.NewInt(1))

	// MaxEventID eventId 可编码的最大值 2^96-1
	MaxEventID = mask96.ToBig()
)

// ParseTokenID 拆解 token id
//
// 纯位提取，不会失败；超出 256 位的输入按 256 位截断。标签可能不在已知范围内，
// 由调用方通过 TokenType.IsValid 判断。
func ParseTokenID(id *big.Int) types.TokenIDComponents {
	x := toUint256(id)

	var tmp uint256.Int
	return types.TokenIDComponents{
		Type:    types.TokenType(tmp.Rsh(x, typeOffset).Uint64() & 0xFF),
		EventID: new(uint256.Int).And(new(uint256.Int).Rsh(x, eventOffset), mask96).ToBig(),
		TierID:  tmp.Rsh(x, tierOffset).Uint64(),
		Serial:  x.Uint64(),
	}
}

// ConstructTokenID 组装 token id
//
// eventId 必须非负且不超过 96 位，否则返回 ValidationError（字段 eventId），
// 避免高位溢出到标签字段。tierId、serial、标签的宽度由类型保证。
func ConstructTokenID(c types.TokenIDComponents) (*big.Int, error) {
	eventID := c.EventID
	if eventID == nil {
		eventID = new(big.Int)
	}
	if eventID.Sign() < 0 {
		return nil, sdkerrors.Validation("Event ID must not be negative", "eventId")
	}
	if eventID.BitLen() > EventIDBits {
		return nil, sdkerrors.Validation("Event ID exceeds 96 bits", "eventId")
	}

	ev, _ := uint256.FromBig(eventID)

	id := new(uint256.Int).Lsh(uint256.NewInt(uint64(c.Type)), typeOffset)
	id.Or(id, ev.Lsh(ev, eventOffset))
	id.Or(id, new(uint256.Int).Lsh(uint256.NewInt(c.TierID), tierOffset))
	id.Or(id, uint256.NewInt(c.Serial))
	return id.ToBig(), nil
}

// MustConstructTokenID 与 ConstructTokenID 相同，越界时 panic
func MustConstructTokenID(c types.TokenIDComponents) *big.Int {
	id, err := ConstructTokenID(c)
	if err != nil {
		panic(err)
	}
	return id
}

// IsSoulbound 出席徽章、组织者凭证、场馆凭证不可转让
func IsSoulbound(t types.TokenType) bool {
	switch t {
	case types.TokenTypeAttendanceBadge, types.TokenTypeOrganizerCred, types.TokenTypeVenueCred:
		return true
	default:
		return false
	}
}

// IsValidTokenID 标签已知且高 24 位为零
func IsValidTokenID(id *big.Int) bool {
	if id == nil || id.Sign() < 0 || id.BitLen() > typeOffset+8 {
		return false
	}
	return ParseTokenID(id).Type.IsValid()
}

// toUint256 按 256 位补码截断
func toUint256(v *big.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	if v.Sign() >= 0 && v.BitLen() <= 256 {
		x, _ := uint256.FromBig(v)
		return x
	}
	mod := new(big.Int).Lsh(big.NewInt(1), 256)
	m := new(big.Int).Mod(v, mod)
	x, _ := uint256.FromBig(m)
	return x
}
