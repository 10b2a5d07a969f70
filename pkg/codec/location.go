package codec

import (
	"math"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/weisyn/assemble-go/pkg/sdkerrors"
	"github.com/weisyn/assemble-go/pkg/types"
)

const (
	// CoordinateScale 定点放大倍数，精度 1e-6 度
	CoordinateScale = 1_000_000

	halfBits = 128
)

var (
	mask128 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), halfBits), uint256.NewInt(1))
	// 128 位半区的符号位所在字节
	halfSignByte = uint256.NewInt(halfBits/8 - 1)
)

// ValidateCoordinates 检查经纬度范围
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return sdkerrors.Validation("Latitude must be between -90 and 90", "latitude")
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return sdkerrors.Validation("Longitude must be between -180 and 180", "longitude")
	}
	return nil
}

// PackLocation 把经纬度打包为 256 位整数
//
// 结果为 (latFixed << 128) | (lonFixed & (2^128-1))，按 256 位回绕；
// 负纬度会置高位，高 128 位即纬度的补码。
func PackLocation(lat, lon float64) (*big.Int, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	latFixed := fromInt64(toFixed(lat))
	lonFixed := fromInt64(toFixed(lon))

	packed := new(uint256.Int).Lsh(latFixed, halfBits)
	packed.Or(packed, lonFixed.And(lonFixed, mask128))
	return packed.ToBig(), nil
}

// UnpackLocation 还原经纬度
//
// 各半区按第 127 位做符号扩展后除以 1e6，不会失败；
// 非 PackLocation 产生的输入会得到无意义但确定的坐标。
func UnpackLocation(packed *big.Int) types.Coordinates {
	x := toUint256(packed)

	lat := new(uint256.Int).Rsh(x, halfBits)
	lon := new(uint256.Int).And(x, mask128)
	lat.ExtendSign(lat, halfSignByte)
	lon.ExtendSign(lon, halfSignByte)

	return types.Coordinates{
		Latitude:  fromFixed(lat),
		Longitude: fromFixed(lon),
	}
}

// toFixed 乘以 1e6 后四舍五入，.5 向正无穷取整
func toFixed(deg float64) int64 {
	return int64(math.Floor(deg*CoordinateScale + 0.5))
}

func fromInt64(v int64) *uint256.Int {
	if v >= 0 {
		return uint256.NewInt(uint64(v))
	}
	return new(uint256.Int).Neg(uint256.NewInt(uint64(-v)))
}

// fromFixed 把 256 位补码定点数转换为度
func fromFixed(v *uint256.Int) float64 {
	var signed *big.Int
	if v.Sign() < 0 {
		signed = new(uint256.Int).Neg(v).ToBig()
		signed.Neg(signed)
	} else {
		signed = v.ToBig()
	}
	f, _ := new(big.Float).SetInt(signed).Float64()
	return f / CoordinateScale
}
