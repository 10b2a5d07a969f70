package codec

import (
	"math"
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

const tolerance = 1e-6

func TestPackLocation_ConcreteExample(t *testing.T) {
	packed, err := PackLocation(40.7505, -73.9934)
	require.NoError(t, err)

	coords := UnpackLocation(packed)
	assert.InDelta(t, 40.7505, coords.Latitude, tolerance)
	assert.InDelta(t, -73.9934, coords.Longitude, tolerance)

	// 高半区为 40750500，低半区为 -73993400 的 128 位补码
	lat := new(big.Int).Rsh(packed, 128)
	assert.Equal(t, int64(40750500), lat.Int64())
	lon := new(big.Int).And(packed, new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1)))
	want := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(73993400))
	assert.Equal(t, 0, want.Cmp(lon))
}

func TestPackLocation_Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		lat   float64
		lon   float64
		field string
	}{
		{"north east corner", 90, 180, ""},
		{"south west corner", -90, -180, ""},
		{"origin", 0, 0, ""},
		{"latitude too high", 90.0001, 0, "latitude"},
		{"latitude too low", -90.0001, 0, "latitude"},
		{"longitude too high", 0, 180.0001, "longitude"},
		{"longitude too low", 0, -180.0001, "longitude"},
		{"latitude NaN", math.NaN(), 0, "latitude"},
		{"longitude NaN", 0, math.NaN(), "longitude"},
		{"longitude infinite", 0, math.Inf(1), "longitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed, err := PackLocation(tt.lat, tt.lon)
			if tt.field == "" {
				require.NoError(t, err)
				coords := UnpackLocation(packed)
				assert.InDelta(t, tt.lat, coords.Latitude, tolerance)
				assert.InDelta(t, tt.lon, coords.Longitude, tolerance)
				assert.LessOrEqual(t, packed.BitLen(), 256)
				return
			}
			require.Error(t, err)
			assert.True(t, sdkerrors.IsValidation(err))
			assert.Equal(t, tt.field, sdkerrors.FieldOf(err))
		})
	}
}

func TestPackLocation_ValidationMessages(t *testing.T) {
	_, err := PackLocation(91, 0)
	require.Error(t, err)
	assert.Equal(t, "Latitude must be between -90 and 90", err.Error())

	_, err = PackLocation(0, -181)
	require.Error(t, err)
	assert.Equal(t, "Longitude must be between -180 and 180", err.Error())
}

func TestToFixed(t *testing.T) {
	assert.Equal(t, int64(1_250_000), toFixed(1.25))
	assert.Equal(t, int64(-1_250_000), toFixed(-1.25))
	assert.Equal(t, int64(-73_993_400), toFixed(-73.9934))
	assert.Equal(t, int64(90_000_000), toFixed(90))
	assert.Equal(t, int64(-180_000_000), toFixed(-180))
}

func TestUnpackLocation_NeverFails(t *testing.T) {
	coords := UnpackLocation(nil)
	assert.Equal(t, 0.0, coords.Latitude)
	assert.Equal(t, 0.0, coords.Longitude)

	// 全 1 解码为 (-1e-6, -1e-6)
	allOnes := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	coords = UnpackLocation(allOnes)
	assert.InDelta(t, -0.000001, coords.Latitude, 1e-12)
	assert.InDelta(t, -0.000001, coords.Longitude, 1e-12)
}

func TestProperty_LocationRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 1000
	properties := gopter.NewProperties(parameters)

	properties.Property("unpack(pack(lat, lon)) recovers micro-degree inputs", prop.ForAll(
		func(latMicro, lonMicro int64) bool {
			lat := float64(latMicro) / CoordinateScale
			lon := float64(lonMicro) / CoordinateScale
			packed, err := PackLocation(lat, lon)
			if err != nil {
				return false
			}
			c := UnpackLocation(packed)
			return math.Abs(c.Latitude-lat) <= tolerance && math.Abs(c.Longitude-lon) <= tolerance
		},
		gen.Int64Range(-90_000_000, 90_000_000),
		gen.Int64Range(-180_000_000, 180_000_000),
	))

	properties.Property("unpack(pack(lat, lon)) is within rounding error for arbitrary doubles", prop.ForAll(
		func(lat, lon float64) bool {
			packed, err := PackLocation(lat, lon)
			if err != nil {
				return false
			}
			c := UnpackLocation(packed)
			return math.Abs(c.Latitude-lat) <= tolerance && math.Abs(c.Longitude-lon) <= tolerance
		},
		gen.Float64Range(-90, 90),
		gen.Float64Range(-180, 180),
	))

	properties.TestingRun(t)
}
