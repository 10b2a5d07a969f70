package codec

import (
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/assemble-go/pkg/sdkerrors"
	"github.com/weisyn/assemble-go/pkg/types"
)

func expectedTokenID(tokenType, eventID, tierID, serial int64) *big.Int {
	id := new(big.Int).Lsh(big.NewInt(tokenType), 224)
	id.Or(id, new(big.Int).Lsh(big.NewInt(eventID), 128))
	id.Or(id, new(big.Int).Lsh(big.NewInt(tierID), 64))
	return id.Or(id, big.NewInt(serial))
}

func TestConstructTokenID_ConcreteExample(t *testing.T) {
	id, err := ConstructTokenID(types.TokenIDComponents{
		Type:    types.TokenTypeEventTicket,
		EventID: big.NewInt(42),
		TierID:  2,
		Serial:  7,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, expectedTokenID(1, 42, 2, 7).Cmp(id))

	parsed := ParseTokenID(id)
	assert.Equal(t, types.TokenTypeEventTicket, parsed.Type)
	assert.Equal(t, int64(42), parsed.EventID.Int64())
	assert.Equal(t, uint64(2), parsed.TierID)
	assert.Equal(t, uint64(7), parsed.Serial)
}

func TestConstructTokenID_EventIDWidth(t *testing.T) {
	tests := []struct {
		name    string
		eventID *big.Int
		wantErr bool
	}{
		{"nil treated as zero", nil, false},
		{"zero", big.NewInt(0), false},
		{"max 96 bit", new(big.Int).Set(MaxEventID), false},
		{"97 bit", new(big.Int).Lsh(big.NewInt(1), 96), true},
		{"negative", big.NewInt(-1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ConstructTokenID(types.TokenIDComponents{Type: types.TokenTypeAttendanceBadge, EventID: tt.eventID})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, sdkerrors.IsValidation(err))
				assert.Equal(t, "eventId", sdkerrors.FieldOf(err))
				assert.Nil(t, id)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, types.TokenTypeAttendanceBadge, ParseTokenID(id).Type)
		})
	}
}

func TestParseTokenID_NeverFails(t *testing.T) {
	// 标签 0xAB 不在已知范围内，仍然按位解码
	id := new(big.Int).Lsh(big.NewInt(0xAB), 224)
	c := ParseTokenID(id)
	assert.Equal(t, types.TokenType(0xAB), c.Type)
	assert.False(t, c.Type.IsValid())
	assert.Equal(t, types.TokenTypeUnknown, c.Type.Normalize())
	assert.False(t, IsValidTokenID(id))

	zero := ParseTokenID(nil)
	assert.Equal(t, types.TokenTypeNone, zero.Type)
	assert.Equal(t, 0, zero.EventID.Sign())

	// 高于 232 位的内容被忽略
	high := new(big.Int).Lsh(big.NewInt(1), 240)
	high.Or(high, expectedTokenID(3, 9, 0, 1))
	c = ParseTokenID(high)
	assert.Equal(t, types.TokenTypeOrganizerCred, c.Type)
	assert.Equal(t, int64(9), c.EventID.Int64())
	assert.Equal(t, uint64(1), c.Serial)
	assert.False(t, IsValidTokenID(high))
}

func TestParseTokenID_FieldBoundaries(t *testing.T) {
	allOnes := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 232), big.NewInt(1))
	c := ParseTokenID(allOnes)

	assert.Equal(t, types.TokenType(0xFF), c.Type)
	assert.Equal(t, 0, MaxEventID.Cmp(c.EventID))
	assert.Equal(t, ^uint64(0), c.TierID)
	assert.Equal(t, ^uint64(0), c.Serial)

	back, err := ConstructTokenID(c)
	require.NoError(t, err)
	assert.Equal(t, 0, allOnes.Cmp(back))
}

func TestIsSoulbound(t *testing.T) {
	tests := []struct {
		tokenType types.TokenType
		want      bool
	}{
		{types.TokenTypeNone, false},
		{types.TokenTypeEventTicket, false},
		{types.TokenTypeAttendanceBadge, true},
		{types.TokenTypeOrganizerCred, true},
		{types.TokenTypeVenueCred, true},
		{types.TokenTypeUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.tokenType.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, IsSoulbound(tt.tokenType))
		})
	}
}

func TestProperty_TokenIDRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("parse(construct(c)) == c for in-width fields", prop.ForAll(
		func(tag uint8, eventHi uint32, eventLo uint64, tier uint64, serial uint64) bool {
			eventID := new(big.Int).Lsh(new(big.Int).SetUint64(uint64(eventHi)), 64)
			eventID.Or(eventID, new(big.Int).SetUint64(eventLo))

			c := types.TokenIDComponents{
				Type:    types.TokenType(tag),
				EventID: eventID,
				TierID:  tier,
				Serial:  serial,
			}
			id, err := ConstructTokenID(c)
			if err != nil {
				return false
			}
			return ParseTokenID(id).Equal(c)
		},
		gen.UInt8Range(0, 4),
		gen.UInt32(),
		gen.UInt64(),
		gen.UInt64(),
		gen.UInt64(),
	))

	properties.Property("construct(parse(x)) == x for x below 2^232", prop.ForAll(
		func(raw []uint8) bool {
			x := new(big.Int).SetBytes(raw)
			back, err := ConstructTokenID(ParseTokenID(x))
			if err != nil {
				return false
			}
			return back.Cmp(x) == 0
		},
		gen.SliceOfN(29, gen.UInt8()),
	))

	properties.TestingRun(t)
}
