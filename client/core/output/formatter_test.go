package output

import (
	"bytes"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type venueRow struct {
	Name       string `json:"name"`
	EventCount uint64 `json:"eventCount"`
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat(" Table ")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestPrint_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON, &buf).Print(venueRow{Name: "Paradiso", EventCount: 3}))
	assert.Equal(t, `{"name":"Paradiso","eventCount":3}`+"\n", buf.String())

	buf.Reset()
	require.NoError(t, NewFormatter(FormatPretty, &buf).Print(map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestPrint_Table(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var buf bytes.Buffer
	f := NewFormatter(FormatTable, &buf)
	require.NoError(t, f.Print([]venueRow{{"Paradiso", 3}, {"Red Rocks", 12}}))
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "eventCount")
	assert.Contains(t, lines[0], "name")
	assert.Contains(t, lines[3], "Red Rocks")
	assert.Contains(t, lines[3], "12")

	buf.Reset()
	require.NoError(t, f.Print(map[string]interface{}{"b": true, "a": nil}))
	lines = strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[2], "a")
	assert.Contains(t, lines[2], "-")
	assert.Contains(t, lines[3], "true")

	buf.Reset()
	require.NoError(t, f.Print([]string{}))
	assert.Empty(t, buf.String())
}

func TestPrint_Text(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(FormatText, &buf)

	require.NoError(t, f.Print(big.NewInt(42)))
	require.NoError(t, f.Print(venueRow{Name: "Paradiso", EventCount: 3}))
	assert.Equal(t, "42\neventCount: 3\nname: Paradiso\n", buf.String())
}

func TestSilentAndMessages(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var out, log bytes.Buffer
	f := NewFormatter(FormatJSON, &out)
	f.SetLogWriter(&log)

	f.PrintInfo("syncing")
	assert.Contains(t, log.String(), "syncing")

	f.SetSilent(true)
	log.Reset()
	require.NoError(t, f.Print("x"))
	f.PrintWarning("hidden")
	f.PrintError(errors.New("boom"))
	assert.Empty(t, out.String())
	assert.NotContains(t, log.String(), "hidden")
	assert.Contains(t, log.String(), "boom")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "-", formatValue(nil))
	assert.Equal(t, "7", formatValue(float64(7)))
	assert.Equal(t, "0.25", formatValue(0.25))
	assert.Equal(t, `[1,2]`, formatValue([]interface{}{float64(1), float64(2)}))
}
