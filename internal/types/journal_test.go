package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringOrListUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		json string
		want StringOrList
	}{
		{"single string", `"scalping"`, StringOrList{"scalping"}},
		{"array", `["scalping","swing"]`, StringOrList{"scalping", "swing"}},
		{"empty array", `[]`, StringOrList{}},
		{"null", `null`, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got StringOrList
			require.NoError(t, json.Unmarshal([]byte(tc.json), &got))
			assert.Equal(t, tc.want, got)
		})
	}

	var got StringOrList
	assert.Error(t, json.Unmarshal([]byte(`42`), &got))
}

func TestStringOrListEntryDecoding(t *testing.T) {
	// Clients send strategy either as a plain string or the legacy array.
	var fromString JournalEntry
	require.NoError(t, json.Unmarshal([]byte(`{"strategy":"breakout","mistake":"early_exit"}`), &fromString))
	assert.Equal(t, StringOrList{"breakout"}, fromString.Strategy)

	var fromList JournalEntry
	require.NoError(t, json.Unmarshal([]byte(`{"strategy":["breakout"],"feelings":"anxious"}`), &fromList))
	assert.Equal(t, StringOrList{"breakout"}, fromList.Strategy)
	assert.Equal(t, StringOrList{"anxious"}, fromList.Feelings)
}

func TestStringOrListDatabaseRoundTrip(t *testing.T) {
	value, err := StringOrList{"breakout", "swing"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["breakout","swing"]`, value)

	var scanned StringOrList
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, StringOrList{"breakout", "swing"}, scanned)

	nilValue, err := StringOrList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", nilValue)

	var fromNil StringOrList
	require.NoError(t, fromNil.Scan(nil))
	assert.Nil(t, fromNil)
}

func TestCanonicalOrderMatchable(t *testing.T) {
	valid := CanonicalOrder{
		OrderID:        "Z1",
		Symbol:         "RELIANCE",
		Side:           SideBuy,
		Status:         StatusComplete,
		Quantity:       10,
		AveragePrice:   2450.5,
		OrderTimestamp: time.Now(),
	}
	assert.True(t, valid.Matchable())
	assert.Empty(t, valid.MissingFields())

	pending := valid
	pending.Status = StatusOther
	assert.False(t, pending.Matchable())
	assert.Empty(t, pending.MissingFields())

	negative := valid
	negative.AveragePrice = -1
	assert.False(t, negative.Matchable())

	badSide := valid
	badSide.Side = "HOLD"
	assert.Contains(t, badSide.MissingFields(), "side")
}
