package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfidence(t *testing.T) {
	c, ok := ParseConfidence(" Medium ")
	assert.True(t, ok)
	assert.Equal(t, ConfidenceMedium, c)

	_, ok = ParseConfidence("certain")
	assert.False(t, ok)

	assert.Less(t, ConfidenceNone.Rank(), ConfidenceLow.Rank())
	assert.Less(t, ConfidenceMedium.Rank(), ConfidenceHigh.Rank())
}

func TestDaysJSON(t *testing.T) {
	b, err := json.Marshal(Days(math.Inf(1)))
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	b, err = json.Marshal(Days(4))
	require.NoError(t, err)
	assert.Equal(t, "4", string(b))

	var d Days
	require.NoError(t, json.Unmarshal([]byte("null"), &d))
	assert.True(t, d.IsInf())
	assert.Equal(t, "inf", d.String())
}

func TestUrgencyOrder(t *testing.T) {
	assert.Less(t, UrgencyOrder(UrgencyCritical), UrgencyOrder(UrgencyHigh))
	assert.Less(t, UrgencyOrder(UrgencyHigh), UrgencyOrder(UrgencyMedium))
	assert.Less(t, UrgencyOrder(UrgencyMedium), UrgencyOrder(UrgencyNone))
}
