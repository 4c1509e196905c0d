package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/lotfolio/backend/src/config"
)

func TestRateTableEURPassthrough(t *testing.T) {
	table := NewRateTable(map[string]float64{}, config.FXFallbackUnity)

	converted, degraded := table.ToEUR(100, "EUR", day(t, "2023-03-01"))
	assert.Equal(t, 100.0, converted)
	assert.False(t, degraded)

	converted, degraded = table.ToEUR(100, "", day(t, "2023-03-01"))
	assert.Equal(t, 100.0, converted)
	assert.False(t, degraded)
}

func TestRateTableExactRate(t *testing.T) {
	table := NewRateTable(map[string]float64{"2023-03-01": 1.25}, config.FXFallbackUnity)

	converted, degraded := table.ToEUR(100, "USD", day(t, "2023-03-01"))
	assert.InDelta(t, 80, converted, 1e-9)
	assert.False(t, degraded)
}

func TestRateTableUnityFallback(t *testing.T) {
	table := NewRateTable(map[string]float64{"2023-03-01": 1.25}, config.FXFallbackUnity)

	converted, degraded := table.ToEUR(100, "USD", day(t, "2023-03-02"))
	assert.Equal(t, 100.0, converted)
	assert.True(t, degraded)
}

func TestRateTableLastKnownFallback(t *testing.T) {
	table := NewRateTable(map[string]float64{
		"2023-03-01": 1.25,
		"2023-03-06": 1.10,
	}, config.FXFallbackLastKnown)

	// 2023-03-03 has no rate; the nearest earlier one (1.25) applies.
	converted, degraded := table.ToEUR(100, "USD", day(t, "2023-03-03"))
	assert.InDelta(t, 80, converted, 1e-9)
	assert.True(t, degraded)

	// After 2023-03-06 the later rate wins.
	converted, degraded = table.ToEUR(110, "USD", day(t, "2023-03-08"))
	assert.InDelta(t, 100, converted, 1e-9)
	assert.True(t, degraded)
}

func TestRateTableLastKnownWithoutEarlierRate(t *testing.T) {
	table := NewRateTable(map[string]float64{"2023-03-06": 1.10}, config.FXFallbackLastKnown)

	converted, degraded := table.ToEUR(100, "USD", day(t, "2023-03-01"))
	assert.Equal(t, 100.0, converted)
	assert.True(t, degraded)
}

func TestRateTableRateOn(t *testing.T) {
	table := NewRateTable(map[string]float64{"2023-03-01": 1.25}, config.FXFallbackUnity)

	rate, ok := table.RateOn(day(t, "2023-03-01"))
	assert.True(t, ok)
	assert.Equal(t, 1.25, rate)

	_, ok = table.RateOn(day(t, "2023-03-02"))
	assert.False(t, ok)
}
