package telemetry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedwagon-io/weatherflux/internal/model"
)

func TestNormalize_Derived(t *testing.T) {
	fields := model.ItemsOf(
		"strike_distance", 3.2,
		"pressure_station", 1017.57,
		"report_interval", 1.0,
		"rain_accumulation", 2.0,
		"temperature_air", 22.37,
		"wind_direction", 180.0,
	)

	Normalize(fields, false)

	assertField(t, fields, "strike_distance", 3200)
	assertField(t, fields, "pressure_station", 101757)
	assertField(t, fields, "report_interval", 60)
	assertField(t, fields, "rain_accumulation", 0.002)
	assertField(t, fields, "temperature_air", 22.37)
	assertField(t, fields, "wind_direction", 180)
}

func TestNormalize_Strict(t *testing.T) {
	fields := model.ItemsOf("temperature_air", 20.0, "wind_direction", 180.0)

	Normalize(fields, true)

	assertField(t, fields, "temperature_air", 293.15)
	assertField(t, fields, "wind_direction", math.Pi)
}

func TestNormalize_OneShot(t *testing.T) {
	fields := Normalize(model.ItemsOf("pressure_station", 10.0), false)
	assertField(t, fields, "pressure_station", 1000)
}

func TestNormalize_NeverAddsKeys(t *testing.T) {
	fields := Normalize(model.ItemsOf("uv", 3.0), true)
	assert.Equal(t, []string{"uv"}, fields.Keys())
}

func TestNormalize_LeavesNonNumeric(t *testing.T) {
	fields := Normalize(model.ItemsOf("strike_distance", "far"), false)
	v, _ := fields.Get("strike_distance")
	assert.Equal(t, "far", v)
}

func TestNormalize_KeepsOrder(t *testing.T) {
	fields := Normalize(model.ItemsOf("wind_lull", 1.0, "pressure_station", 2.0, "uv", 3.0), false)
	assert.Equal(t, []string{"wind_lull", "pressure_station", "uv"}, fields.Keys())
}

func assertField(t *testing.T, fields *model.Items, name string, want float64) {
	t.Helper()
	v, ok := fields.Get(name)
	require.True(t, ok, name)
	f, ok := model.ToFloat(v)
	require.True(t, ok, name)
	assert.InDelta(t, want, f, 1e-9, name)
}
