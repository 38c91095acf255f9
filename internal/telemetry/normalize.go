package telemetry

import (
	"math"

	"github.com/speedwagon-io/weatherflux/internal/model"
)

type conversion func(float64) float64

var derivedConversions = map[string]conversion{
	"strike_distance":   func(v float64) float64 { return v * 1000 },
	"pressure_station":  func(v float64) float64 { return v * 100 },
	"report_interval":   func(v float64) float64 { return v * 60 },
	"rain_accumulation": func(v float64) float64 { return v / 1000 },
}

var strictConversions = map[string]conversion{
	"temperature_air": func(v float64) float64 { return v + 273.15 },
	"wind_direction":  func(v float64) float64 { return v * math.Pi / 180 },
}

// Normalize converts field values to SI units in place and returns fields.
// It is one-shot: applying it twice converts twice. Keys are never added
// and non-numeric values are left as they are.
func Normalize(fields *model.Items, strict bool) *model.Items {
	apply := func(table map[string]conversion) {
		for name, conv := range table {
			v, ok := fields.Get(name)
			if !ok {
				continue
			}
			f, ok := model.ToFloat(v)
			if !ok {
				continue
			}
			fields.Set(name, conv(f))
		}
	}

	apply(derivedConversions)
	if strict {
		apply(strictConversions)
	}
	return fields
}
