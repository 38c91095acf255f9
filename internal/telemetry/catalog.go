// Package telemetry turns decoded hub broadcasts into metric records.
package telemetry

import (
	"errors"
	"fmt"
)

var ErrUnknownType = errors.New("unknown message type")

const (
	TypePrecipitation = "evt_precip"
	TypeStrike        = "evt_strike"
	TypeRapidWind     = "rapid_wind"
	TypeObsAir        = "obs_air"
	TypeObsSky        = "obs_sky"
	TypeObsTempest    = "obs_st"
	TypeDeviceStatus  = "device_status"
	TypeHubStatus     = "hub_status"
)

const (
	SuffixEvent       = "event"
	SuffixObservation = "observation"
	SuffixStatus      = "status"
)

type schema struct {
	suffix string
	fields []string
}

var catalog = map[string]schema{
	TypePrecipitation: {SuffixEvent, []string{"ts"}},
	TypeStrike:        {SuffixEvent, []string{"ts", "strike_distance", "strike_energy"}},
	TypeRapidWind:     {SuffixObservation, []string{"ts", "wind_speed", "wind_direction", "wind_sample_interval"}},
	TypeObsAir: {SuffixObservation, []string{
		"ts", "pressure_station", "temperature_air", "r-humidity", "strike_count", "strike_distance",
		"battery", "report_interval",
	}},
	TypeObsSky: {SuffixObservation, []string{
		"ts", "illuminance_sun", "uv", "rain_accumulation", "wind_lull", "wind_average", "wind_gust",
		"wind_direction", "battery", "report_interval", "irradiance_sun", "rain_accumulation_local_day",
		"precipitation_type", "wind_sample_interval",
	}},
	TypeObsTempest: {SuffixObservation, []string{
		"ts", "wind_lull", "wind_average", "wind_gust", "wind_direction", "wind_sample_interval",
		"pressure_station", "temperature_air", "r-humidity", "illuminance_sun", "uv", "irradiance_sun",
		"rain_accumulation", "precipitation_type", "strike_distance", "strike_count", "battery",
		"report_interval",
	}},
	TypeDeviceStatus: {SuffixStatus, []string{"uptime", "voltage", "firmware_revision", "rssi_self", "rssi_hub"}},
	TypeHubStatus:    {SuffixStatus, []string{"uptime", "firmware_revision", "rssi_self"}},
}

var knownTypes = []string{
	TypePrecipitation, TypeStrike, TypeRapidWind, TypeObsAir,
	TypeObsSky, TypeObsTempest, TypeDeviceStatus, TypeHubStatus,
}

// Fields extracted positionally but never stored.
var forgotten = map[string]struct{}{
	"ts":                          {},
	"battery":                     {},
	"precipitation_type":          {},
	"rain_accumulation_local_day": {},
}

// SchemaFor returns a copy of the ordered field names for a message type.
func SchemaFor(typ string) ([]string, bool) {
	s, ok := catalog[typ]
	if !ok {
		return nil, false
	}
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out, true
}

func Suffix(typ string) (string, error) {
	s, ok := catalog[typ]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	return s.suffix, nil
}

func IsForgotten(name string) bool {
	_, ok := forgotten[name]
	return ok
}

func IsKnownType(typ string) bool {
	_, ok := catalog[typ]
	return ok
}

// KnownTypes lists every message type in catalog order.
func KnownTypes() []string {
	out := make([]string, len(knownTypes))
	copy(out, knownTypes)
	return out
}
