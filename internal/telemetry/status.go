package telemetry

import (
	"strings"

	"github.com/speedwagon-io/weatherflux/internal/model"
)

type sensorBit struct {
	bit    int64
	sensor string
	reason string
}

var (
	airSensors = []sensorBit{
		{0b000000001, "lightning", "failed"},
		{0b000000010, "lightning", "noise"},
		{0b000000100, "lightning", "disturber"},
		{0b000001000, "pressure", "failed"},
		{0b000010000, "temperature", "failed"},
		{0b000100000, "r-humidity", "failed"},
	}
	skySensors = []sensorBit{
		{0b001000000, "wind", "failed"},
		{0b010000000, "precipitation", "failed"},
		{0b100000000, "light", "failed"},
	}
)

var sensorTables = map[string][]sensorBit{
	"AR": airSensors,
	"SK": skySensors,
	"ST": append(append([]sensorBit{}, airSensors...), skySensors...),
}

// DecodeSensorStatus emits one "<sensor>_sensor" tag per sensor known for
// the device prefix. A sensor reports the reason of its lowest set bit, or
// "ok" when none of its bits is set. It returns false for prefixes without
// a table.
func DecodeSensorStatus(prefix string, mask int64) (*model.Items, bool) {
	table, ok := sensorTables[strings.ToUpper(prefix)]
	if !ok {
		return model.NewItems(), false
	}

	tags := model.NewItems()
	for _, s := range table {
		key := s.sensor + "_sensor"
		if mask&s.bit != 0 {
			if cur, ok := tags.Get(key); !ok || cur == "ok" {
				tags.Set(key, s.reason)
			}
			continue
		}
		if !tags.Has(key) {
			tags.Set(key, "ok")
		}
	}
	return tags, true
}

var resetFlags = []struct {
	code string
	name string
}{
	{"BOR", "brownout_reset"},
	{"PIN", "pin_reset"},
	{"POR", "power_reset"},
	{"SFT", "software_reset"},
	{"WDG", "watchdog_reset"},
	{"WWD", "window-watchdog_reset"},
	{"LPW", "low-power_reset"},
}

// DecodeResetFlags always emits the seven reset tags, "yes" for codes
// present in the comma-separated list and "no" otherwise.
func DecodeResetFlags(flags string) *model.Items {
	present := make(map[string]struct{})
	for _, code := range strings.Split(flags, ",") {
		present[strings.TrimSpace(code)] = struct{}{}
	}

	tags := model.NewItems()
	for _, f := range resetFlags {
		if _, ok := present[f.code]; ok {
			tags.Set(f.name, "yes")
		} else {
			tags.Set(f.name, "no")
		}
	}
	return tags
}
