package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSensorStatus(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		mask   int64
		want   string
	}{
		{
			name:   "sky precipitation failed",
			prefix: "SK",
			mask:   0b010000000,
			want:   "wind_sensor=ok,precipitation_sensor=failed,light_sensor=ok",
		},
		{
			name:   "air all ok",
			prefix: "AR",
			mask:   0,
			want:   "lightning_sensor=ok,pressure_sensor=ok,temperature_sensor=ok,r-humidity_sensor=ok",
		},
		{
			name:   "air temperature failed on a high bit",
			prefix: "AR",
			mask:   0b000010000,
			want:   "lightning_sensor=ok,pressure_sensor=ok,temperature_sensor=failed,r-humidity_sensor=ok",
		},
		{
			name:   "air lightning disturber alone",
			prefix: "AR",
			mask:   0b000000100,
			want:   "lightning_sensor=disturber,pressure_sensor=ok,temperature_sensor=ok,r-humidity_sensor=ok",
		},
		{
			name:   "lowest lightning bit wins",
			prefix: "AR",
			mask:   0b000000110,
			want:   "lightning_sensor=noise,pressure_sensor=ok,temperature_sensor=ok,r-humidity_sensor=ok",
		},
		{
			name:   "tempest light failed",
			prefix: "ST",
			mask:   0b100000000,
			want: "lightning_sensor=ok,pressure_sensor=ok,temperature_sensor=ok,r-humidity_sensor=ok," +
				"wind_sensor=ok,precipitation_sensor=ok,light_sensor=failed",
		},
		{
			name:   "tempest ignores unrelated high bits",
			prefix: "ST",
			mask:   0b1000000000 | 0b000100000,
			want: "lightning_sensor=ok,pressure_sensor=ok,temperature_sensor=ok,r-humidity_sensor=failed," +
				"wind_sensor=ok,precipitation_sensor=ok,light_sensor=ok",
		},
		{
			name:   "lower case prefix",
			prefix: "sk",
			mask:   0b001000000,
			want:   "wind_sensor=failed,precipitation_sensor=ok,light_sensor=ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags, ok := DecodeSensorStatus(tt.prefix, tt.mask)
			require.True(t, ok)
			assert.Equal(t, tt.want, tags.Line())
		})
	}
}

func TestDecodeSensorStatus_SharedSensorKeepsLowestBit(t *testing.T) {
	tests := []struct {
		mask int64
		want string
	}{
		{0b001, "failed"},
		{0b010, "noise"},
		{0b011, "failed"},
		{0b110, "noise"},
		{0b111, "failed"},
	}

	for _, tt := range tests {
		tags, ok := DecodeSensorStatus("AR", tt.mask)
		require.True(t, ok)
		got, _ := tags.Get("lightning_sensor")
		assert.Equal(t, tt.want, got, "mask %03b", tt.mask)
	}
}

func TestDecodeSensorStatus_UnknownPrefix(t *testing.T) {
	tags, ok := DecodeSensorStatus("HB", 0xFF)
	assert.False(t, ok)
	assert.Equal(t, 0, tags.Len())
}

func TestDecodeResetFlags(t *testing.T) {
	tests := []struct {
		name  string
		flags string
		want  string
	}{
		{
			name:  "pin and watchdog",
			flags: "PIN,WDG",
			want: "brownout_reset=no,pin_reset=yes,power_reset=no,software_reset=no," +
				"watchdog_reset=yes,window-watchdog_reset=no,low-power_reset=no",
		},
		{
			name:  "spaces and unknown codes",
			flags: " BOR , XYZ,LPW ",
			want: "brownout_reset=yes,pin_reset=no,power_reset=no,software_reset=no," +
				"watchdog_reset=no,window-watchdog_reset=no,low-power_reset=yes",
		},
		{
			name:  "empty",
			flags: "",
			want: "brownout_reset=no,pin_reset=no,power_reset=no,software_reset=no," +
				"watchdog_reset=no,window-watchdog_reset=no,low-power_reset=no",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags := DecodeResetFlags(tt.flags)
			assert.Equal(t, 7, tags.Len())
			assert.Equal(t, tt.want, tags.Line())
		})
	}
}
