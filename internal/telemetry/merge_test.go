package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/speedwagon-io/weatherflux/internal/model"
)

func TestMergeLine_Precedence(t *testing.T) {
	static := model.StaticMetadata{
		"*":     model.ItemsOf("a", 2, "b", 2),
		"AR*":   model.ItemsOf("a", 3),
		"AR001": model.ItemsOf("a", 4),
	}
	dynamic := model.ItemsOf("a", 1)

	tests := []struct {
		device string
		want   string
	}{
		{device: "AR001", want: "a=4,b=2"},
		{device: "AR999", want: "a=3,b=2"},
		{device: "SK001", want: "a=2,b=2"},
	}

	for _, tt := range tests {
		t.Run(tt.device, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeLine(dynamic, static, tt.device))
		})
	}

	assert.Equal(t, "a=1", dynamic.Line(), "dynamic items must not be mutated")
}

func TestMergeLine_Empty(t *testing.T) {
	assert.Equal(t, "", MergeLine(model.NewItems(), nil, "AR001"))
	assert.Equal(t, "", MergeLine(nil, model.StaticMetadata{}, "AR001"))
}

func TestMergeLine_CleansStrings(t *testing.T) {
	static := model.StaticMetadata{
		"*": model.ItemsOf("location", "Mouvaux - France", "note", "a,b;c", "elevation", 42.5, "indoor", false),
	}

	got := MergeLine(model.ItemsOf("event", "strike"), static, "AR001")
	assert.Equal(t, `event=strike,location=Mouvaux\ -\ France,note=abc,elevation=42.5,indoor=false`, got)
}
