package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/speedwagon-io/weatherflux/internal/config"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: config.json", config.ErrNotFound), exitConfigNotFound},
		{fmt.Errorf("%w: permission denied", config.ErrUnreadable), exitConfigUnreadable},
		{config.ErrEmpty, exitConfigInvalid},
		{fmt.Errorf("%w: filters: Invalid type", config.ErrInvalid), exitConfigInvalid},
		{fmt.Errorf("boom"), exitFailure},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), tt.err.Error())
	}
	assert.Equal(t, 2, exitListener)
	assert.Equal(t, 5, exitConfigInvalid)
}

func TestProbeURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:8080/health", probeURL(":8080"))
	assert.Equal(t, "http://127.0.0.1:9000/health", probeURL("0.0.0.0:9000"))
	assert.Equal(t, "http://10.0.0.5:8080/health", probeURL("10.0.0.5:8080"))
	assert.Equal(t, "http://[::1]:8080/health", probeURL("[::1]:8080"))
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("WF_CONFIG", "")
	assert.Equal(t, config.DefaultPath, defaultConfigPath())

	t.Setenv("WF_CONFIG", "/etc/weatherflux/config.json")
	assert.Equal(t, "/etc/weatherflux/config.json", defaultConfigPath())
}
