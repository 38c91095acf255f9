package collector

import (
	"context"
	"fmt"
)

// Source delivers raw datagrams to handle until ctx is done. handle is
// called serially and must not retain the payload.
type Source interface {
	Run(ctx context.Context, handle func(payload []byte)) error
	Name() string
	Close() error
}

type Mode string

const (
	// ModeDaemon formats every message and writes it to the configured sink.
	ModeDaemon Mode = "daemon"
	// ModeConsole writes like ModeDaemon and also logs every line.
	ModeConsole Mode = "console"
	// ModeObservation only discovers devices.
	ModeObservation Mode = "observation"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeDaemon, ModeConsole, ModeObservation:
		return m, nil
	case "":
		return ModeDaemon, nil
	default:
		return "", fmt.Errorf("unknown running mode %q", s)
	}
}
