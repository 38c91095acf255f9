package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/speedwagon-io/weatherflux/internal/config"
)

const defaultHealthAddress = ":8080"

// healthcheck probes the local health endpoint, for container HEALTHCHECK
// directives. The address comes from the config file when it can be read.
func healthcheck(configPath string) int {
	address := defaultHealthAddress
	if cfg, err := config.Read(configPath); err == nil && cfg.Health.Address != "" {
		address = cfg.Health.Address
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(probeURL(address))
	if err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck failed:", err)
		return exitFailure
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintln(os.Stderr, "healthcheck failed:", resp.Status)
		return exitFailure
	}
	return exitOK
}

func probeURL(address string) string {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return "http://" + address + "/health"
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/health"
}
