package health

import (
	"context"
	"fmt"
)

// SinkHealthChecker reports the state of the current record writer. A
// missing or failing sink degrades the service: messages are still
// received and counted.
type SinkHealthChecker struct {
	healthFunc func(ctx context.Context) (string, error)
}

func NewSinkHealthChecker(healthFunc func(ctx context.Context) (string, error)) *SinkHealthChecker {
	return &SinkHealthChecker{healthFunc: healthFunc}
}

func (c *SinkHealthChecker) Name() string {
	return "sink"
}

func (c *SinkHealthChecker) Check(ctx context.Context) (Status, string) {
	name, err := c.healthFunc(ctx)
	if err != nil {
		return StatusDegraded, err.Error()
	}
	return StatusHealthy, name
}

type InventoryHealthChecker struct {
	pingFunc  func(ctx context.Context) error
	countFunc func(ctx context.Context) (int64, error)
}

func NewInventoryHealthChecker(
	pingFunc func(ctx context.Context) error,
	countFunc func(ctx context.Context) (int64, error),
) *InventoryHealthChecker {
	return &InventoryHealthChecker{pingFunc: pingFunc, countFunc: countFunc}
}

func (c *InventoryHealthChecker) Name() string {
	return "inventory"
}

func (c *InventoryHealthChecker) Check(ctx context.Context) (Status, string) {
	if err := c.pingFunc(ctx); err != nil {
		return StatusUnhealthy, err.Error()
	}

	count, err := c.countFunc(ctx)
	if err != nil {
		return StatusDegraded, err.Error()
	}
	return StatusHealthy, fmt.Sprintf("%d devices", count)
}
