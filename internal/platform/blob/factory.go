package blob

import (
	"context"
	"fmt"
	"strings"
)

// Open selects a Store for the named driver. An empty driver means memory.
func Open(ctx context.Context, driver string) (Store, error) {
	switch Driver(strings.ToLower(strings.TrimSpace(driver))) {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverS3:
		return NewS3(ctx, S3ConfigFromEnv())
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}
