package sources

import (
	"context"
	"time"
)

const (
	userAgent      = "MatiksMonitor/1.0"
	requestTimeout = 30 * time.Second
)

// Source is an external collaborator producing one platform's raw records
type Source[T any] interface {
	GetName() string
	IsEnabled() bool
	Fetch(ctx context.Context, query string, limit int) ([]T, error)
	// Demo returns the fixed payload used when live data is unavailable
	Demo() []T
}
