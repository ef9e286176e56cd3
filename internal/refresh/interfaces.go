package refresh

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"github.com/pders01/newsbox/internal/feed"
)

// Fetcher runs one fetch cycle over the configured feeds.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []feed.Source) (*feed.Batch, error)
}

// Recorder is told when a cycle completed successfully.
type Recorder interface {
	MarkRefreshed(at time.Time) error
}
