package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pders01/newsbox/internal/debuglog"
)

const DefaultConcurrency = 4

var (
	ErrNoFeeds        = errors.New("no feeds configured")
	ErrAllFeedsFailed = errors.New("all feeds failed")
	errNoSnapshot     = errors.New("server answered 304 but no cached copy exists")
)

// Snapshot is what the cache remembers about a feed URL between cycles.
type Snapshot struct {
	Validators Validators `json:"validators"`
	Items      []Item     `json:"items"`
	FetchedAt  time.Time  `json:"fetched_at"`
}

// Cache stores the last good copy of each feed for conditional requests.
type Cache interface {
	Snapshot(url string) (Snapshot, bool)
	PutSnapshot(url string, snap Snapshot) error
}

// Aggregator fetches every configured feed concurrently and merges the
// results into one newest-first list.
type Aggregator struct {
	fetcher     *Fetcher
	parser      *Parser
	cache       Cache
	concurrency int
	now         func() time.Time
}

// NewAggregator wires a fetcher to an optional cache. A nil cache disables
// conditional requests.
func NewAggregator(fetcher *Fetcher, cache Cache, concurrency int) *Aggregator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Aggregator{
		fetcher:     fetcher,
		parser:      NewParser(),
		cache:       cache,
		concurrency: concurrency,
		now:         time.Now,
	}
}

type sourceResult struct {
	items []Item
	err   error
}

// FetchAll runs one fetch cycle. A single feed failing is recorded in the
// batch and does not stop the others; the cycle fails only when there is
// nothing to fetch or every feed failed.
func (a *Aggregator) FetchAll(ctx context.Context, sources []Source) (*Batch, error) {
	if len(sources) == 0 {
		return nil, ErrNoFeeds
	}

	results := make([]sourceResult, len(sources))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			items, err := a.fetchSource(ctx, src)
			results[i] = sourceResult{items: items, err: err}
			return nil
		})
	}
	_ = g.Wait()

	batch := &Batch{}
	for i, res := range results {
		if res.err != nil {
			debuglog.Warn("feed fetch failed", "feed", sources[i].Name, "url", sources[i].URL, "error", res.err)
			batch.Failures = append(batch.Failures, Failure{Source: sources[i], Err: res.err})
			continue
		}
		batch.Items = append(batch.Items, res.items...)
	}

	if len(batch.Failures) == len(sources) {
		first := batch.Failures[0]
		if len(sources) == 1 {
			return nil, fmt.Errorf("%w: %v", ErrAllFeedsFailed, first)
		}
		return nil, fmt.Errorf("%w (%d feeds, first: %v)", ErrAllFeedsFailed, len(sources), first)
	}

	SortNewestFirst(batch.Items)
	debuglog.Info("fetch cycle finished", "items", len(batch.Items), "failed", batch.Failed())
	return batch, nil
}

func (a *Aggregator) fetchSource(ctx context.Context, src Source) ([]Item, error) {
	var (
		snap   Snapshot
		cached bool
	)
	if a.cache != nil {
		snap, cached = a.cache.Snapshot(src.URL)
	}

	prev := Validators{}
	if cached {
		prev = snap.Validators
	}

	resp, err := a.fetcher.Fetch(ctx, src.URL, prev)
	if err != nil {
		return nil, err
	}

	if resp.NotModified {
		if !cached {
			return nil, errNoSnapshot
		}
		debuglog.Debug("feed not modified", "feed", src.Name)
		return relabel(snap.Items, src), nil
	}

	items, err := a.parser.ParseBytes(resp.Body, src)
	if err != nil {
		return nil, err
	}

	if a.cache != nil && (resp.Validators.ETag != "" || resp.Validators.LastModified != "") {
		err := a.cache.PutSnapshot(src.URL, Snapshot{
			Validators: resp.Validators,
			Items:      items,
			FetchedAt:  a.now(),
		})
		if err != nil {
			debuglog.Warn("caching feed snapshot failed", "feed", src.Name, "error", err)
		}
	}

	return items, nil
}

// relabel attributes cached items to src, whose display name may have
// changed since they were stored.
func relabel(items []Item, src Source) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		it.Source = src.Name
		it.ID = ItemID(src.Name, it.Link)
		out[i] = it
	}
	return out
}

// SortNewestFirst orders items by publication time, newest first, with
// untimestamped items last. Equal keys keep their input order.
func SortNewestFirst(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.HasPublished() != b.HasPublished() {
			return a.HasPublished()
		}
		return a.Published.After(b.Published)
	})
}
