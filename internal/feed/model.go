package feed

import (
	"fmt"
	"time"
)

// Source names a feed and where to fetch it from.
type Source struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// Item is one entry of a fetched feed. Items are values; nothing mutates
// them after the parser hands them out.
type Item struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Link      string    `json:"link"`
	Published time.Time `json:"published"`
}

// ItemID builds the display identifier for an item of the named source.
func ItemID(source, link string) string {
	return source + "::" + link
}

// HasPublished reports whether the feed carried a usable timestamp.
func (i Item) HasPublished() bool {
	return !i.Published.IsZero()
}

// Failure records one feed that could not be fetched or parsed during a cycle.
type Failure struct {
	Source Source
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Source.Name, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Batch is the merged result of one fetch cycle.
type Batch struct {
	Items    []Item
	Failures []Failure
}

// Failed returns how many feeds failed in the cycle.
func (b *Batch) Failed() int {
	if b == nil {
		return 0
	}
	return len(b.Failures)
}
