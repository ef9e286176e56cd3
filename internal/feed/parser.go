package feed

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const untitled = "Untitled"

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
	}
}

// Parse decodes an RSS, Atom or JSON feed document into items labelled
// with src. Entries without a link are dropped.
func (p *Parser) Parse(reader io.Reader, src Source) ([]Item, error) {
	parsed, err := p.parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry == nil {
			continue
		}
		link := strings.TrimSpace(entry.Link)
		if link == "" {
			continue
		}

		title := strings.TrimSpace(PlainText(entry.Title))
		if title == "" {
			title = untitled
		}

		items = append(items, Item{
			ID:        ItemID(src.Name, link),
			Source:    src.Name,
			Title:     title,
			Summary:   PlainText(getSummary(entry)),
			Link:      link,
			Published: getPublished(entry),
		})
	}

	return items, nil
}

// ParseBytes is Parse over an in-memory document.
func (p *Parser) ParseBytes(body []byte, src Source) ([]Item, error) {
	return p.Parse(bytes.NewReader(body), src)
}

func getSummary(entry *gofeed.Item) string {
	if strings.TrimSpace(entry.Description) != "" {
		return entry.Description
	}
	return entry.Content
}

func getPublished(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed
	}
	return time.Time{}
}
