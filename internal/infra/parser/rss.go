package parser

import (
	"bytes"
	"strings"

	"daily-digest/internal/domain/entity"

	"github.com/mmcdole/gofeed"
)

// maxFeedEntries bounds the number of feed entries considered.
const maxFeedEntries = 20

// rss decodes RSS and Atom feeds with gofeed.
func (d *decoders) rss(resp *entity.RawResponse) (*entity.ContentBundle, error) {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, &entity.ParseError{Parser: entity.ParserRSS, Message: "empty body", Err: entity.ErrEmptyContent}
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, &entity.ParseError{Parser: entity.ParserRSS, Message: "invalid feed", Err: err}
	}

	title := strings.TrimSpace(feed.Title)
	if title == "" {
		title = "RSS"
	}
	bundle := d.newBundle(title, title)
	if feed.UpdatedParsed != nil {
		bundle.UpdateTime = feed.UpdatedParsed.Format(timeLayout)
	}

	entries := feed.Items
	if len(entries) > maxFeedEntries {
		entries = entries[:maxFeedEntries]
	}
	for i, it := range entries {
		if it == nil {
			continue
		}
		itemTitle := strings.TrimSpace(it.Title)
		if itemTitle == "" {
			continue
		}
		item := entity.ContentItem{
			Title:       itemTitle,
			URL:         it.Link,
			Index:       i + 1,
			Description: it.Description,
			PublishedAt: it.Published,
		}
		if it.Image != nil {
			item.ImageURL = it.Image.URL
		}
		bundle.Items = append(bundle.Items, item)
	}
	return bundle, nil
}
