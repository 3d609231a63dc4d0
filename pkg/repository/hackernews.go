package repository

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Borislavv/newest-stories-cache/pkg/config"
	"github.com/Borislavv/newest-stories-cache/pkg/model"
	"github.com/Borislavv/newest-stories-cache/pkg/prometheus/metrics"
	jsoniter "github.com/json-iterator/go"
)

const (
	newStoriesPath = "newstories.json"
	itemPathFormat = "item/%d.json"

	listEndpoint = "list"
	itemEndpoint = "item"
)

var (
	json      = jsoniter.ConfigCompatibleWithStandardLibrary
	nullToken = []byte("null")
)

// IdentifierSource provides the ordered list of newest identifiers.
type IdentifierSource interface {
	// FetchTopIdentifiers returns at most limit identifiers in upstream order. It never retries.
	FetchTopIdentifiers(ctx context.Context, limit int) ([]model.Identifier, error)
}

// RecordFetcher provides a single record by its identifier.
type RecordFetcher interface {
	FetchRecord(ctx context.Context, id model.Identifier) (*model.Story, error)
}

// Upstreamer is the full upstream contract used by the refresher.
type Upstreamer interface {
	IdentifierSource
	RecordFetcher
}

// HackerNews implements Upstreamer over the Hacker News items API.
type HackerNews struct {
	backend *Backend
}

// item is the upstream shape of a record, only the fields we serve are decoded.
type item struct {
	ID      model.Identifier `json:"id"`
	Deleted bool             `json:"deleted"`
	Type    string           `json:"type"`
	By      string           `json:"by"`
	Time    int64            `json:"time"`
	Title   string           `json:"title"`
	URL     string           `json:"url"`
	Score   int              `json:"score"`
}

// NewHackerNews creates the upstream repository.
func NewHackerNews(cfg *config.Upstream, meter metrics.Recorder) *HackerNews {
	return &HackerNews{backend: NewBackend(cfg, meter)}
}

// FetchTopIdentifiers requests the newest stories list and returns its first limit entries.
func (h *HackerNews) FetchTopIdentifiers(ctx context.Context, limit int) ([]model.Identifier, error) {
	body, err := h.backend.Get(ctx, listEndpoint, h.backend.URL(newStoriesPath))
	if err != nil {
		return nil, fmt.Errorf("fetch identifiers: %w", err)
	}

	if bytes.Equal(bytes.TrimSpace(body), nullToken) {
		return nil, fmt.Errorf("fetch identifiers: %w: null instead of array", ErrMalformedResponse)
	}

	var ids []model.Identifier
	if err = json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("fetch identifiers: %w: %w", ErrMalformedResponse, err)
	}

	if limit >= 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// FetchRecord requests a single item. An unknown or deleted item is reported as ErrNotFound.
func (h *HackerNews) FetchRecord(ctx context.Context, id model.Identifier) (*model.Story, error) {
	body, err := h.backend.Get(ctx, itemEndpoint, h.backend.URL(fmt.Sprintf(itemPathFormat, id)))
	if err != nil {
		return nil, fmt.Errorf("fetch item %d: %w", id, err)
	}

	var it *item
	if err = json.Unmarshal(body, &it); err != nil {
		return nil, fmt.Errorf("fetch item %d: %w: %w", id, ErrMalformedResponse, err)
	}
	if it == nil {
		return nil, fmt.Errorf("fetch item %d: %w", id, ErrNotFound)
	}
	if it.ID != id {
		return nil, fmt.Errorf("fetch item %d: %w: got item %d", id, ErrMalformedResponse, it.ID)
	}
	if it.Deleted {
		return nil, fmt.Errorf("fetch item %d: %w: deleted", id, ErrNotFound)
	}

	return &model.Story{
		ID:     it.ID,
		Title:  it.Title,
		Author: it.By,
		Score:  it.Score,
		Time:   it.Time,
		Type:   it.Type,
		URL:    it.URL,
	}, nil
}
