package service

import (
	"context"

	"github.com/Borislavv/newest-stories-cache/pkg/model"
)

// Snapshotter gives access to the current snapshot, refreshing it when needed.
type Snapshotter interface {
	Get(ctx context.Context) (*model.Snapshot, error)
}

// Stories is the surface exposed to the transport layer.
type Stories struct {
	storage Snapshotter
}

func NewStories(storage Snapshotter) *Stories {
	return &Stories{storage: storage}
}

// GetNewestStories returns the newest stories, newest first. The result is
// empty (not an error) when every item failed; an error means the identifier
// list could not be obtained and no usable snapshot exists.
func (s *Stories) GetNewestStories(ctx context.Context) ([]*model.Story, error) {
	snapshot, err := s.storage.Get(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Stories(), nil
}

// Snapshot returns the whole snapshot, including its checksum and fetch time.
func (s *Stories) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	return s.storage.Get(ctx)
}
