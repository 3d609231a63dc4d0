package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Borislavv/newest-stories-cache/pkg/mock"
	"github.com/Borislavv/newest-stories-cache/pkg/model"
	"github.com/Borislavv/newest-stories-cache/pkg/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type snapshotterFunc func(ctx context.Context) (*model.Snapshot, error)

func (f snapshotterFunc) Get(ctx context.Context) (*model.Snapshot, error) { return f(ctx) }

func TestGetNewestStories(t *testing.T) {
	stories := mock.GenerateRandomStories(5)
	snapshot := model.NewSnapshot(1, uuid.New(), time.Now(), stories)
	svc := NewStories(snapshotterFunc(func(context.Context) (*model.Snapshot, error) {
		return snapshot, nil
	}))

	got, err := svc.GetNewestStories(context.Background())
	require.NoError(t, err)
	require.Equal(t, stories, got)

	// Callers own the returned slice.
	got[0] = nil
	again, err := svc.GetNewestStories(context.Background())
	require.NoError(t, err)
	require.NotNil(t, again[0])
}

func TestGetNewestStoriesEmptyIsNotAnError(t *testing.T) {
	svc := NewStories(snapshotterFunc(func(context.Context) (*model.Snapshot, error) {
		return model.NewSnapshot(1, uuid.New(), time.Now(), nil), nil
	}))

	got, err := svc.GetNewestStories(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestGetNewestStoriesPropagatesError(t *testing.T) {
	svc := NewStories(snapshotterFunc(func(context.Context) (*model.Snapshot, error) {
		return nil, errors.Join(errors.New("refresh failed"), repository.ErrUpstreamUnavailable)
	}))

	got, err := svc.GetNewestStories(context.Background())
	require.ErrorIs(t, err, repository.ErrUpstreamUnavailable)
	require.Nil(t, got)
}
