package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSnapshotChecksum(t *testing.T) {
	at := time.Unix(1700000000, 0)
	a := []*Story{
		NewStory(1, "one", "pg", 10, at, "story", "https://a.com"),
		NewStory(2, "two", "dang", 5, at, "story", ""),
	}
	b := []*Story{
		NewStory(1, "one", "pg", 10, at, "story", "https://a.com"),
		NewStory(2, "two", "dang", 5, at, "story", ""),
	}

	require.Equal(t,
		NewSnapshot(1, uuid.New(), time.Now(), a).Checksum(),
		NewSnapshot(2, uuid.New(), time.Now(), b).Checksum(),
	)

	b[1] = NewStory(2, "two", "dang", 6, at, "story", "")
	require.NotEqual(t,
		NewSnapshot(1, uuid.New(), time.Now(), a).Checksum(),
		NewSnapshot(2, uuid.New(), time.Now(), b).Checksum(),
	)

	reversed := []*Story{a[1], a[0]}
	require.NotEqual(t,
		NewSnapshot(1, uuid.New(), time.Now(), a).Checksum(),
		NewSnapshot(2, uuid.New(), time.Now(), reversed).Checksum(),
	)
}

func TestSnapshotStoriesIsACopy(t *testing.T) {
	s := NewSnapshot(1, uuid.New(), time.Now(), []*Story{NewStory(7, "t", "a", 1, time.Now(), "story", "")})

	stories := s.Stories()
	stories[0] = nil

	require.NotNil(t, s.Stories()[0])
	require.Equal(t, []Identifier{7}, s.IDs())
}

func TestNilSnapshotIsEmpty(t *testing.T) {
	s := NewSnapshot(1, uuid.New(), time.Now(), nil)
	require.Zero(t, s.Len())
	require.NotNil(t, s.Stories())
}
