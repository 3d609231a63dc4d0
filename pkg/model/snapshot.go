package model

import (
	"encoding/binary"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// Snapshot is the ordered result of one completed refresh cycle.
// All fields are set at construction and never change afterwards.
type Snapshot struct {
	seq       uint64    // refresh cycle sequence, strictly increasing per refresher
	cycle     uuid.UUID // refresh cycle identity (used for log correlation)
	fetchedAt time.Time
	stories   []*Story
	checksum  uint64
}

// NewSnapshot takes ownership of stories; the caller must not modify the slice afterwards.
func NewSnapshot(seq uint64, cycle uuid.UUID, fetchedAt time.Time, stories []*Story) *Snapshot {
	if stories == nil {
		stories = []*Story{}
	}
	return &Snapshot{
		seq:       seq,
		cycle:     cycle,
		fetchedAt: fetchedAt,
		stories:   stories,
		checksum:  checksum(stories),
	}
}

func (s *Snapshot) Seq() uint64 { return s.seq }
func (s *Snapshot) Cycle() uuid.UUID { return s.cycle }
func (s *Snapshot) FetchedAt() time.Time { return s.fetchedAt }
func (s *Snapshot) Len() int { return len(s.stories) }

// Checksum is an xxh3 digest over the content of all stories in order.
// Two snapshots with equal checksums carry the same stories.
func (s *Snapshot) Checksum() uint64 { return s.checksum }

// Stories returns the stories in upstream order. The returned slice is a copy,
// the stories themselves are shared.
func (s *Snapshot) Stories() []*Story {
	return slices.Clone(s.stories)
}

// IDs returns the identifiers of the snapshot in order.
func (s *Snapshot) IDs() []Identifier {
	ids := make([]Identifier, len(s.stories))
	for i, story := range s.stories {
		ids[i] = story.ID
	}
	return ids
}

func checksum(stories []*Story) uint64 {
	buf := make([]byte, 0, len(stories)*128)
	for _, s := range stories {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(s.ID))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(s.Score))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(s.Time))
		buf = append(buf, s.Title...)
		buf = append(buf, 0)
		buf = append(buf, s.Author...)
		buf = append(buf, 0)
		buf = append(buf, s.Type...)
		buf = append(buf, 0)
		buf = append(buf, s.URL...)
		buf = append(buf, 0)
	}
	return xxh3.Hash(buf)
}
