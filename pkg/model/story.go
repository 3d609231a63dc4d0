package model

import (
	"strconv"
	"time"
)

// Identifier is a key into the upstream item space.
type Identifier int64

func (id Identifier) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Story is a single upstream record. It is never mutated once constructed,
// so the same pointer may be shared by any number of snapshots and readers.
type Story struct {
	ID     Identifier `json:"id"`
	Title  string     `json:"title"`
	Author string     `json:"by"`
	Score  int        `json:"score"`
	Time   int64      `json:"time"` // unix seconds, as the upstream sends it
	Type   string     `json:"type"`
	URL    string     `json:"url,omitempty"`
}

// NewStory builds an immutable story record.
func NewStory(id Identifier, title, author string, score int, createdAt time.Time, typ, url string) *Story {
	return &Story{
		ID:     id,
		Title:  title,
		Author: author,
		Score:  score,
		Time:   createdAt.Unix(),
		Type:   typ,
		URL:    url,
	}
}

// CreatedAt returns the creation time of the story.
func (s *Story) CreatedAt() time.Time {
	return time.Unix(s.Time, 0).UTC()
}
