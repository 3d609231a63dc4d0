package mock

import (
	"math/rand"
	"strings"
	"time"

	"github.com/Borislavv/newest-stories-cache/pkg/model"
)

const (
	minStrLen = 8
	maxStrLen = 128
)

var storyTypes = []string{"story", "job", "poll"}

// GenerateRandomStories returns num stories with sequential identifiers starting from 1.
func GenerateRandomStories(num int) []*model.Story {
	list := make([]*model.Story, 0, num)
	now := time.Now()
	for i := 1; i <= num; i++ {
		url := ""
		if i%5 != 0 { // every fifth story is a text post
			url = "https://" + strings.ToLower(GenerateRandomString()) + ".com"
		}
		list = append(list, model.NewStory(
			model.Identifier(i),
			GenerateRandomString(),
			GenerateRandomString(),
			rand.Intn(1000),
			now.Add(-time.Duration(i)*time.Minute),
			storyTypes[i%len(storyTypes)],
			url,
		))
	}
	return list
}

func GenerateRandomString() string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	length := rand.Intn(maxStrLen-minStrLen+1) + minStrLen

	var sb strings.Builder
	sb.Grow(length)

	for i := 0; i < length; i++ {
		sb.WriteByte(letters[rand.Intn(len(letters))])
	}

	return sb.String()
}
