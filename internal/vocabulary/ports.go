package vocabulary

import (
	"context"
	"errors"
	"time"
)

var (
	ErrValidation = errors.New("japanese and english are required")
	ErrOutOfRange = errors.New("vocabulary index out of range")
)

// Item: одна карточка.
type Item struct {
	Japanese     string     `json:"japanese"`
	English      string     `json:"english"`
	Romaji       string     `json:"romaji,omitempty"`
	DateAdded    time.Time  `json:"dateAdded"`
	ReviewCount  int        `json:"reviewCount"`
	LastReviewed *time.Time `json:"lastReviewed,omitempty"`
}

type Service interface {
	List(ctx context.Context) []Item
	Add(ctx context.Context, japanese, english, romaji string) (Item, error)
	Review(ctx context.Context, index int) (Item, error)
	Remove(ctx context.Context, index int) error
}
