package vocabulary

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Vovarama1992/language_buddy/internal/kv"
)

type Option func(*service)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	mu    sync.Mutex
	store kv.Store
	log   *zap.Logger
	now   func() time.Time
	items []Item
}

// NewService loads the persisted collection. Missing or malformed data starts
// an empty collection.
func NewService(ctx context.Context, store kv.Store, log *zap.Logger, opts ...Option) Service {
	s := &service{
		store: store,
		log:   log.Named("vocabulary"),
		now:   time.Now,
		items: []Item{},
	}
	for _, opt := range opts {
		opt(s)
	}

	var items []Item
	ok, err := kv.GetJSON(ctx, store, kv.KeyVocabulary, &items)
	switch {
	case err != nil:
		s.log.Warn("stored vocabulary unreadable, starting empty", zap.Error(err))
	case ok && items != nil:
		s.items = items
	}
	return s
}

func (s *service) List(ctx context.Context) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneItems(s.items)
}

func (s *service) Add(ctx context.Context, japanese, english, romaji string) (Item, error) {
	japanese = strings.TrimSpace(japanese)
	english = strings.TrimSpace(english)
	if japanese == "" || english == "" {
		return Item{}, ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := Item{
		Japanese:  japanese,
		English:   english,
		Romaji:    strings.TrimSpace(romaji),
		DateAdded: s.now(),
	}

	next := append(cloneItems(s.items), item)
	if err := s.persist(ctx, next); err != nil {
		return Item{}, err
	}
	s.items = next
	return item, nil
}

func (s *service) Review(ctx context.Context, index int) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return Item{}, fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}

	next := cloneItems(s.items)
	reviewed := s.now()
	next[index].ReviewCount++
	next[index].LastReviewed = &reviewed

	if err := s.persist(ctx, next); err != nil {
		return Item{}, err
	}
	s.items = next
	return next[index], nil
}

func (s *service) Remove(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}

	next := make([]Item, 0, len(s.items)-1)
	next = append(next, s.items[:index]...)
	next = append(next, s.items[index+1:]...)

	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.items = next
	return nil
}

// сначала пишем, потом меняем состояние в памяти
func (s *service) persist(ctx context.Context, items []Item) error {
	if err := kv.SetJSON(ctx, s.store, kv.KeyVocabulary, items); err != nil {
		s.log.Error("persist vocabulary failed", zap.Error(err))
		return fmt.Errorf("save vocabulary: %w", err)
	}
	return nil
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	for i := range out {
		if out[i].LastReviewed != nil {
			t := *out[i].LastReviewed
			out[i].LastReviewed = &t
		}
	}
	return out
}
