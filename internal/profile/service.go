package profile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Vovarama1992/language_buddy/internal/kv"
)

type service struct {
	store kv.Store
	log   *zap.Logger
}

func NewService(store kv.Store, log *zap.Logger) Service {
	return &service{
		store: store,
		log:   log.Named("profile"),
	}
}

func (s *service) Load(ctx context.Context) Profile {
	var p Profile
	ok, err := kv.GetJSON(ctx, s.store, kv.KeyProfile, &p)
	if err != nil {
		s.log.Warn("stored profile unreadable, using defaults", zap.Error(err))
		return Default()
	}
	if !ok {
		return Default()
	}
	if !p.Level.Valid() {
		s.log.Warn("stored profile has unknown level, using defaults", zap.String("level", string(p.Level)))
		return Default()
	}
	return p
}

func (s *service) Save(ctx context.Context, p Profile) error {
	if !p.Level.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLevel, p.Level)
	}

	// сохраняем как есть, чтобы Load вернул тот же профиль
	if err := kv.SetJSON(ctx, s.store, kv.KeyProfile, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *service) AddInterest(ctx context.Context, interest string) (Profile, error) {
	interest = strings.TrimSpace(interest)
	if interest == "" {
		return Profile{}, ErrEmptyInterest
	}

	p := s.Load(ctx)
	for _, in := range p.Interests {
		if in == interest {
			return p, nil
		}
	}

	p = p.Clone()
	p.Interests = append(p.Interests, interest)
	if err := s.Save(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *service) RemoveInterest(ctx context.Context, index int) (Profile, error) {
	p := s.Load(ctx)
	if index < 0 || index >= len(p.Interests) {
		return Profile{}, fmt.Errorf("%w: %d", ErrInterestMissing, index)
	}

	p.Interests = append(p.Interests[:index:index], p.Interests[index+1:]...)
	if err := s.Save(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}
