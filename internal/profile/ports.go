package profile

import (
	"context"
	"errors"
)

type Level string

const (
	Beginner     Level = "beginner"
	Intermediate Level = "intermediate"
	Advanced     Level = "advanced"
)

func (l Level) Valid() bool {
	switch l {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

var (
	ErrInvalidLevel    = errors.New("invalid level")
	ErrEmptyInterest   = errors.New("interest is empty")
	ErrInterestMissing = errors.New("interest index out of range")
)

type Profile struct {
	NativeLanguage string   `json:"nativeLanguage"`
	Level          Level    `json:"level"`
	Interests      []string `json:"interests"`
}

// Default: профиль первого запуска.
func Default() Profile {
	return Profile{
		NativeLanguage: "english",
		Level:          Beginner,
		Interests:      []string{},
	}
}

// Clone returns a copy that shares no slice with p.
func (p Profile) Clone() Profile {
	out := p
	out.Interests = append([]string{}, p.Interests...)
	return out
}

type Service interface {
	// Load никогда не возвращает ошибку: битые или отсутствующие данные
	// дают профиль по умолчанию.
	Load(ctx context.Context) Profile
	Save(ctx context.Context, p Profile) error

	AddInterest(ctx context.Context, interest string) (Profile, error)
	RemoveInterest(ctx context.Context, index int) (Profile, error)
}
