package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vovarama1992/language_buddy/internal/kv"
)

func newTestService(t *testing.T) (Service, kv.Store) {
	t.Helper()
	store := kv.NewMemoryStore()
	return NewService(store, zap.NewNop()), store
}

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Equal(t, Default(), svc.Load(context.Background()))
}

func TestLoad_DefaultsWhenMalformed(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	require.NoError(t, store.Set(ctx, kv.KeyProfile, "{oops"))
	assert.Equal(t, Default(), svc.Load(ctx))

	require.NoError(t, store.Set(ctx, kv.KeyProfile, `{"nativeLanguage":"english","level":"expert"}`))
	assert.Equal(t, Default(), svc.Load(ctx))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	p := Profile{NativeLanguage: "spanish", Level: Intermediate, Interests: []string{"anime", "cooking"}}
	require.NoError(t, svc.Save(ctx, p))
	assert.Equal(t, p, svc.Load(ctx))

	// перезапись, без слияния
	q := Profile{NativeLanguage: "english", Level: Advanced, Interests: []string{}}
	require.NoError(t, svc.Save(ctx, q))
	assert.Equal(t, q, svc.Load(ctx))
}

func TestSaveLoad_RoundTripIsExact(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	cases := []Profile{
		{NativeLanguage: "japanese", Level: Beginner},
		{NativeLanguage: " french ", Level: Intermediate, Interests: []string{" anime ", "anime"}},
		{NativeLanguage: "", Level: Advanced, Interests: nil},
	}
	for _, p := range cases {
		require.NoError(t, svc.Save(ctx, p))
		assert.Equal(t, p, svc.Load(ctx))
	}
}

func TestSave_RejectsUnknownLevel(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	err := svc.Save(ctx, Profile{NativeLanguage: "english", Level: "expert"})
	assert.ErrorIs(t, err, ErrInvalidLevel)

	_, ok, err := store.Get(ctx, kv.KeyProfile)
	require.NoError(t, err)
	assert.False(t, ok, "rejected profile must not be persisted")
}

func TestInterests(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.AddInterest(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyInterest)

	p, err := svc.AddInterest(ctx, " travel ")
	require.NoError(t, err)
	assert.Equal(t, []string{"travel"}, p.Interests)

	_, err = svc.AddInterest(ctx, "music")
	require.NoError(t, err)
	p, err = svc.AddInterest(ctx, "travel")
	require.NoError(t, err)
	assert.Equal(t, []string{"travel", "music"}, p.Interests)

	p, err = svc.RemoveInterest(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"music"}, p.Interests)
	assert.Equal(t, []string{"music"}, svc.Load(ctx).Interests)

	_, err = svc.RemoveInterest(ctx, 5)
	assert.ErrorIs(t, err, ErrInterestMissing)
}
