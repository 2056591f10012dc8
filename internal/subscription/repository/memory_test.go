package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terang55/rainbow-rich-auth-server/internal/subscription"
)

func sampleRecord(subject, expires string) *subscription.Record {
	return &subscription.Record{
		SubjectID:    subject,
		ExpiresOn:    expires,
		CreatedAt:    time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		DurationDays: 30,
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()

	rec, err := store.Get(context.Background(), "default", "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMemoryStore_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "default", "a@b.com", sampleRecord("a@b.com", "2024-01-31")))

	rec, err := store.Get(ctx, "default", "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "2024-01-31", rec.ExpiresOn)
	assert.Equal(t, 30, rec.DurationDays)
}

func TestMemoryStore_ScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "default", "a@b.com", sampleRecord("a@b.com", "2024-01-31")))

	rec, err := store.Get(ctx, "rainbowg", "a@b.com")
	require.NoError(t, err)
	assert.Nil(t, rec)

	list, err := store.List(ctx, "rainbowg")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryStore_PutReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	renewed := time.Now().UTC()
	first := sampleRecord("a@b.com", "2024-01-31")
	first.RenewedAt = &renewed
	require.NoError(t, store.Put(ctx, "default", "a@b.com", first))
	require.NoError(t, store.Put(ctx, "default", "a@b.com", sampleRecord("a@b.com", "2025-01-01")))

	rec, err := store.Get(ctx, "default", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", rec.ExpiresOn)
	assert.Nil(t, rec.RenewedAt)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "default", "a@b.com", sampleRecord("a@b.com", "2024-01-31")))

	rec, err := store.Get(ctx, "default", "a@b.com")
	require.NoError(t, err)
	rec.ExpiresOn = "1999-01-01"

	again, err := store.Get(ctx, "default", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", again.ExpiresOn)
}

func TestMemoryStore_Patch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "default", "a@b.com", sampleRecord("a@b.com", "2024-01-31")))

	expires := "2024-03-01"
	days := 30
	renewed := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Patch(ctx, "default", "a@b.com", subscription.Patch{
		ExpiresOn:    &expires,
		RenewedAt:    &renewed,
		DurationDays: &days,
	}))

	rec, err := store.Get(ctx, "default", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", rec.ExpiresOn)
	require.NotNil(t, rec.RenewedAt)
	assert.True(t, renewed.Equal(*rec.RenewedAt))
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), rec.CreatedAt)
}

func TestMemoryStore_PatchMissing(t *testing.T) {
	store := NewMemoryStore()
	expires := "2024-03-01"

	err := store.Patch(context.Background(), "default", "ghost@b.com", subscription.Patch{ExpiresOn: &expires})
	assert.ErrorIs(t, err, subscription.ErrNotFound)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "default", "a@b.com", sampleRecord("a@b.com", "2024-01-31")))

	require.NoError(t, store.Delete(ctx, "default", "a@b.com"))
	assert.ErrorIs(t, store.Delete(ctx, "default", "a@b.com"), subscription.ErrNotFound)

	rec, err := store.Get(ctx, "default", "a@b.com")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMemoryStore_ListSorted(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, s := range []string{"c@x.com", "a@x.com", "b@x.com"} {
		require.NoError(t, store.Put(ctx, "default", s, sampleRecord(s, "2024-01-31")))
	}

	list, err := store.List(ctx, "default")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a@x.com", list[0].SubjectID)
	assert.Equal(t, "b@x.com", list[1].SubjectID)
	assert.Equal(t, "c@x.com", list[2].SubjectID)
}
