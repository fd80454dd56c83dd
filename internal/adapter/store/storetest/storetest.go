// Package storetest checks port.DocumentStore implementations against one
// shared set of expectations.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edurag/internal/domain"
	"edurag/internal/port"
)

func doc(id, inst string, created time.Time) domain.Document {
	return domain.Document{
		ID:            id,
		InstitutionID: inst,
		Title:         "Title " + id,
		Description:   "Description " + id,
		FileURL:       "https://files.example.com/" + id + ".txt",
		UploadedBy:    "admin-1",
		Text:          "Text of " + id,
		State:         domain.StateUnprocessed,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

// Run exercises a fresh store returned by newStore.
func Run(t *testing.T, newStore func(t *testing.T) port.DocumentStore) {
	ctx := context.Background()
	base := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

	t.Run("PutGet", func(t *testing.T) {
		s := newStore(t)
		want := doc("d1", "unilag", base)
		require.NoError(t, s.Put(ctx, want))

		got, err := s.Get(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.InstitutionID, got.InstitutionID)
		assert.Equal(t, want.Title, got.Title)
		assert.Equal(t, want.Description, got.Description)
		assert.Equal(t, want.FileURL, got.FileURL)
		assert.Equal(t, want.UploadedBy, got.UploadedBy)
		assert.Equal(t, want.Text, got.Text)
		assert.Equal(t, domain.StateUnprocessed, got.State)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		s := newStore(t)
		d := doc("d1", "unilag", base)
		require.NoError(t, s.Put(ctx, d))
		d.Text = "replacement text"
		d.InstitutionID = "ui"
		require.NoError(t, s.Put(ctx, d))

		got, err := s.Get(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, "replacement text", got.Text)

		unilag, err := s.ListByInstitution(ctx, "unilag")
		require.NoError(t, err)
		assert.Empty(t, unilag)
		ui, err := s.ListByInstitution(ctx, "ui")
		require.NoError(t, err)
		assert.Len(t, ui, 1)
	})

	t.Run("ListByInstitution", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, doc("b", "unilag", base.Add(time.Minute))))
		require.NoError(t, s.Put(ctx, doc("a", "unilag", base.Add(time.Minute))))
		require.NoError(t, s.Put(ctx, doc("c", "unilag", base)))
		require.NoError(t, s.Put(ctx, doc("x", "unilagos", base)))
		require.NoError(t, s.Put(ctx, doc("y", "ui", base)))

		docs, err := s.ListByInstitution(ctx, "unilag")
		require.NoError(t, err)
		ids := make([]string, len(docs))
		for i, d := range docs {
			ids[i] = d.ID
		}
		assert.Equal(t, []string{"c", "a", "b"}, ids)

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 5)

		none, err := s.ListByInstitution(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("SetState", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, doc("d1", "unilag", base)))

		require.NoError(t, s.SetState(ctx, "d1", domain.StateFailed, "empty document"))
		got, err := s.Get(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, domain.StateFailed, got.State)
		assert.Equal(t, "empty document", got.FailureReason)
		assert.True(t, got.UpdatedAt.After(base))

		require.NoError(t, s.SetState(ctx, "d1", domain.StateProcessed, ""))
		got, err = s.Get(ctx, "d1")
		require.NoError(t, err)
		assert.True(t, got.IsProcessed())
		assert.Empty(t, got.FailureReason)
		assert.Equal(t, "Text of d1", got.Text)

		assert.ErrorIs(t, s.SetState(ctx, "missing", domain.StateFailed, ""), domain.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, doc("d1", "unilag", base)))
		require.NoError(t, s.Delete(ctx, "d1"))

		_, err := s.Get(ctx, "d1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		docs, err := s.ListByInstitution(ctx, "unilag")
		require.NoError(t, err)
		assert.Empty(t, docs)

		assert.ErrorIs(t, s.Delete(ctx, "d1"), domain.ErrNotFound)
	})
}
