package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"edurag/internal/adapter/store/storetest"
	"edurag/internal/domain"
	"edurag/internal/port"
)

func domainDoc(id, inst string) domain.Document {
	now := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	return domain.Document{
		ID:            id,
		InstitutionID: inst,
		Title:         "Title " + id,
		Text:          "Text of " + id,
		State:         domain.StateUnprocessed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("EDURAG_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("EDURAG_TEST_POSTGRES_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) port.DocumentStore {
		ctx := context.Background()
		s, err := NewPostgresStore(ctx, dsn)
		require.NoError(t, err)
		require.NoError(t, s.Init(ctx))
		_, err = s.pool.Exec(ctx, "TRUNCATE uploaded_documents")
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}
