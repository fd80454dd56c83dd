package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"edurag/internal/adapter/store/storetest"
	"edurag/internal/port"
)

func newTestBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "documents.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBoltStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) port.DocumentStore {
		return newTestBoltStore(t)
	})
}

func TestBoltStore_SchemaVersion(t *testing.T) {
	s := newTestBoltStore(t)
	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v)
}

func TestBoltStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.db")
	s, err := NewBoltStore(path)
	require.NoError(t, err)
	d := domainDoc("d1", "unilag")
	require.NoError(t, s.Put(context.Background(), d))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, d.Text, got.Text)
}

func TestBoltStore_MigratesV1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.db")

	// a v1 file has documents but no per-institution index
	db, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		docs, err := tx.CreateBucket(bucketDocs)
		if err != nil {
			return err
		}
		data, err := json.Marshal(toRecord(domainDoc("old", "unilag")))
		if err != nil {
			return err
		}
		if err := docs.Put([]byte("old"), data); err != nil {
			return err
		}
		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		return meta.Put(keySchemaVersion, []byte("1"))
	}))
	require.NoError(t, db.Close())

	s, err := NewBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	docs, err := s.ListByInstitution(context.Background(), "unilag")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "old", docs[0].ID)
}

func TestBoltStore_RefusesNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.db")
	db, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		return meta.Put(keySchemaVersion, []byte("99"))
	}))
	require.NoError(t, db.Close())

	_, err = NewBoltStore(path)
	assert.Error(t, err)
}
