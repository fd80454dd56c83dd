package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 2

var keySchemaVersion = []byte("schema_version")

// SchemaVersion returns the stored schema version, 0 for a fresh file.
func (s *BoltStore) SchemaVersion() (int, error) {
	var version int
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySchemaVersion)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &version)
	})
	return version, err
}

// Migrate upgrades the file to CurrentSchemaVersion. Files written by a newer
// version are refused.
func (s *BoltStore) Migrate() error {
	version, err := s.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("database created by newer version (v%d > v%d)", version, CurrentSchemaVersion)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		for v := version; v < CurrentSchemaVersion; v++ {
			if err := runMigration(tx, v, v+1); err != nil {
				return fmt.Errorf("migration from v%d to v%d failed: %w", v, v+1, err)
			}
		}
		data, err := json.Marshal(CurrentSchemaVersion)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keySchemaVersion, data)
	})
}

// runMigration runs a specific version migration.
func runMigration(tx *bbolt.Tx, from, to int) error {
	switch {
	case from == 0 && to == 1:
		return nil
	case from == 1 && to == 2:
		// v2 adds the per-institution key index.
		idx, err := tx.CreateBucketIfNotExists(bucketInstDocs)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var rec docRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode document %s: %w", k, err)
			}
			return idx.Put(instKey(rec.InstitutionID, string(k)), []byte{})
		})
	default:
		return nil
	}
}
