package archive

import (
	"context"

	"palette-makeup-server/modules/common/database"
)

// dbStore - database.Client 기반 RecordStore
type dbStore struct {
	db *database.Client
}

func (s *dbStore) InsertRecord(_ context.Context, rec Record) error {
	return s.db.Insert(resultsTable, rec)
}
