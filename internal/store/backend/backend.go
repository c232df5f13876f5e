// Package backend opens the storage backend selected in configuration.
package backend

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/zarko379/iMangarr-ng/internal/config"
	"github.com/zarko379/iMangarr-ng/internal/store"
	"github.com/zarko379/iMangarr-ng/internal/store/jsonfile"
	"github.com/zarko379/iMangarr-ng/internal/store/sqlite"
)

// Open returns the backend named kind rooted at dataDir.
//
//	json    {dataDir}/config.json, {dataDir}/library.json
//	badger  {dataDir}/badger/
//	sqlite  {dataDir}/imangarr.db
//	memory  nothing on disk
func Open(kind, dataDir string, logger *slog.Logger) (store.Backend, error) {
	var (
		b   store.Backend
		err error
	)

	switch kind {
	case config.BackendJSON, "":
		b, err = orNil(jsonfile.Open(dataDir, logger))
	case config.BackendBadger:
		b, err = orNil(store.New(filepath.Join(dataDir, "badger"), logger))
	case config.BackendSQLite:
		b, err = orNil(sqlite.Open(filepath.Join(dataDir, "imangarr.db"), logger))
	case config.BackendMemory:
		b = store.NewMemory()
	default:
		return nil, fmt.Errorf("unknown library backend %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", kind, err)
	}
	return b, nil
}

// orNil keeps a failed constructor's typed nil pointer out of the interface.
func orNil[T store.Backend](b T, err error) (store.Backend, error) {
	if err != nil {
		return nil, err
	}
	return b, nil
}
