package store

import (
	"encoding/binary"
	"fmt"

	"github.com/zarko379/iMangarr-ng/internal/domain"
)

// Key layout:
//
//	settings:config             JSON settings
//	library:next                big-endian uint64, next free position
//	library:entry:<position>    JSON entry, position zero padded so keys sort in insertion order
//	library:id:<manga id>       position of the entry holding that id
var (
	settingsKey      = []byte("settings:config")
	libraryPrefix    = []byte("library:")
	libraryNextKey   = []byte("library:next")
	entryPrefix      = []byte("library:entry:")
	entryIndexPrefix = "library:id:"
)

func entryKey(position uint64) []byte {
	return fmt.Appendf(nil, "%s%020d", entryPrefix, position)
}

func entryIndexKey(id domain.MangaID) []byte {
	return append([]byte(entryIndexPrefix), id.String()...)
}

func encodePosition(position uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, position)
}

func decodePosition(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("position value has %d bytes", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}
