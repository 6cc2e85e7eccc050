package store

import (
	"errors"
	"fmt"

	"voxstream/internal/world"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	lvlstorage "github.com/df-mc/goleveldb/leveldb/storage"
)

// chunkPrefix separates chunk keys from any other records in the database.
const chunkPrefix = 'c'

// LevelDB stores encoded chunks in a LevelDB database.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens or creates a database directory at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		Compression: opt.NoCompression,
		BlockSize:   16 * opt.KiB,
	})
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &LevelDB{db: db}, nil
}

// OpenMemLevelDB opens a LevelDB backed by memory only.
func OpenMemLevelDB() (*LevelDB, error) {
	db, err := leveldb.Open(lvlstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db}, nil
}

// NewLevelDB wraps an already open database.
func NewLevelDB(db *leveldb.DB) *LevelDB {
	return &LevelDB{db: db}
}

func levelKey(r world.Region) []byte {
	return append([]byte{chunkPrefix}, Key(r)...)
}

func (l *LevelDB) Load(r world.Region) ([]world.Material, bool, error) {
	b, err := l.db.Get(levelKey(r), nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("leveldb get %v: %w", r, err)
	}
	data, err := Decode(b, r.Volume())
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (l *LevelDB) Save(r world.Region, data []world.Material) error {
	if err := l.db.Put(levelKey(r), Encode(data), nil); err != nil {
		return fmt.Errorf("leveldb put %v: %w", r, err)
	}
	return nil
}

// Len counts the stored chunks.
func (l *LevelDB) Len() (int, error) {
	it := l.db.NewIterator(nil, nil)
	defer it.Release()
	n := 0
	for it.Next() {
		if len(it.Key()) > 0 && it.Key()[0] == chunkPrefix {
			n++
		}
	}
	return n, it.Error()
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}
