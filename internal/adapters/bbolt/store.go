// Package bbolt implements the ports.DatasetStore interface using bbolt
// (embedded B+ tree). Each dataset gets its own top-level bucket keyed by its
// ID, holding a JSON header under "meta" and the binary-encoded tracks under
// "tracks". The "_catalog" bucket records which dataset is current. Writes
// are transactional: a crash mid-write cannot corrupt previously committed
// data.
package bbolt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/corey/gbsearch/internal/ports"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Bucket keys
var (
	bucketCatalog = []byte("_catalog")
	keyCurrent    = []byte("current")
	keyMeta       = []byte("meta")
	keyTracks     = []byte("tracks")
)

// Store implements ports.DatasetStore backed by bbolt.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

var _ ports.DatasetStore = (*Store)(nil)

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// datasetMeta is the JSON header of a stored dataset. Track contents live in
// the binary "tracks" blob; the counts are kept here so listing does not
// decode features.
type datasetMeta struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	Sources      []string          `json:"sources,omitempty"`
	TrackCount   int               `json:"track_count"`
	FeatureCount int               `json:"feature_count"`
	SavedAt      int64             `json:"saved_at"`
}

func (m *datasetMeta) info() ports.DatasetInfo {
	return ports.DatasetInfo{
		ID:           m.ID,
		Name:         m.Name,
		TrackCount:   m.TrackCount,
		FeatureCount: m.FeatureCount,
		SavedAt:      m.SavedAt,
	}
}

// SaveDataset persists a dataset with all its tracks, replacing any dataset
// stored under the same ID.
func (s *Store) SaveDataset(ds *ports.Dataset) error {
	if ds == nil {
		return fmt.Errorf("nil dataset")
	}
	if ds.ID == uuid.Nil {
		return fmt.Errorf("dataset %q has no ID", ds.Name)
	}

	meta := datasetMeta{
		ID:           ds.ID,
		Name:         ds.Name,
		Attributes:   ds.Attributes,
		Sources:      ds.Sources,
		TrackCount:   len(ds.Tracks),
		FeatureCount: ds.FeatureCount(),
		SavedAt:      s.now().UnixNano(),
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal dataset meta: %w", err)
	}
	tracks, err := encodeTracks(ds.Tracks)
	if err != nil {
		return fmt.Errorf("encode tracks: %w", err)
	}

	key := datasetKey(ds.ID)
	return s.db.Update(func(tx *bolt.Tx) error {
		// Replace wholesale so a shrinking dataset leaves nothing behind.
		if err := tx.DeleteBucket(key); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket(key)
		if err != nil {
			return err
		}
		if err := b.Put(keyMeta, metaJSON); err != nil {
			return err
		}
		return b.Put(keyTracks, tracks)
	})
}

// LoadDataset retrieves a dataset by ID.
// Returns nil, nil if no such dataset exists.
func (s *Store) LoadDataset(id uuid.UUID) (*ports.Dataset, error) {
	var metaJSON, tracksBin []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(datasetKey(id))
		if b == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		metaJSON = copyBytes(b.Get(keyMeta))
		tracksBin = copyBytes(b.Get(keyTracks))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if metaJSON == nil {
		return nil, nil
	}

	var meta datasetMeta
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal dataset %s meta: %w", id, err)
	}
	ds := &ports.Dataset{
		ID:         meta.ID,
		Name:       meta.Name,
		Attributes: meta.Attributes,
		Sources:    meta.Sources,
	}
	if ds.Attributes == nil {
		ds.Attributes = make(map[string]string)
	}
	if tracksBin != nil {
		if ds.Tracks, err = decodeTracks(tracksBin); err != nil {
			return nil, fmt.Errorf("decode dataset %s tracks: %w", id, err)
		}
	}
	return ds, nil
}

// LoadDatasetByName retrieves the most recently saved dataset with the given
// name. Returns nil, nil if there is none.
func (s *Store) LoadDatasetByName(name string) (*ports.Dataset, error) {
	infos, err := s.ListDatasets()
	if err != nil {
		return nil, err
	}
	var latest *ports.DatasetInfo
	for i := range infos {
		if infos[i].Name != name {
			continue
		}
		if latest == nil || infos[i].SavedAt > latest.SavedAt {
			latest = &infos[i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	return s.LoadDataset(latest.ID)
}

// ListDatasets summarizes every stored dataset, sorted by name and then by
// save time.
func (s *Store) ListDatasets() ([]ports.DatasetInfo, error) {
	var infos []ports.DatasetInfo
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			if string(name) == string(bucketCatalog) {
				return nil
			}
			v := b.Get(keyMeta)
			if v == nil {
				return nil
			}
			// Unmarshal copies, so reading in-transaction is safe.
			var meta datasetMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return fmt.Errorf("unmarshal dataset %s meta: %w", name, err)
			}
			infos = append(infos, meta.info())
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Name != infos[j].Name {
			return infos[i].Name < infos[j].Name
		}
		return infos[i].SavedAt < infos[j].SavedAt
	})
	return infos, nil
}

// DeleteDataset removes a dataset, clearing the current pointer if it named
// this dataset. Idempotent: deleting a nonexistent dataset is not an error.
func (s *Store) DeleteDataset(id uuid.UUID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(datasetKey(id)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		cat := tx.Bucket(bucketCatalog)
		if cat == nil {
			return nil
		}
		if cur := cat.Get(keyCurrent); cur != nil && string(cur) == id.String() {
			return cat.Delete(keyCurrent)
		}
		return nil
	})
}

// SetCurrent records the dataset the daemon loads on start.
func (s *Store) SetCurrent(id uuid.UUID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(datasetKey(id)) == nil {
			return fmt.Errorf("set current %s: %w", id, ports.ErrDatasetNotFound)
		}
		cat, err := tx.CreateBucketIfNotExists(bucketCatalog)
		if err != nil {
			return err
		}
		return cat.Put(keyCurrent, []byte(id.String()))
	})
}

// Current returns the current dataset ID, or uuid.Nil if none was set.
func (s *Store) Current() (uuid.UUID, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if cat := tx.Bucket(bucketCatalog); cat != nil {
			raw = copyBytes(cat.Get(keyCurrent))
		}
		return nil
	})
	if err != nil || raw == nil {
		return uuid.Nil, err
	}
	id, err := uuid.ParseBytes(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse current dataset id: %w", err)
	}
	return id, nil
}

func datasetKey(id uuid.UUID) []byte {
	return []byte(id.String())
}

func copyBytes(v []byte) []byte {
	if v == nil {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}
