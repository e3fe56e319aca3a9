// Package ports defines the interfaces (contracts) that adapters must implement,
// plus the dataset model they exchange. Domain logic depends only on these
// interfaces, never on concrete implementations.
package ports

import (
	"errors"

	"github.com/google/uuid"
)

// ErrDatasetNotFound is returned by lookups that name a dataset the store
// does not hold.
var ErrDatasetNotFound = errors.New("dataset not found")

// DatasetStore persists datasets to durable storage. The backing store (bbolt)
// keeps one namespace per dataset ID. Concurrent reads are safe; writes are
// serialized by the adapter.
//
// Crash safety: SaveDataset must be transactional. A crash mid-write must not
// corrupt previously committed data.
type DatasetStore interface {
	// SaveDataset persists a dataset with all its tracks.
	// Overwrites any prior dataset with the same ID.
	SaveDataset(ds *Dataset) error

	// LoadDataset retrieves a dataset by ID.
	// Returns nil, nil if no such dataset exists.
	LoadDataset(id uuid.UUID) (*Dataset, error)

	// LoadDatasetByName retrieves the most recently saved dataset with the
	// given name. Returns nil, nil if there is none.
	LoadDatasetByName(name string) (*Dataset, error)

	// ListDatasets returns a summary of every stored dataset, sorted by name.
	ListDatasets() ([]DatasetInfo, error)

	// DeleteDataset removes a dataset.
	// Idempotent: deleting a nonexistent dataset is not an error.
	DeleteDataset(id uuid.UUID) error

	// SetCurrent records which dataset the daemon loads on start.
	// Returns ErrDatasetNotFound if the ID is unknown.
	SetCurrent(id uuid.UUID) error

	// Current returns the current dataset ID, or uuid.Nil if none was set.
	Current() (uuid.UUID, error)
}

// DatasetInfo summarizes a stored dataset without its features.
type DatasetInfo struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	TrackCount   int       `json:"track_count"`
	FeatureCount int       `json:"feature_count"`
	SavedAt      int64     `json:"saved_at"`
}
