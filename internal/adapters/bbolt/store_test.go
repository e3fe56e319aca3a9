package bbolt

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/corey/gbsearch/internal/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Dataset store: save/load, catalog, crash recovery
// Expectation: one bucket per dataset, survives restarts, never hangs on a
// locked file.
// =============================================================================

// newTestStore creates a temporary bbolt store for testing.
func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

// fixedClock returns a clock that advances one second per call.
func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

// makeTestDataset builds a small halobacterium-like dataset.
func makeTestDataset(name string) *ports.Dataset {
	ds := ports.NewDataset(name)
	ds.Attributes["species"] = "Halobacterium salinarum NRC-1"
	ds.Sources = []string{"/data/hal/genes.tsv"}
	ds.AddTrack(&ports.Track{
		Name: "genes",
		Kind: ports.TrackGene,
		Features: []ports.Feature{
			ports.NewGeneFeature("chr", ports.StrandForward, 100, 900, "VNG1001G", "trkA", ports.GeneTypeGene),
			ports.NewGeneFeature("chr", ports.StrandReverse, 1200, 1000, "VNG1002C", "", ports.GeneTypeCDS),
			ports.NewGeneFeature("pNRC100", ports.StrandForward, 20000, 20500, "VNG6001G", "gvpA", ports.GeneTypeGene),
		},
	})
	ds.AddTrack(&ports.Track{
		Name: "probes",
		Kind: ports.TrackQuantitative,
		Features: []ports.Feature{
			{SeqID: "chr", Strand: ports.StrandNone, Start: 150, End: 210, Name: "probe_1"},
		},
	})
	return ds
}

func TestStore_SaveLoadDataset_Roundtrip(t *testing.T) {
	store, _ := newTestStore(t)
	ds := makeTestDataset("hal")

	require.NoError(t, store.SaveDataset(ds))

	loaded, err := store.LoadDataset(ds.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, ds.ID, loaded.ID)
	assert.Equal(t, ds.Name, loaded.Name)
	assert.Equal(t, ds.Attributes, loaded.Attributes)
	assert.Equal(t, ds.Sources, loaded.Sources)
	require.Len(t, loaded.Tracks, 2)
	for i := range ds.Tracks {
		assert.Equal(t, ds.Tracks[i].Name, loaded.Tracks[i].Name)
		assert.Equal(t, ds.Tracks[i].Kind, loaded.Tracks[i].Kind)
		assert.Equal(t, ds.Tracks[i].Features, loaded.Tracks[i].Features)
	}
}

func TestStore_SaveDataset_Rejects(t *testing.T) {
	store, _ := newTestStore(t)

	assert.Error(t, store.SaveDataset(nil))
	assert.Error(t, store.SaveDataset(&ports.Dataset{Name: "no-id"}))
}

func TestStore_SaveDataset_Overwrites(t *testing.T) {
	store, _ := newTestStore(t)
	ds := makeTestDataset("hal")
	require.NoError(t, store.SaveDataset(ds))

	ds.Tracks = ds.Tracks[:1]
	ds.Tracks[0].Features = ds.Tracks[0].Features[:1]
	require.NoError(t, store.SaveDataset(ds))

	loaded, err := store.LoadDataset(ds.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Tracks, 1)
	assert.Len(t, loaded.Tracks[0].Features, 1)

	infos, err := store.ListDatasets()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 1, infos[0].FeatureCount)
}

func TestStore_LoadDataset_Missing(t *testing.T) {
	store, _ := newTestStore(t)

	ds, err := store.LoadDataset(uuid.New())
	require.NoError(t, err)
	assert.Nil(t, ds)
}

func TestStore_LoadDatasetByName_PicksLatest(t *testing.T) {
	store, _ := newTestStore(t)
	store.now = fixedClock()

	older := makeTestDataset("hal")
	newer := makeTestDataset("hal")
	newer.Attributes["build"] = "2"
	other := makeTestDataset("yeast")

	require.NoError(t, store.SaveDataset(older))
	require.NoError(t, store.SaveDataset(newer))
	require.NoError(t, store.SaveDataset(other))

	got, err := store.LoadDatasetByName("hal")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, newer.ID, got.ID)
	assert.Equal(t, "2", got.Attributes["build"])

	missing, err := store.LoadDatasetByName("mouse")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_ListDatasets(t *testing.T) {
	store, _ := newTestStore(t)
	store.now = fixedClock()

	yeast := makeTestDataset("yeast")
	hal := makeTestDataset("hal")
	require.NoError(t, store.SaveDataset(yeast))
	require.NoError(t, store.SaveDataset(hal))
	require.NoError(t, store.SetCurrent(hal.ID))

	infos, err := store.ListDatasets()
	require.NoError(t, err)
	require.Len(t, infos, 2, "the catalog bucket is not a dataset")

	assert.Equal(t, "hal", infos[0].Name)
	assert.Equal(t, hal.ID, infos[0].ID)
	assert.Equal(t, 2, infos[0].TrackCount)
	assert.Equal(t, 4, infos[0].FeatureCount)
	assert.Equal(t, "yeast", infos[1].Name)
	assert.Less(t, infos[1].SavedAt, infos[0].SavedAt)
}

func TestStore_ListDatasets_Empty(t *testing.T) {
	store, _ := newTestStore(t)

	infos, err := store.ListDatasets()
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestStore_Current(t *testing.T) {
	store, _ := newTestStore(t)

	id, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id, "no current dataset in a fresh store")

	ds := makeTestDataset("hal")
	require.NoError(t, store.SaveDataset(ds))
	require.NoError(t, store.SetCurrent(ds.ID))

	id, err = store.Current()
	require.NoError(t, err)
	assert.Equal(t, ds.ID, id)
}

func TestStore_SetCurrent_Unknown(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.SetCurrent(uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrDatasetNotFound)
}

func TestStore_DeleteDataset(t *testing.T) {
	store, _ := newTestStore(t)

	a := makeTestDataset("a")
	b := makeTestDataset("b")
	require.NoError(t, store.SaveDataset(a))
	require.NoError(t, store.SaveDataset(b))
	require.NoError(t, store.SetCurrent(a.ID))

	require.NoError(t, store.DeleteDataset(a.ID))

	gone, err := store.LoadDataset(a.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	cur, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, cur, "deleting the current dataset clears the pointer")

	kept, err := store.LoadDataset(b.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)

	// Delete nonexistent: idempotent
	assert.NoError(t, store.DeleteDataset(a.ID))
	assert.NoError(t, store.DeleteDataset(uuid.New()))
}

func TestStore_DeleteDataset_KeepsOtherCurrent(t *testing.T) {
	store, _ := newTestStore(t)

	a := makeTestDataset("a")
	b := makeTestDataset("b")
	require.NoError(t, store.SaveDataset(a))
	require.NoError(t, store.SaveDataset(b))
	require.NoError(t, store.SetCurrent(b.ID))

	require.NoError(t, store.DeleteDataset(a.ID))

	cur, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, b.ID, cur)
}

func TestStore_CrashRecovery(t *testing.T) {
	// Write data, close, reopen. Data from the last committed transaction is
	// intact; bbolt fsyncs on commit.
	dir := t.TempDir()
	path := filepath.Join(dir, "crash.db")

	store, err := NewStore(path)
	require.NoError(t, err)

	ds := makeTestDataset("hal")
	require.NoError(t, store.SaveDataset(ds))
	require.NoError(t, store.SetCurrent(ds.ID))
	require.NoError(t, store.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	// Reopen: data from committed transaction should be intact
	store2, err := NewStore(path)
	require.NoError(t, err)
	defer store2.Close()

	cur, err := store2.Current()
	require.NoError(t, err)
	assert.Equal(t, ds.ID, cur)

	loaded, err := store2.LoadDataset(cur)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, ds.FeatureCount(), loaded.FeatureCount())
}

func TestStore_ConcurrentReads(t *testing.T) {
	// bbolt supports concurrent readers, single writer.
	store, _ := newTestStore(t)
	ds := makeTestDataset("hal")
	require.NoError(t, store.SaveDataset(ds))

	var wg sync.WaitGroup
	errs := make(chan error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.LoadDataset(ds.ID)
			if err != nil {
				errs <- err
				return
			}
			if got == nil {
				errs <- fmt.Errorf("got nil dataset")
				return
			}
			if n := got.FeatureCount(); n != 4 {
				errs <- fmt.Errorf("expected 4 features, got %d", n)
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent read error: %v", err)
	}
}

func TestStore_LargeDataset_Performance(t *testing.T) {
	// A bacterial genome: a few thousand genes. Save and load stay well
	// under a tenth of a second.
	store, _ := newTestStore(t)

	ds := ports.NewDataset("large")
	genes := &ports.Track{Name: "genes", Kind: ports.TrackGene}
	for i := 0; i < 5000; i++ {
		genes.Features = append(genes.Features, ports.NewGeneFeature(
			"chr", ports.StrandForward, i*1000, i*1000+800,
			fmt.Sprintf("VNG%04dG", i), fmt.Sprintf("gene%d", i), ports.GeneTypeGene))
	}
	ds.AddTrack(genes)

	start := time.Now()
	require.NoError(t, store.SaveDataset(ds))
	saveTime := time.Since(start)

	start = time.Now()
	loaded, err := store.LoadDataset(ds.ID)
	loadTime := time.Since(start)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, 5000, loaded.FeatureCount())
	assert.Less(t, saveTime, 500*time.Millisecond, "save took %v", saveTime) // generous for CI
	assert.Less(t, loadTime, 500*time.Millisecond, "load took %v", loadTime)

	t.Logf("Performance: save=%v load=%v features=%d", saveTime, loadTime, loaded.FeatureCount())
}

// =============================================================================
// Lock contention tests: verify the 1s timeout prevents hangs
// =============================================================================

func TestStore_OpenTimeout_DoesNotHang(t *testing.T) {
	// When another process/goroutine holds the bbolt exclusive lock, a
	// second open should time out in ~1 second, not hang forever.
	dir := t.TempDir()
	path := filepath.Join(dir, "locked.db")

	store1, err := NewStore(path)
	require.NoError(t, err)
	defer store1.Close()

	start := time.Now()
	store2, err := NewStore(path)
	elapsed := time.Since(start)

	require.Error(t, err, "second open should fail with lock timeout")
	assert.Nil(t, store2, "store should be nil on timeout")
	assert.Contains(t, err.Error(), "bbolt open")
	assert.Contains(t, err.Error(), "timeout", "error should mention timeout")
	assert.Less(t, elapsed, 3*time.Second, "should complete within 3s, not hang")
	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond, "should wait ~1s for the configured timeout")
}

func TestStore_OpenAfterClose_Succeeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "released.db")

	store1, err := NewStore(path)
	require.NoError(t, err)
	ds := makeTestDataset("hal")
	require.NoError(t, store1.SaveDataset(ds))
	store1.Close()

	start := time.Now()
	store2, err := NewStore(path)
	elapsed := time.Since(start)

	require.NoError(t, err, "open after close should succeed")
	require.NotNil(t, store2)
	assert.Less(t, elapsed, 500*time.Millisecond, "should open instantly after lock released")
	defer store2.Close()

	loaded, err := store2.LoadDatasetByName("hal")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, ds.ID, loaded.ID)
}
