package app

import (
	"github.com/corey/gbsearch/internal/adapters/datafile"
)

// onDatasetFileChanged reloads the current dataset after one of its source
// files changed. The reloaded dataset keeps its ID, so the stored copy is
// replaced rather than duplicated. A file that no longer parses (mid-save,
// or removed) leaves the previous index in place.
func (a *App) onDatasetFileChanged(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur := a.dataset
	if cur == nil || len(cur.Sources) == 0 {
		return
	}

	a.logger.Info("dataset file changed", "path", path, "dataset", cur.Name)
	ds, err := datafile.Load(cur.Sources[0])
	if err != nil {
		a.logger.Warn("reload failed, keeping previous index", "dataset", cur.Name, "error", err)
		return
	}
	ds.ID = cur.ID
	if err := a.Store.SaveDataset(ds); err != nil {
		a.logger.Error("save reloaded dataset", "dataset", ds.Name, "error", err)
		return
	}
	a.activate(ds)
}
