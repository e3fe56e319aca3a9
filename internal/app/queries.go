package app

import (
	"time"

	"github.com/corey/gbsearch/internal/adapters/socket"
	"github.com/corey/gbsearch/internal/ports"
)

// The App answers daemon requests. Every engine call happens under a.mu.
var _ socket.AppQueries = (*App)(nil)

// Search implements socket.AppQueries. Keywords, when given, bypass query
// splitting. Matching overrides in p last for this call only.
func (a *App) Search(p socket.SearchParams) socket.FeaturesResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	if p.AutoWildcard != nil {
		defer a.Engine.SetAutoWildcard(a.Engine.AutoWildcard())
		a.Engine.SetAutoWildcard(*p.AutoWildcard)
	}
	if p.CaseSensitive != nil {
		defer a.Engine.SetCaseSensitive(a.Engine.CaseSensitive())
		a.Engine.SetCaseSensitive(*p.CaseSensitive)
	}

	start := time.Now()
	if p.Keywords != nil {
		a.Engine.SearchTerms(p.Keywords)
	} else {
		a.Engine.Search(p.Query)
	}
	return featuresResult(a.Engine.Results(), time.Since(start))
}

// Find implements socket.AppQueries.
func (a *App) Find(names []string) socket.FeaturesResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return featuresResult(a.Engine.FindByNames(names), 0)
}

// Next implements socket.AppQueries.
func (a *App) Next() socket.NextResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	f, ok := a.Engine.Next()
	return socket.NextResult{Feature: f, Found: ok}
}

// Results implements socket.AppQueries.
func (a *App) Results() socket.FeaturesResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return featuresResult(a.Engine.Results(), 0)
}

// Mentions implements socket.AppQueries.
func (a *App) Mentions(text string) socket.FeaturesResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	start := time.Now()
	return featuresResult(a.Engine.Mentions(text), time.Since(start))
}

// Load implements socket.AppQueries.
func (a *App) Load(path string) (socket.LoadResult, error) {
	ds, err := a.LoadFile(path)
	if err != nil {
		return socket.LoadResult{}, err
	}

	a.mu.Lock()
	terms := a.Engine.TermCount()
	a.mu.Unlock()
	return socket.LoadResult{Dataset: datasetInfo(ds), Terms: terms}, nil
}

// Datasets implements socket.AppQueries.
func (a *App) Datasets() (socket.DatasetsResult, error) {
	infos, err := a.Store.ListDatasets()
	if err != nil {
		return socket.DatasetsResult{}, err
	}
	cur, err := a.Store.Current()
	if err != nil {
		return socket.DatasetsResult{}, err
	}
	return socket.DatasetsResult{Datasets: infos, Current: cur}, nil
}

// Health implements socket.AppQueries.
func (a *App) Health() socket.HealthResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := socket.HealthResult{
		Status:       "ok",
		TermCount:    a.Engine.TermCount(),
		ResultCount:  len(a.Engine.Results()),
		AutoWildcard: a.Engine.AutoWildcard(),
	}
	if a.dataset != nil {
		h.Dataset = a.dataset.Name
	}
	return h
}

func featuresResult(fs []ports.Feature, elapsed time.Duration) socket.FeaturesResult {
	r := socket.FeaturesResult{Features: fs, Count: len(fs)}
	if elapsed > 0 {
		r.Elapsed = elapsed.String()
	}
	return r
}

func datasetInfo(ds *ports.Dataset) ports.DatasetInfo {
	return ports.DatasetInfo{
		ID:           ds.ID,
		Name:         ds.Name,
		TrackCount:   len(ds.Tracks),
		FeatureCount: ds.FeatureCount(),
	}
}
