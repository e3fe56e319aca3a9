package index

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/corey/gbsearch/internal/domain/wildcard"
	"github.com/corey/gbsearch/internal/ports"
)

// SearchEngine answers multi-keyword wildcard queries over the names of a
// dataset's gene features.
//
// The engine owns its KeywordIndex, the result list of the most recent search
// and a round-robin cursor over it. None of that state is synchronized: index
// rebuilds and queries must come from a single owner at a time (the daemon
// serializes requests). Only the subscriber list tolerates concurrent use.
type SearchEngine struct {
	keywords *KeywordIndex

	// autoWildcard appends '*' to every keyword lacking a trailing one.
	autoWildcard  bool
	caseSensitive bool

	results []ports.Feature
	cursor  int

	scanner ports.KeywordScanner
	events  EventSupport
	logger  *slog.Logger
}

// EngineOption configures a SearchEngine.
type EngineOption func(*SearchEngine)

// WithAutoWildcard sets the "automatically append a wildcard suffix" flag.
func WithAutoWildcard(on bool) EngineOption {
	return func(e *SearchEngine) { e.autoWildcard = on }
}

// WithCaseSensitive compiles query patterns case-sensitively.
func WithCaseSensitive(on bool) EngineOption {
	return func(e *SearchEngine) { e.caseSensitive = on }
}

// WithScanner attaches a keyword scanner, rebuilt on every IndexDataset and
// used by Mentions.
func WithScanner(s ports.KeywordScanner) EngineOption {
	return func(e *SearchEngine) { e.scanner = s }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *SearchEngine) { e.logger = l }
}

// NewSearchEngine creates an engine with an empty index.
func NewSearchEngine(opts ...EngineOption) *SearchEngine {
	e := &SearchEngine{
		keywords: NewKeywordIndex(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetAutoWildcard changes the auto-suffix flag for subsequent searches.
func (e *SearchEngine) SetAutoWildcard(on bool) { e.autoWildcard = on }

// AutoWildcard reports the auto-suffix flag.
func (e *SearchEngine) AutoWildcard() bool { return e.autoWildcard }

// SetCaseSensitive changes case folding for subsequent searches and lookups.
func (e *SearchEngine) SetCaseSensitive(on bool) { e.caseSensitive = on }

// CaseSensitive reports whether keywords are matched case-sensitively.
func (e *SearchEngine) CaseSensitive() bool { return e.caseSensitive }

// Subscribe registers a listener for search events. See EventSupport.
func (e *SearchEngine) Subscribe(l Listener) (unsubscribe func()) {
	return e.events.Subscribe(l)
}

// ReceiveEvent handles the upstream "new dataset" notification, which makes
// the engine usable as a Listener on an application event bus.
func (e *SearchEngine) ReceiveEvent(ev Event) {
	if ev.Action == ActionNewDataset && ev.Dataset != nil {
		e.IndexDataset(ev.Dataset)
	}
}

// IndexDataset rebuilds the index from scratch: every gene feature is added
// under its name and, if present, its common name. Features of the previous
// dataset become unreachable.
func (e *SearchEngine) IndexDataset(ds *ports.Dataset) {
	name := ""
	if ds != nil {
		name = ds.Name
	}
	e.logger.Info("search engine initializing", "dataset", name)

	e.Clear()
	ds.GeneFeatures(func(f ports.Feature) {
		e.AddSearchTerm(f.Name, f)
		e.AddSearchTerm(f.CommonName, f)
	})

	if e.scanner != nil {
		e.scanner.Rebuild(e.keywords.Keys())
	}
	e.logger.Info("search engine initialized", "dataset", name, "terms", e.keywords.Size())
}

// AddSearchTerm indexes feature under term. An empty term is ignored.
func (e *SearchEngine) AddSearchTerm(term string, feature ports.Feature) {
	e.keywords.Add(term, feature)
}

// TermCount is the number of distinct indexed keywords.
func (e *SearchEngine) TermCount() int {
	return e.keywords.Size()
}

// Search splits query into keywords and searches for them. Every call
// publishes ActionSearchResults, even for a blank query.
func (e *SearchEngine) Search(query string) int {
	return e.search(SplitQuery(query))
}

// SearchTerms replaces the result list with every feature indexed under a
// key matching any of keywords, de-duplicated and sorted by sequence then
// start. Subscribers get ActionSearchResults, plus ActionMultipleResults when
// more than one feature was found. Returns the result count.
//
// An empty keyword list clears the results and publishes nothing.
func (e *SearchEngine) SearchTerms(keywords []string) int {
	if len(keywords) == 0 {
		e.results = e.results[:0]
		e.cursor = 0
		return 0
	}
	return e.search(keywords)
}

func (e *SearchEngine) search(keywords []string) int {
	e.results = e.results[:0]
	e.cursor = 0

	start := time.Now()
	seen := make(map[ports.Feature]struct{})
	var found []ports.Feature
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if e.autoWildcard && !strings.HasSuffix(kw, "*") {
			kw += "*"
		}

		p := wildcard.Compile(kw, wildcard.WithCaseSensitive(e.caseSensitive))
		for _, key := range e.keywords.Keys() {
			if !p.Match(key) {
				continue
			}
			for _, f := range e.keywords.FeaturesFor(key) {
				if _, dup := seen[f]; dup {
					continue
				}
				seen[f] = struct{}{}
				found = append(found, f)
			}
		}
	}

	sortByPosition(found)
	e.results = found

	e.fireSearchEvents()
	e.logger.Info("search found results",
		"keywords", len(keywords), "results", len(e.results), "elapsed", time.Since(start))
	return len(e.results)
}

// sortByPosition orders features by sequence ID, then start coordinate.
// Ties keep their discovery order.
func sortByPosition(fs []ports.Feature) {
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].SeqID != fs[j].SeqID {
			return fs[i].SeqID < fs[j].SeqID
		}
		return fs[i].Start < fs[j].Start
	})
}

func (e *SearchEngine) fireSearchEvents() {
	snapshot := e.Results()
	e.events.Fire(Event{Source: e, Action: ActionSearchResults, Features: snapshot})
	if len(snapshot) > 1 {
		e.events.Fire(Event{Source: e, Action: ActionMultipleResults, Features: snapshot})
	}
}

// FindByName returns the feature whose canonical name is exactly name. The
// name is matched as a pattern against index keys (no auto-suffix), then
// candidates are filtered on Name, since a bucket may hold features indexed
// under a common name.
func (e *SearchEngine) FindByName(name string) (ports.Feature, bool) {
	p := wildcard.Compile(name, wildcard.WithCaseSensitive(e.caseSensitive))
	for _, key := range e.keywords.Keys() {
		if !p.Match(key) {
			continue
		}
		for _, f := range e.keywords.FeaturesFor(key) {
			if f.Name == name {
				return f, true
			}
		}
	}
	return ports.Feature{}, false
}

// FindByNames applies FindByName to each name, skipping names with no match.
func (e *SearchEngine) FindByNames(names []string) []ports.Feature {
	out := make([]ports.Feature, 0, len(names))
	for _, name := range names {
		if f, ok := e.FindByName(name); ok {
			out = append(out, f)
		}
	}
	return out
}

// Next returns the result under the cursor and advances it, wrapping around.
// Returns false when the last search found nothing.
func (e *SearchEngine) Next() (ports.Feature, bool) {
	if len(e.results) == 0 {
		return ports.Feature{}, false
	}
	f := e.results[e.cursor]
	e.cursor = (e.cursor + 1) % len(e.results)
	return f, true
}

// Results returns a copy of the last search's results.
func (e *SearchEngine) Results() []ports.Feature {
	out := make([]ports.Feature, len(e.results))
	copy(out, e.results)
	return out
}

// Mentions returns the features indexed under any keyword that occurs in
// text as a whole word, sorted like search results. It leaves the result list
// and cursor alone. Without a scanner it finds nothing.
func (e *SearchEngine) Mentions(text string) []ports.Feature {
	if e.scanner == nil {
		return nil
	}
	seen := make(map[ports.Feature]struct{})
	var found []ports.Feature
	for _, key := range e.scanner.Scan(text) {
		for _, f := range e.keywords.FeaturesFor(key) {
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			found = append(found, f)
		}
	}
	sortByPosition(found)
	return found
}

// Clear empties the index and the results. The auto-suffix flag is kept.
func (e *SearchEngine) Clear() {
	e.keywords.Clear()
	e.results = nil
	e.cursor = 0
}
