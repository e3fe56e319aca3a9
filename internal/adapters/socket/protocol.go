// Package socket implements a JSON-over-Unix-socket protocol for the gbsearch daemon.
// The protocol uses newline-delimited JSON: each message is one JSON object + \n.
package socket

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/corey/gbsearch/internal/ports"
	"github.com/google/uuid"
)

// SocketPath returns the Unix socket path for a given project root.
// Format: /tmp/gbsearch-{first12hex}.sock
func SocketPath(projectRoot string) string {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = projectRoot
	}
	h := sha256.Sum256([]byte(abs))
	return fmt.Sprintf("/tmp/gbsearch-%x.sock", h[:6])
}

// Method names for the protocol.
const (
	MethodSearch   = "search"
	MethodFind     = "find"
	MethodNext     = "next"
	MethodResults  = "results"
	MethodMentions = "mentions"
	MethodLoad     = "load"
	MethodDatasets = "datasets"
	MethodHealth   = "health"
	MethodShutdown = "shutdown"
)

// Request is the wire format for client-to-server messages.
type Request struct {
	ID     string      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// Response is the wire format for server-to-client messages.
type Response struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// SearchParams is the params for a search request. Keywords, when set,
// bypass query splitting. AutoWildcard and CaseSensitive override the
// daemon's settings for this request only.
type SearchParams struct {
	Query         string   `json:"query,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	AutoWildcard  *bool    `json:"auto_wildcard,omitempty"`
	CaseSensitive *bool    `json:"case_sensitive,omitempty"`
}

// FeaturesResult carries an ordered feature list: search results, the
// current result list, find and mention hits.
type FeaturesResult struct {
	Features []ports.Feature `json:"features"`
	Count    int             `json:"count"`
	Elapsed  string          `json:"elapsed,omitempty"`
}

// FindParams is the params for a find request.
type FindParams struct {
	Names []string `json:"names"`
}

// NextResult is the result of a next request. Found is false when the last
// search matched nothing.
type NextResult struct {
	Feature ports.Feature `json:"feature"`
	Found   bool          `json:"found"`
}

// MentionsParams is the params for a mentions request.
type MentionsParams struct {
	Text string `json:"text"`
}

// LoadParams is the params for a load request.
type LoadParams struct {
	Path string `json:"path"`
}

// LoadResult is the result of a load request.
type LoadResult struct {
	Dataset ports.DatasetInfo `json:"dataset"`
	Terms   int               `json:"terms"`
}

// DatasetsResult is the result of a datasets request.
type DatasetsResult struct {
	Datasets []ports.DatasetInfo `json:"datasets"`
	Current  uuid.UUID           `json:"current"`
}

// HealthResult is the result of a health request.
type HealthResult struct {
	Status       string `json:"status"`
	Dataset      string `json:"dataset,omitempty"`
	TermCount    int    `json:"term_count"`
	ResultCount  int    `json:"result_count"`
	AutoWildcard bool   `json:"auto_wildcard"`
	Uptime       string `json:"uptime"`
}

// remarshal converts a decoded interface{} (params or result) into a typed
// value by a round trip through JSON.
func remarshal(in interface{}, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
