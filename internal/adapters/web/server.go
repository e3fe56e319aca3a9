// Package web serves the daemon's queries as a JSON API over HTTP.
// Binds to localhost only, no network exposure, no auth needed.
package web

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/corey/gbsearch/internal/adapters/socket"
)

// maxMentionsBody caps POST /api/mentions bodies.
const maxMentionsBody = 4 << 20

// Server serves the JSON API over HTTP.
type Server struct {
	queries  socket.AppQueries
	logger   *slog.Logger
	listener net.Listener
	httpSrv  *http.Server
	port     int
	started  time.Time
	stopOnce sync.Once

	portFilePath string // .gbsearch/run/http.port
}

// NewServer creates an HTTP server answering from queries.
// The portFilePath is where the bound port is written for discovery.
func NewServer(queries socket.AppQueries, portFilePath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		queries:      queries,
		logger:       logger,
		portFilePath: portFilePath,
		started:      time.Now(),
	}
}

// DefaultPort computes a project-specific port: 19000 + (hash(abs_path) % 1000).
func DefaultPort(projectRoot string) int {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = projectRoot
	}
	h := sha256.Sum256([]byte(abs))
	n := uint32(h[0])<<24 | uint32(h[1])<<16 | uint32(h[2])<<8 | uint32(h[3])
	return 19000 + int(n%1000)
}

// Start begins listening on the preferred port, or any free port when that
// one is taken. Writes the bound port to the port file.
func (s *Server) Start(preferredPort int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", preferredPort))
	if err != nil {
		s.logger.Warn("preferred http port busy", "port", preferredPort, "error", err)
		ln, err = net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}
	s.listener = ln
	s.port = ln.Addr().(*net.TCPAddr).Port
	s.started = time.Now()
	s.httpSrv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	if s.portFilePath != "" {
		os.WriteFile(s.portFilePath, []byte(fmt.Sprintf("%d", s.port)), 0644)
	}

	go s.httpSrv.Serve(ln)
	s.logger.Info("http api listening", "url", s.URL())
	return nil
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/find", s.handleFind)
	mux.HandleFunc("POST /api/next", s.handleNext)
	mux.HandleFunc("GET /api/results", s.handleResults)
	mux.HandleFunc("POST /api/mentions", s.handleMentions)
	mux.HandleFunc("GET /api/datasets", s.handleDatasets)
	return mux
}

// Stop gracefully shuts down the HTTP server. Idempotent.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.httpSrv.Shutdown(ctx)
		}
		if s.portFilePath != "" {
			os.Remove(s.portFilePath)
		}
	})
}

// Port returns the bound port number.
func (s *Server) Port() int {
	return s.port
}

// URL returns the API base URL.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.queries.Health()
	h.Uptime = time.Since(s.started).Round(time.Second).String()
	writeJSON(w, http.StatusOK, h)
}

// handleSearch takes either ?q=<query> or repeated ?kw=<keyword>, plus
// optional auto_wildcard and case_sensitive booleans.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := socket.SearchParams{Query: q.Get("q"), Keywords: q["kw"]}
	if p.Keywords == nil && !q.Has("q") {
		writeError(w, http.StatusBadRequest, "missing q or kw parameter")
		return
	}
	var err error
	if p.AutoWildcard, err = boolParam(q, "auto_wildcard"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.CaseSensitive, err = boolParam(q, "case_sensitive"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.queries.Search(p))
}

// boolParam parses an optional boolean query parameter; absent means nil.
func boolParam(q url.Values, name string) (*bool, error) {
	if !q.Has(name) {
		return nil, nil
	}
	b, err := strconv.ParseBool(q.Get(name))
	if err != nil {
		return nil, fmt.Errorf("invalid %s parameter", name)
	}
	return &b, nil
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	names := r.URL.Query()["name"]
	if len(names) == 0 {
		writeError(w, http.StatusBadRequest, "missing name parameter")
		return
	}
	writeJSON(w, http.StatusOK, s.queries.Find(names))
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.queries.Next())
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.queries.Results())
}

// handleMentions scans the request body as plain text.
func (s *Server) handleMentions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMentionsBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.queries.Mentions(string(body)))
}

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	result, err := s.queries.Datasets()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
