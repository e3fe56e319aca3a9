package socket

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"
)

// AppQueries is what the daemon serves. Implementations must serialize
// access to the search engine themselves.
type AppQueries interface {
	Search(p SearchParams) FeaturesResult
	Find(names []string) FeaturesResult
	Next() NextResult
	Results() FeaturesResult
	Mentions(text string) FeaturesResult
	Load(path string) (LoadResult, error)
	Datasets() (DatasetsResult, error)
	Health() HealthResult
}

// Server is the daemon that listens on a Unix socket and serves search requests.
type Server struct {
	queries  AppQueries
	logger   *slog.Logger
	listener net.Listener
	sockPath string
	started  time.Time

	done         chan struct{}
	shutdownCh   chan struct{} // closed when a remote shutdown request is received
	shutdownOnce sync.Once
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewServer creates a daemon server answering from queries. A nil logger
// means slog.Default().
func NewServer(queries AppQueries, sockPath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		queries:    queries,
		logger:     logger,
		sockPath:   sockPath,
		done:       make(chan struct{}),
		shutdownCh: make(chan struct{}),
	}
}

// Start begins listening on the Unix socket. It handles stale sockets by
// attempting a connection first: if the connection fails, the stale socket
// is removed before binding.
func (s *Server) Start() error {
	if _, err := os.Stat(s.sockPath); err == nil {
		conn, err := net.DialTimeout("unix", s.sockPath, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return fmt.Errorf("daemon already running at %s", s.sockPath)
		}
		os.Remove(s.sockPath)
	}

	ln, err := net.Listen("unix", s.sockPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	s.started = time.Now()

	s.wg.Add(1)
	go s.acceptLoop()

	s.logger.Info("daemon listening", "socket", s.sockPath)
	return nil
}

// Stop gracefully shuts down the server, closing the listener and removing the socket file.
// Idempotent: safe to call after a remote shutdown and again on a signal.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.listener != nil {
			s.listener.Close()
		}
		s.wg.Wait()
		os.Remove(s.sockPath)
	})
	return nil
}

// ShutdownCh returns a channel that is closed when a remote shutdown request
// is received.
func (s *Server) ShutdownCh() <-chan struct{} {
	return s.shutdownCh
}

// Addr returns the socket path the server is listening on.
func (s *Server) Addr() string {
	return s.sockPath
}

// Accept failures other than shutdown (e.g. EMFILE) are retried with a
// capped exponential backoff.
const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	var backoff time.Duration
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if backoff == 0 {
				backoff = minAcceptBackoff
			} else {
				backoff = min(2*backoff, maxAcceptBackoff)
			}
			s.logger.Warn("accept failed", "error", err, "retry_in", backoff)
			select {
			case <-s.done:
				return
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB max message

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(conn, Response{Error: "invalid request JSON"})
			continue
		}

		resp := s.handleRequest(req)
		if resp.Error != "" {
			s.logger.Warn("request failed", "method", req.Method, "error", resp.Error)
		}
		s.writeResponse(conn, resp)

		if req.Method == MethodShutdown {
			s.shutdownOnce.Do(func() { close(s.shutdownCh) })
			return
		}
	}
}

func (s *Server) handleRequest(req Request) Response {
	switch req.Method {
	case MethodSearch:
		var p SearchParams
		if err := remarshal(req.Params, &p); err != nil {
			return invalidParams(req)
		}
		return Response{ID: req.ID, Result: s.queries.Search(p)}
	case MethodFind:
		var p FindParams
		if err := remarshal(req.Params, &p); err != nil {
			return invalidParams(req)
		}
		return Response{ID: req.ID, Result: s.queries.Find(p.Names)}
	case MethodNext:
		return Response{ID: req.ID, Result: s.queries.Next()}
	case MethodResults:
		return Response{ID: req.ID, Result: s.queries.Results()}
	case MethodMentions:
		var p MentionsParams
		if err := remarshal(req.Params, &p); err != nil {
			return invalidParams(req)
		}
		return Response{ID: req.ID, Result: s.queries.Mentions(p.Text)}
	case MethodLoad:
		var p LoadParams
		if err := remarshal(req.Params, &p); err != nil || p.Path == "" {
			return invalidParams(req)
		}
		result, err := s.queries.Load(p.Path)
		if err != nil {
			return Response{ID: req.ID, Error: err.Error()}
		}
		return Response{ID: req.ID, Result: result}
	case MethodDatasets:
		result, err := s.queries.Datasets()
		if err != nil {
			return Response{ID: req.ID, Error: err.Error()}
		}
		return Response{ID: req.ID, Result: result}
	case MethodHealth:
		h := s.queries.Health()
		h.Uptime = time.Since(s.started).Round(time.Second).String()
		return Response{ID: req.ID, Result: h}
	case MethodShutdown:
		return Response{ID: req.ID, Result: struct{}{}}
	default:
		return Response{ID: req.ID, Error: fmt.Sprintf("unknown method: %s", req.Method)}
	}
}

func invalidParams(req Request) Response {
	return Response{ID: req.ID, Error: fmt.Sprintf("invalid %s params", req.Method)}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	data = append(data, '\n')
	conn.Write(data)
}
