package socket

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrDaemonNotRunning is returned when nothing listens on the socket.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Client connects to the gbsearch daemon over a Unix socket.
type Client struct {
	sockPath string
}

// NewClient creates a client that will connect to the given socket path.
func NewClient(sockPath string) *Client {
	return &Client{sockPath: sockPath}
}

// Search sends a query string; the daemon splits it into keywords.
func (c *Client) Search(query string) (*FeaturesResult, error) {
	return c.SearchWith(SearchParams{Query: query})
}

// SearchTerms sends pre-split keywords.
func (c *Client) SearchTerms(keywords []string) (*FeaturesResult, error) {
	return c.SearchWith(SearchParams{Keywords: keywords})
}

// SearchWith sends a search request with explicit params, including
// per-request matching overrides.
func (c *Client) SearchWith(p SearchParams) (*FeaturesResult, error) {
	return callFor[FeaturesResult](c, MethodSearch, p, defaultTimeout)
}

// Find looks features up by exact canonical name.
func (c *Client) Find(names ...string) (*FeaturesResult, error) {
	return callFor[FeaturesResult](c, MethodFind, FindParams{Names: names}, defaultTimeout)
}

// Next returns the result under the daemon's cursor and advances it.
func (c *Client) Next() (*NextResult, error) {
	return callFor[NextResult](c, MethodNext, nil, defaultTimeout)
}

// Results returns the last search's results.
func (c *Client) Results() (*FeaturesResult, error) {
	return callFor[FeaturesResult](c, MethodResults, nil, defaultTimeout)
}

// Mentions returns the features whose names occur in text.
func (c *Client) Mentions(text string) (*FeaturesResult, error) {
	return callFor[FeaturesResult](c, MethodMentions, MentionsParams{Text: text}, defaultTimeout)
}

// Load asks the daemon to read, store and index a dataset file, with an
// extended timeout for large genomes.
func (c *Client) Load(path string) (*LoadResult, error) {
	return callFor[LoadResult](c, MethodLoad, LoadParams{Path: path}, 120*time.Second)
}

// Datasets lists the stored datasets.
func (c *Client) Datasets() (*DatasetsResult, error) {
	return callFor[DatasetsResult](c, MethodDatasets, nil, defaultTimeout)
}

// Health sends a health check request.
func (c *Client) Health() (*HealthResult, error) {
	return callFor[HealthResult](c, MethodHealth, nil, defaultTimeout)
}

// Shutdown sends a shutdown request to the daemon.
func (c *Client) Shutdown() error {
	_, err := c.callWithTimeout(Request{ID: "1", Method: MethodShutdown}, defaultTimeout)
	return err
}

// Ping checks if the daemon is reachable.
func (c *Client) Ping() bool {
	conn, err := net.DialTimeout("unix", c.sockPath, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

const defaultTimeout = 5 * time.Second

// callFor sends one request and decodes its result into T.
func callFor[T any](c *Client, method string, params interface{}, timeout time.Duration) (*T, error) {
	resp, err := c.callWithTimeout(Request{ID: "1", Method: method, Params: params}, timeout)
	if err != nil {
		return nil, err
	}
	var result T
	if err := remarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", method, err)
	}
	return &result, nil
}

func (c *Client) callWithTimeout(req Request, timeout time.Duration) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.sockPath, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %v", ErrDaemonNotRunning, c.sockPath, err)
	}
	defer conn.Close()

	// Set deadline for the whole request/response
	conn.SetDeadline(time.Now().Add(timeout))

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		return nil, fmt.Errorf("empty response")
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("server error: %s", resp.Error)
	}
	return &resp, nil
}
