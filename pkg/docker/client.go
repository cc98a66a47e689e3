package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/goccy/go-json"
)

const (
	// DefaultSocketPath is where the Docker daemon listens by default
	DefaultSocketPath = "/var/run/docker.sock"
	// DefaultAPIVersion is the Engine API version requests are pinned to
	DefaultAPIVersion = "1.47"
	// DefaultTimeout bounds a single inspect request
	DefaultTimeout = 3 * time.Second

	// inspectURL is completed with the API version and the container key
	inspectURL = "http://localhost/v%s/containers/%s/json"

	// maxDocumentSize caps the inspect body kept in memory
	maxDocumentSize = 4 << 20
)

var (
	// ErrInvalidKey is returned for keys that are not a valid container name or ID
	ErrInvalidKey = errors.New("invalid container key")

	// ErrDocumentTooLarge is returned when the inspect body exceeds maxDocumentSize
	ErrDocumentTooLarge = errors.New("container document too large")

	// Docker container names: [a-zA-Z0-9][a-zA-Z0-9_.-]+, IDs are hex
	validKey = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)
)

// Config holds the connection settings for the Docker daemon
type Config struct {
	SocketPath string
	APIVersion string
	Timeout    time.Duration
}

// Client fetches container inspect documents over the Docker unix socket
type Client struct {
	cli     *client.Client
	http    *http.Client
	version string
	timeout time.Duration
}

// NewClient creates a client bound to cfg.SocketPath. No connection is
// made until Fetch is called.
func NewClient(cfg Config) (*Client, error) {
	if cfg.SocketPath == "" {
		cfg.SocketPath = DefaultSocketPath
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	cli, err := client.NewClientWithOpts(
		client.WithHost("unix://"+cfg.SocketPath),
		client.WithVersion(cfg.APIVersion),
		client.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return &Client{
		cli:     cli,
		http:    cli.HTTPClient(),
		version: cfg.APIVersion,
		timeout: cfg.Timeout,
	}, nil
}

// Close releases the idle connections held by the client
func (c *Client) Close() error {
	return c.cli.Close()
}

// Fetch returns the whole inspect document of the container named key.
// Any failure, including a non-2xx status, is returned as an error and no
// partial body is ever returned.
func (c *Client) Fetch(ctx context.Context, key string) ([]byte, error) {
	if !validKey.MatchString(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(inspectURL, c.version, key), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build inspect request for %s: %w", key, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect container %s: %w", key, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read inspect response for %s: %w", key, err)
	}
	if len(body) > maxDocumentSize {
		return nil, fmt.Errorf("%w: container %s", ErrDocumentTooLarge, key)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(key, resp.StatusCode, body)
	}

	return body, nil
}

// statusError converts a non-2xx daemon reply into an errdefs-classified error
func statusError(key string, code int, body []byte) error {
	var reply struct {
		Message string `json:"message"`
	}
	msg := http.StatusText(code)
	if err := json.Unmarshal(body, &reply); err == nil && reply.Message != "" {
		msg = reply.Message
	}

	err := fmt.Errorf("inspect container %s: daemon returned %d: %s", key, code, msg)
	switch {
	case code == http.StatusNotFound:
		return errdefs.NotFound(err)
	case code >= 500:
		return errdefs.System(err)
	default:
		return errdefs.InvalidParameter(err)
	}
}

// IsNotFound reports whether err means the daemon has no such container
func IsNotFound(err error) bool {
	return errdefs.IsNotFound(err)
}
