package docker

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/docker/docker/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDaemon serves handler on a fresh unix socket and returns its path
func fakeDaemon(t *testing.T, handler http.Handler) string {
	t.Helper()

	// Unix socket paths are limited to ~108 bytes, keep it short
	dir, err := os.MkdirTemp("", "nssd")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	sock := filepath.Join(dir, "docker.sock")
	ln, err := net.Listen("unix", sock)
	require.NoError(t, err)

	srv := httptest.NewUnstartedServer(handler)
	srv.Listener.Close()
	srv.Listener = ln
	srv.Start()
	t.Cleanup(srv.Close)

	return sock
}

func newTestClient(t *testing.T, sock string, timeout time.Duration) *Client {
	t.Helper()

	c, err := NewClient(Config{SocketPath: sock, Timeout: timeout})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return c
}

func TestFetch(t *testing.T) {
	const doc = `{"Id":"abc","Name":"/cache"}`

	var path string
	sock := fakeDaemon(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	}))

	c := newTestClient(t, sock, time.Second)
	body, err := c.Fetch(context.Background(), "cache")
	require.NoError(t, err)

	assert.Equal(t, doc, string(body))
	assert.Equal(t, "/v1.47/containers/cache/json", path)
}

func TestFetchRejectsInvalidKeys(t *testing.T) {
	var hits atomic.Int32
	sock := fakeDaemon(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	c := newTestClient(t, sock, time.Second)

	for _, key := range []string{
		"",
		"a/b",
		"../images",
		"web json",
		"web\x00",
		"web\r\nHost: evil",
		"web?size=1",
		"web#frag",
		"web%2f",
		".hidden",
		"-dash",
	} {
		_, err := c.Fetch(context.Background(), key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}

	assert.Zero(t, hits.Load())
}

func TestFetchNotFound(t *testing.T) {
	sock := fakeDaemon(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"No such container: ghost"}`))
	}))

	c := newTestClient(t, sock, time.Second)
	body, err := c.Fetch(context.Background(), "ghost")
	require.Error(t, err)

	assert.Nil(t, body)
	assert.True(t, errdefs.IsNotFound(err))
	assert.Contains(t, err.Error(), "No such container: ghost")
}

func TestFetchServerError(t *testing.T) {
	sock := fakeDaemon(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	c := newTestClient(t, sock, time.Second)
	_, err := c.Fetch(context.Background(), "web")
	require.Error(t, err)

	assert.True(t, errdefs.IsSystem(err))
}

func TestFetchSocketMissing(t *testing.T) {
	dir, err := os.MkdirTemp("", "nssd")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	c := newTestClient(t, filepath.Join(dir, "absent.sock"), time.Second)
	body, err := c.Fetch(context.Background(), "web")

	assert.Error(t, err)
	assert.Nil(t, body)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	sock := fakeDaemon(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer close(release)

	c := newTestClient(t, sock, 100*time.Millisecond)

	start := time.Now()
	_, err := c.Fetch(context.Background(), "slow")

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchDocumentTooLarge(t *testing.T) {
	sock := fakeDaemon(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunk := make([]byte, 64<<10)
		for written := 0; written <= maxDocumentSize; written += len(chunk) {
			if _, err := w.Write(chunk); err != nil {
				return
			}
		}
	}))

	c := newTestClient(t, sock, 5*time.Second)
	body, err := c.Fetch(context.Background(), "huge")

	assert.ErrorIs(t, err, ErrDocumentTooLarge)
	assert.Nil(t, body)
}
