// Package relay streams media segments and decryption keys from
// upstream CDNs to the client without buffering whole objects.
package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/KiNGTV2025/xdert/pkg/httpclient"
	"github.com/KiNGTV2025/xdert/pkg/logging"
)

const (
	segmentTimeout = 20 * time.Second
	keyTimeout     = 5 * time.Second

	// Copy buffer for segment streaming. Large enough that a typical
	// transport-stream chunk takes a handful of writes.
	chunkSize = 128 * 1024
)

// Relay copies upstream media bytes to a client connection.
type Relay struct {
	client *httpclient.Client
	log    *logging.Logger
}

// New creates a Relay on the shared HTTP client pool.
func New(client *httpclient.Client, log *logging.Logger) *Relay {
	return &Relay{
		client: client,
		log:    log.WithComponent("relay"),
	}
}

// Segment fetches a media segment and streams it to w in fixed-size
// chunks. The number of bytes written is returned even on error, since
// a partial write to a live client is still a partial write.
func (r *Relay) Segment(ctx context.Context, w io.Writer, urlStr string, headers map[string]string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, segmentTimeout)
	defer cancel()

	resp, err := r.client.Get(ctx, urlStr, headers)
	if err != nil {
		return 0, fmt.Errorf("segment fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("segment fetch: upstream status %d", resp.StatusCode)
	}

	buf := make([]byte, chunkSize)
	written, err := io.CopyBuffer(w, resp.Body, buf)
	if err != nil {
		// Client disconnects land here too; the caller decides how
		// loudly to report them.
		return written, fmt.Errorf("segment stream after %d bytes: %w", written, err)
	}
	return written, nil
}

// Key fetches a decryption key in full. Keys are 16 bytes in practice,
// so there is nothing to stream.
func (r *Relay) Key(ctx context.Context, urlStr string, headers map[string]string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, keyTimeout)
	defer cancel()

	resp, err := r.client.Get(ctx, urlStr, headers)
	if err != nil {
		return nil, fmt.Errorf("key fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("key fetch: upstream status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("key read: %w", err)
	}
	return body, nil
}
