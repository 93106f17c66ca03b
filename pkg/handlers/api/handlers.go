// Package api provides the HTTP handlers for the relay endpoints.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/KiNGTV2025/xdert/pkg/cache"
	"github.com/KiNGTV2025/xdert/pkg/forward"
	"github.com/KiNGTV2025/xdert/pkg/httpclient"
	"github.com/KiNGTV2025/xdert/pkg/logging"
	"github.com/KiNGTV2025/xdert/pkg/metrics"
	"github.com/KiNGTV2025/xdert/pkg/playlist"
	"github.com/KiNGTV2025/xdert/pkg/relay"
	"github.com/KiNGTV2025/xdert/pkg/resolve"
	"github.com/KiNGTV2025/xdert/pkg/types"
	"github.com/KiNGTV2025/xdert/pkg/urlutil"
)

// Version reported by the health endpoint. Kept in the original wire
// format because deployed monitors string-match on it.
const Version = "3.5-optimized"

// playlistTimeout bounds the fetch of a resolved playlist.
const playlistTimeout = 8 * time.Second

// Handlers contains all relay endpoint handlers.
type Handlers struct {
	log      *logging.Logger
	client   *httpclient.Client
	cache    *cache.ResolveCache
	resolver *resolve.Resolver
	rewriter *playlist.Rewriter
	relay    *relay.Relay
	metrics  *metrics.Metrics
}

// NewHandlers creates a Handlers instance wired to the given components.
func NewHandlers(
	log *logging.Logger,
	client *httpclient.Client,
	resolveCache *cache.ResolveCache,
	resolver *resolve.Resolver,
	rewriter *playlist.Rewriter,
	mediaRelay *relay.Relay,
	m *metrics.Metrics,
) *Handlers {
	return &Handlers{
		log:      log.WithComponent("api"),
		client:   client,
		cache:    resolveCache,
		resolver: resolver,
		rewriter: rewriter,
		relay:    mediaRelay,
		metrics:  m,
	}
}

// RegisterRoutes registers all relay routes.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", h.handleIndex)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /api/stats", h.handleStats)
	mux.HandleFunc("GET /api/cache/clear", h.handleCacheClear)

	mux.HandleFunc("GET /proxy/m3u", h.handlePlaylist)
	mux.HandleFunc("GET /proxy/resolve", h.handleResolve)
	mux.HandleFunc("GET /proxy/ts", h.handleSegment)
	mux.HandleFunc("GET /proxy/key", h.handleKey)
}

// handlePlaylist resolves a channel URL, fetches the playlist it points
// at, and returns it rewritten against the relay endpoints.
func (h *Handlers) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	urlStr := strings.TrimSpace(r.URL.Query().Get("url"))
	if urlStr == "" {
		http.Error(w, "No URL", http.StatusBadRequest)
		return
	}

	h.metrics.IncRequests()

	// Playlist requests carry identity defaults; h_ params override.
	headers := forward.Merge(map[string]string{
		"User-Agent": "Mozilla/5.0",
		"Referer":    "https://vavoo.to/",
		"Origin":     "https://vavoo.to",
	}, forward.Decode(r.URL.Query()))

	urlStr = urlutil.NormalizeChannelURL(urlStr)

	h.metrics.IncStreams()
	defer h.metrics.DecStreams()

	result := h.cache.Get(r.Context(), urlStr, headers, h.resolver.Resolve)
	if !result.Usable() {
		http.Error(w, "Failed to resolve", http.StatusInternalServerError)
		return
	}

	content, finalURL, err := h.fetchPlaylist(r.Context(), result)
	if err != nil {
		h.log.Error("playlist fetch failed", "url", result.ResolvedURL, "error", err)
		http.Error(w, fmt.Sprintf("Error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", playlist.ContentType)
	io.WriteString(w, h.rewriter.Rewrite(content, finalURL, result.Headers))
}

// handleResolve resolves a channel URL and returns a single-entry
// playlist pointing back at the playlist endpoint, so players can add
// the channel without knowing the upstream URL.
func (h *Handlers) handleResolve(w http.ResponseWriter, r *http.Request) {
	urlStr := strings.TrimSpace(r.URL.Query().Get("url"))
	if urlStr == "" {
		http.Error(w, "No URL", http.StatusBadRequest)
		return
	}

	h.metrics.IncRequests()

	headers := forward.Decode(r.URL.Query())

	result := h.cache.Get(r.Context(), urlStr, headers, h.resolver.Resolve)
	if !result.Usable() {
		http.Error(w, "Failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", playlist.ContentType)
	fmt.Fprintf(w, "#EXTM3U\n#EXTINF:-1,Stream\n/proxy/m3u?url=%s&%s",
		url.QueryEscape(result.ResolvedURL), forward.Encode(result.Headers))
}

// handleSegment streams one media segment from upstream.
func (h *Handlers) handleSegment(w http.ResponseWriter, r *http.Request) {
	urlStr := strings.TrimSpace(r.URL.Query().Get("url"))
	if urlStr == "" {
		http.Error(w, "No URL", http.StatusBadRequest)
		return
	}

	headers := forward.Decode(r.URL.Query())

	w.Header().Set("Content-Type", "video/mp2t")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	// Reverse proxies must not buffer live segments.
	w.Header().Set("X-Accel-Buffering", "no")

	written, err := h.relay.Segment(r.Context(), w, urlStr, headers)
	if err != nil {
		if written == 0 {
			// Nothing has been sent, so the cacheable headers can still
			// be retracted; shared caches must not pin the failure.
			w.Header().Del("Cache-Control")
			w.Header().Del("X-Accel-Buffering")
			http.Error(w, fmt.Sprintf("Error: %v", err), http.StatusInternalServerError)
			return
		}
		// Mid-stream failures cannot be signaled to the client anymore.
		h.log.Debug("segment stream interrupted", "url", urlStr, "written", written, "error", err)
	}
}

// handleKey relays an AES decryption key.
func (h *Handlers) handleKey(w http.ResponseWriter, r *http.Request) {
	urlStr := strings.TrimSpace(r.URL.Query().Get("url"))
	if urlStr == "" {
		http.Error(w, "No URL", http.StatusBadRequest)
		return
	}

	headers := forward.Decode(r.URL.Query())

	key, err := h.relay.Key(r.Context(), urlStr, headers)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(key)
}

// fetchPlaylist retrieves the resolved playlist and reports the final
// post-redirect URL for anchoring relative segments.
func (h *Handlers) fetchPlaylist(ctx context.Context, result types.ResolutionResult) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, playlistTimeout)
	defer cancel()

	resp, err := h.client.Get(ctx, result.ResolvedURL, result.Headers)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}

	finalURL := result.ResolvedURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return string(body), finalURL, nil
}

// handleStats reports the runtime counters. Uptime is hours with one
// decimal, as a string, matching what the dashboard expects.
func (h *Handlers) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := h.metrics.Snapshot()
	writeJSON(w, map[string]any{
		"requests":   snap.TotalRequests,
		"streams":    snap.ActiveStreams,
		"uptime":     fmt.Sprintf("%.1f", snap.Uptime.Hours()),
		"cache_hits": snap.CacheHits,
	})
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "version": Version})
}

func (h *Handlers) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear()
	h.log.Info("resolution cache cleared", "remote_addr", r.RemoteAddr)
	writeJSON(w, map[string]string{"status": "cache cleared"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
