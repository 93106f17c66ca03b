package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/KiNGTV2025/xdert/pkg/httpclient"
	"github.com/KiNGTV2025/xdert/pkg/logging"
	"github.com/KiNGTV2025/xdert/pkg/types"
	"github.com/KiNGTV2025/xdert/pkg/urlutil"
)

const (
	pageTimeout    = 5 * time.Second
	handoffTimeout = 4 * time.Second

	defaultUserAgent = "Mozilla/5.0"
)

// Resolver walks the multi-hop discovery protocol. It never returns an
// error: every failure degrades to the best URL discovered so far, so
// the client always gets something it can try to play.
type Resolver struct {
	client    *httpclient.Client
	extractor Extractor
	log       *logging.Logger

	// Server lookups always go over https in production.
	lookupScheme string
}

// New creates a Resolver using the shared HTTP client pool.
func New(client *httpclient.Client, extractor Extractor, log *logging.Logger) *Resolver {
	return &Resolver{
		client:       client,
		extractor:    extractor,
		log:          log.WithComponent("resolver"),
		lookupScheme: "https",
	}
}

// Resolve turns a channel URL into a playlist URL plus the headers
// needed to fetch it. See types.Outcome for the terminal states.
func (r *Resolver) Resolve(ctx context.Context, urlStr string, headers map[string]string) types.ResolutionResult {
	if urlStr == "" {
		return types.ResolutionResult{Outcome: types.OutcomeEmpty}
	}

	h := make(map[string]string, len(headers)+2)
	for k, v := range headers {
		h[k] = v
	}
	if len(h) == 0 {
		h["User-Agent"] = defaultUserAgent
	}

	isDirect := strings.Contains(urlStr, "vavoo.to")

	// Hop 1: the channel page itself, following redirects.
	body, finalURL, err := r.fetch(ctx, urlStr, h, pageTimeout)
	if err != nil {
		r.log.Warn("channel page fetch failed", "url", urlStr, "error", err)
		return types.ResolutionResult{ResolvedURL: urlStr, Headers: h, Outcome: types.OutcomeFallbackOriginal}
	}

	firstHopIsPlaylist := looksLikePlaylist(body)
	if isDirect || firstHopIsPlaylist {
		return types.ResolutionResult{ResolvedURL: finalURL, Headers: h, Outcome: types.OutcomeDirect}
	}

	fallback := func() types.ResolutionResult {
		if firstHopIsPlaylist {
			return types.ResolutionResult{ResolvedURL: finalURL, Headers: h, Outcome: types.OutcomeFallbackShallow}
		}
		return types.ResolutionResult{ResolvedURL: urlStr, Headers: h, Outcome: types.OutcomeFallbackOriginal}
	}

	iframeURL, ok := r.extractor.Iframe(body)
	if !ok {
		r.log.Warn("no iframe in channel page", "url", urlStr)
		return fallback()
	}

	// Hop 2: the player iframe, presenting its own origin as referrer.
	iframeParsed, err := url.Parse(iframeURL)
	if err != nil || iframeParsed.Host == "" {
		r.log.Warn("unusable iframe URL", "url", iframeURL)
		return fallback()
	}
	origin := urlutil.GetSchemeHost(iframeURL)
	h["Referer"] = origin + "/"
	h["Origin"] = origin

	playerBody, _, err := r.fetch(ctx, iframeURL, h, pageTimeout)
	if err != nil {
		r.log.Warn("player page fetch failed", "url", iframeURL, "error", err)
		return fallback()
	}

	params, ok := r.extractor.DeepParams(playerBody)
	if !ok {
		r.log.Warn("player page missing auth parameters", "url", iframeURL)
		return fallback()
	}

	// Signed hand-off; the response body is irrelevant and even a
	// non-2xx answer is tolerated.
	r.handoff(ctx, params, h)

	serverKey, err := r.lookupServerKey(ctx, iframeParsed.Host, params, h)
	if err != nil || serverKey == "" {
		r.log.Warn("server lookup failed", "url", urlStr, "error", err)
		return types.ResolutionResult{ResolvedURL: urlStr, Headers: h, Outcome: types.OutcomeFallbackOriginal}
	}

	streamURL := fmt.Sprintf("https://%s%s%s/%s/mono.m3u8",
		serverKey, params.HostTemplate, serverKey, params.ChannelKey)

	r.log.Debug("resolved channel", "url", urlStr, "stream", streamURL)

	// Only the identity-bearing headers travel to the CDN.
	return types.ResolutionResult{
		ResolvedURL: streamURL,
		Headers: map[string]string{
			"User-Agent": h["User-Agent"],
			"Referer":    h["Referer"],
			"Origin":     h["Origin"],
		},
		Outcome: types.OutcomeResolved,
	}
}

// fetch GETs a page with a bounded timeout and returns the body along
// with the final post-redirect URL.
func (r *Resolver) fetch(ctx context.Context, urlStr string, headers map[string]string, timeout time.Duration) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := r.client.Get(ctx, urlStr, headers)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}

	finalURL := urlStr
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return string(body), finalURL, nil
}

// handoff performs the signed authentication request. Best effort.
func (r *Resolver) handoff(ctx context.Context, params DeepParams, headers map[string]string) {
	authURL := params.AuthHost + params.ChannelKey +
		"&ts=" + params.AuthTs +
		"&rnd=" + params.AuthRnd +
		"&sig=" + url.QueryEscape(params.AuthSig)

	ctx, cancel := context.WithTimeout(ctx, handoffTimeout)
	defer cancel()

	resp, err := r.client.Get(ctx, authURL, headers)
	if err != nil {
		r.log.Debug("auth hand-off failed", "error", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		r.log.Debug("auth hand-off non-OK", "status", resp.StatusCode)
	}
}

// lookupServerKey asks the player host which edge server carries the
// channel. The lookup goes over https regardless of the iframe scheme.
func (r *Resolver) lookupServerKey(ctx context.Context, host string, params DeepParams, headers map[string]string) (string, error) {
	lookupURL := r.lookupScheme + "://" + host + params.ServerLookup + params.ChannelKey

	ctx, cancel := context.WithTimeout(ctx, handoffTimeout)
	defer cancel()

	resp, err := r.client.Get(ctx, lookupURL, headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload struct {
		ServerKey string `json:"server_key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode server lookup: %w", err)
	}
	return payload.ServerKey, nil
}

// looksLikePlaylist reports whether a body starts with the M3U8 magic
// marker, checking at most the first 10 characters.
func looksLikePlaylist(body string) bool {
	head := body
	if len(head) > 10 {
		head = head[:10]
	}
	return strings.HasPrefix(strings.TrimSpace(head), "#EXTM3U")
}
