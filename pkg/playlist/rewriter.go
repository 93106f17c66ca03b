// Package playlist rewrites M3U8 content so every segment and key
// reference routes back through the relay.
package playlist

import (
	"net/url"
	"strings"

	"github.com/KiNGTV2025/xdert/pkg/forward"
	"github.com/KiNGTV2025/xdert/pkg/urlutil"
)

// ContentType is the HLS playlist MIME type, used for every playlist
// response regardless of whether it was rewritten.
const ContentType = "application/vnd.apple.mpegurl"

const (
	segmentEndpoint = "/proxy/ts"
	keyEndpoint     = "/proxy/key"
)

// Rewriter rewrites playlists against the relay's own endpoints. The
// emitted URLs are root-relative paths, which is the wire format
// existing clients depend on.
type Rewriter struct{}

// NewRewriter creates a Rewriter.
func NewRewriter() *Rewriter {
	return &Rewriter{}
}

// IsDirect reports whether content is a master-style playlist with no
// inline segment list: the M3U8 marker appears in the first 100
// characters and no #EXTINF tag in the first 300. Such content passes
// through the relay verbatim.
func IsDirect(content string) bool {
	head := content
	if len(head) > 100 {
		head = head[:100]
	}
	if !strings.Contains(head, "#EXTM3U") {
		return false
	}

	window := content
	if len(window) > 300 {
		window = window[:300]
	}
	return !strings.Contains(window, "#EXTINF")
}

// Rewrite returns the playlist with segment and key URIs pointing at
// the relay, carrying the resolved absolute upstream URL and the
// forwarded header set in their query strings. finalURL is the
// post-redirect URL the content was fetched from; it anchors relative
// segment references. Content detected by IsDirect is returned
// unchanged.
func (rw *Rewriter) Rewrite(content, finalURL string, headers map[string]string) string {
	if IsDirect(content) {
		return content
	}

	base := urlutil.GetBaseDirectory(finalURL)
	fragment := forward.Encode(headers)

	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, rw.rewriteLine(strings.TrimSpace(line), base, fragment))
	}
	return strings.Join(out, "\n")
}

// rewriteLine applies the per-line classification rules.
func (rw *Rewriter) rewriteLine(line, base, fragment string) string {
	switch {
	case line == "":
		return line
	case strings.HasPrefix(line, "#EXT-X-KEY"):
		return rw.rewriteKeyLine(line, fragment)
	case strings.HasPrefix(line, "#"):
		return line
	default:
		// Segment reference, possibly relative to the playlist.
		segment := urlutil.ResolveURL(line, base)
		return segmentEndpoint + "?url=" + url.QueryEscape(segment) + "&" + fragment
	}
}

// rewriteKeyLine replaces the URI attribute value of an #EXT-X-KEY line
// with a relay key-endpoint reference. Every other attribute on the
// line is left untouched.
func (rw *Rewriter) rewriteKeyLine(line, fragment string) string {
	start := strings.Index(line, `URI="`)
	if start == -1 {
		return line
	}
	start += len(`URI="`)

	end := strings.Index(line[start:], `"`)
	if end == -1 {
		return line
	}

	uri := line[start : start+end]
	relay := keyEndpoint + "?url=" + url.QueryEscape(uri) + "&" + fragment
	return line[:start] + relay + line[start+end:]
}
