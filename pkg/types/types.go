// Package types defines core domain types used throughout the application.
package types

// Outcome names the terminal state a resolution reached. Every failure
// inside the resolver degrades to one of the fallback outcomes instead
// of surfacing an error.
type Outcome string

const (
	// OutcomeResolved means the full multi-hop protocol completed and
	// ResolvedURL points at the authenticated playlist.
	OutcomeResolved Outcome = "resolved"

	// OutcomeDirect means the first hop already returned playlist
	// content (or came from a known direct provider), so no deeper
	// hops were attempted.
	OutcomeDirect Outcome = "direct"

	// OutcomeFallbackShallow means deep resolution was unavailable and
	// ResolvedURL is the first hop's final (post-redirect) URL.
	OutcomeFallbackShallow Outcome = "fallback_shallow"

	// OutcomeFallbackOriginal means resolution failed entirely and
	// ResolvedURL is the caller's original input URL.
	OutcomeFallbackOriginal Outcome = "fallback_original"

	// OutcomeEmpty means the input URL was empty.
	OutcomeEmpty Outcome = "empty"
)

// ChannelRequest is an incoming relay request: an opaque channel URL
// plus the headers the client wants forwarded upstream.
type ChannelRequest struct {
	URL     string
	Headers map[string]string
}

// ResolutionResult is the outcome of resolving a channel URL. An empty
// ResolvedURL signals that resolution produced nothing usable; callers
// decide whether that is a 500 or a best-effort passthrough.
type ResolutionResult struct {
	ResolvedURL string
	Headers     map[string]string
	Outcome     Outcome
}

// Usable reports whether the result carries a URL the relay can fetch.
func (r ResolutionResult) Usable() bool {
	return r.ResolvedURL != ""
}
