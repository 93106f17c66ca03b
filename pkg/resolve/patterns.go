// Package resolve turns opaque channel URLs into directly fetchable,
// authenticated playlist URLs by walking the source's embed pages.
package resolve

import "regexp"

// DeepParams holds everything the deep resolution path scrapes out of
// the player page: the channel identity, the signed auth hand-off
// values, and the two URL fragments the final playlist URL is built from.
type DeepParams struct {
	ChannelKey   string
	AuthTs       string
	AuthRnd      string
	AuthSig      string
	AuthHost     string
	ServerLookup string
	HostTemplate string
}

// Extractor pulls structured values out of fetched page bodies. The
// rules scrape an uncontrolled external format, so they live behind
// this interface where they can be swapped or versioned without
// touching the resolution flow. A non-match is an ordinary outcome,
// not an error.
type Extractor interface {
	// Iframe returns the embedded player URL from a watch page.
	Iframe(body string) (string, bool)

	// DeepParams extracts the full parameter set from a player page.
	// ok is false unless every field matched.
	DeepParams(body string) (DeepParams, bool)
}

// The fixed rule set, one expression per value, first capture group
// wins. These track the current generation of daddylive player pages.
var (
	reChannelKey   = regexp.MustCompile(`channelKey\s*=\s*"([^"]*)"`)
	reAuthTs       = regexp.MustCompile(`authTs\s*=\s*"([^"]*)"`)
	reAuthRnd      = regexp.MustCompile(`authRnd\s*=\s*"([^"]*)"`)
	reAuthSig      = regexp.MustCompile(`authSig\s*=\s*"([^"]*)"`)
	reAuthHost     = regexp.MustCompile(`\}\s*fetchWithRetry\(\s*['"]([^'"]*)['"]`)
	reServerLookup = regexp.MustCompile(`n\s+fetchWithRetry\(\s*['"]([^'"]*)['"]`)
	reHostTemplate = regexp.MustCompile(`m3u8\s*=.*?['"]([^'"]*)['"]`)
	reIframe       = regexp.MustCompile(`iframe\s+src=['"]([^'"]+)['"]`)
)

// patternExtractor is the regex-backed Extractor.
type patternExtractor struct{}

// NewExtractor returns the current-generation pattern extractor.
func NewExtractor() Extractor {
	return patternExtractor{}
}

func first(re *regexp.Regexp, body string) (string, bool) {
	m := re.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func (patternExtractor) Iframe(body string) (string, bool) {
	return first(reIframe, body)
}

func (patternExtractor) DeepParams(body string) (DeepParams, bool) {
	var p DeepParams
	var ok bool

	if p.ChannelKey, ok = first(reChannelKey, body); !ok {
		return DeepParams{}, false
	}
	if p.AuthTs, ok = first(reAuthTs, body); !ok {
		return DeepParams{}, false
	}
	if p.AuthRnd, ok = first(reAuthRnd, body); !ok {
		return DeepParams{}, false
	}
	if p.AuthSig, ok = first(reAuthSig, body); !ok {
		return DeepParams{}, false
	}
	if p.AuthHost, ok = first(reAuthHost, body); !ok {
		return DeepParams{}, false
	}
	if p.ServerLookup, ok = first(reServerLookup, body); !ok {
		return DeepParams{}, false
	}
	if p.HostTemplate, ok = first(reHostTemplate, body); !ok {
		return DeepParams{}, false
	}
	return p, true
}
