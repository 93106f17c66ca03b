// Package forward encodes outbound HTTP headers into URL query
// parameters and back. The relay is stateless across hops: every URL it
// hands to a client must carry the full header context the next request
// needs, as h_<name>=<value> query pairs.
package forward

import (
	"net/url"
	"sort"
	"strings"
)

// Prefix marks a query parameter as a forwarded header.
const Prefix = "h_"

// Encode serializes a header mapping into an h_ query fragment, e.g.
// "h_Referer=https%3A%2F%2Fexample.com%2F&h_User-Agent=Mozilla%2F5.0".
// Keys are sorted so the output is stable for a given mapping.
func Encode(headers map[string]string) string {
	if len(headers) == 0 {
		return ""
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(Prefix)
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(headers[k]))
	}
	return b.String()
}

// Decode extracts forwarded headers from query parameters. Parameter
// keys arrive already percent-decoded from url.Values; underscores in
// the name map back to hyphens (header names never contain underscores,
// the wire encoding uses them to survive re-encoding), and values are
// whitespace-trimmed. Duplicate parameters keep the first value.
func Decode(query url.Values) map[string]string {
	headers := make(map[string]string)
	for key, values := range query {
		if !strings.HasPrefix(key, Prefix) || len(values) == 0 {
			continue
		}
		name := strings.ReplaceAll(key[len(Prefix):], "_", "-")
		if name == "" {
			continue
		}
		headers[name] = strings.TrimSpace(values[0])
	}
	return headers
}

// Merge copies overrides over base and returns base. Used to layer
// client-supplied h_ headers on top of per-endpoint defaults.
func Merge(base, overrides map[string]string) map[string]string {
	for k, v := range overrides {
		base[k] = v
	}
	return base
}
