package playlist

import (
	"fmt"
	"strings"
)

const condensedHeaderPrefix = "#YT-EXT-CONDENSED-URL"

// ExpandCondensedURI implements spec.md §4.A "Condensed-URI expansion". When
// the first tag after "#EXTM3U\n" is #YT-EXT-CONDENSED-URL, its BASE-URI,
// PARAMS, and PREFIX attributes are used to rewrite every segment URL line
// that starts with PREFIX: PREFIX is replaced by BASE-URI, and each of the
// N comma-separated PARAMS tokens is inserted as its own path segment ahead
// of the existing path component at the matching position; when the line
// has fewer components than PARAMS tokens, the remaining params end the
// line. If no condensed header is present, an equal copy of
// the input is returned unchanged.
func ExpandCondensedURI(text string) (string, error) {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 || strings.TrimRight(lines[0], "\r") != "#EXTM3U" {
		return text, nil
	}
	if !strings.HasPrefix(lines[1], condensedHeaderPrefix) {
		return text, nil
	}

	attrs := parseAttributes(strings.TrimPrefix(lines[1], condensedHeaderPrefix+":"))
	baseURI := attrs["BASE-URI"]
	prefix := attrs["PREFIX"]
	paramsRaw := attrs["PARAMS"]
	if baseURI == "" || prefix == "" {
		return "", fmt.Errorf("%w: condensed header missing BASE-URI or PREFIX", ErrMalformed)
	}
	params := strings.Split(paramsRaw, ",")

	chunks := 0
	for i, line := range lines {
		if i < 2 || !strings.HasPrefix(line, prefix) {
			continue
		}
		lines[i] = expandSegmentLine(line, prefix, baseURI, params)
		chunks++
	}

	out := strings.Join(lines, "\n")

	perChunk := len(baseURI) - len(prefix)
	for _, p := range params {
		perChunk += len("/") + len(p)
	}
	expected := len(text) + chunks*perChunk
	if len(out) != expected {
		return "", fmt.Errorf("%w: condensed expansion length mismatch: got %d want %d", ErrMalformed, len(out), expected)
	}

	return out, nil
}

// expandSegmentLine rewrites one PREFIX-led segment URL line by swapping in
// BASE-URI and interleaving params ahead of the existing path components.
func expandSegmentLine(line, prefix, baseURI string, params []string) string {
	rest := strings.TrimPrefix(line, prefix)
	rest = strings.TrimPrefix(rest, "/")
	var comps []string
	if rest != "" {
		comps = strings.Split(rest, "/")
	}

	var b strings.Builder
	b.WriteString(baseURI)
	for i, p := range params {
		b.WriteString("/")
		b.WriteString(p)
		if i < len(comps) {
			b.WriteString("/")
			b.WriteString(comps[i])
		}
	}
	// Any existing components beyond len(params) (shouldn't happen when the
	// client's PARAMS count matches the path, but kept defensively) are
	// appended verbatim so no segment data is silently dropped.
	if len(comps) > len(params) {
		for _, c := range comps[len(params):] {
			b.WriteString("/")
			b.WriteString(c)
		}
	}
	return b.String()
}
