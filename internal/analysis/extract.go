package analysis

import (
	"regexp"
	"strings"
)

var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)```")

// ExtractJSON recovers a JSON object payload from a model response that may
// wrap it in a markdown code fence or surround it with prose. It returns the
// best-effort JSON text; if no structure is recognizable the input is
// returned unchanged so the caller's parse surfaces the failure.
//
// This is deliberately narrow: it handles a single top-level object, which is
// the only shape the analysis response uses.
func ExtractJSON(text string) string {
	cleaned := strings.TrimSpace(text)

	if m := codeFenceRe.FindStringSubmatch(cleaned); m != nil {
		cleaned = strings.TrimSpace(m[1])
	}

	// Trailing or leading prose around a bare object: slice out the first
	// balanced top-level object.
	if !strings.HasPrefix(cleaned, "{") {
		start := strings.IndexByte(cleaned, '{')
		if start == -1 {
			return cleaned
		}
		cleaned = cleaned[start:]
		depth := 0
		for i := 0; i < len(cleaned); i++ {
			switch cleaned[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				return cleaned[:i+1]
			}
		}
	}

	return cleaned
}
