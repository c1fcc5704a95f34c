package analysis

import "strings"

// NotDiscussed is the sentinel rating for items the conversation never
// covered, and the fallback for any token the normalizer cannot place.
const NotDiscussed = "not_discussed"

// ratingValues is the closed vocabulary the ratings table accepts.
var ratingValues = map[string]struct{}{
	"strongly_agree":    {},
	"agree":             {},
	"disagree":          {},
	"strongly_disagree": {},
	"yes":               {},
	"no":                {},
	"often":             {},
	"sometimes":         {},
	"rarely":            {},
	"never":             {},
	"always":            {},
	"a_lot":             {},
	NotDiscussed:        {},
}

// ratingAliases maps common model variations onto the canonical vocabulary.
var ratingAliases = map[string]string{
	"strong_agree":     "strongly_agree",
	"strong_disagree":  "strongly_disagree",
	"alot":             "a_lot",
	"not_applicable":   NotDiscussed,
	"n/a":              NotDiscussed,
	"na":               NotDiscussed,
	"unknown":          NotDiscussed,
	"cannot_determine": NotDiscussed,
}

// NormalizeRating maps an arbitrary model-produced rating token onto the
// canonical vocabulary. It is total: any input yields a vocabulary member,
// with NotDiscussed as the conservative fallback for anything unrecognized.
func NormalizeRating(value string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(value))), "_")
	if _, ok := ratingValues[normalized]; ok {
		return normalized
	}
	if canonical, ok := ratingAliases[normalized]; ok {
		return canonical
	}
	return NotDiscussed
}

// IsRatingValue reports whether v is a member of the canonical vocabulary.
func IsRatingValue(v string) bool {
	_, ok := ratingValues[v]
	return ok
}
