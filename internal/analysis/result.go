package analysis

// Result is the structured analysis payload the model is asked to produce
// for one interview transcript.
type Result struct {
	Summary           string            `json:"summary"`
	Themes            []string          `json:"themes"`
	KeyQuotes         []string          `json:"key_quotes"`
	SentimentOverview map[string]string `json:"sentiment_overview"`
	InferredRatings   []InferredRating  `json:"inferred_ratings"`
	Strengths         []string          `json:"strengths"`
	Improvements      []string          `json:"improvements"`
	SafetyFlag        bool              `json:"safety_flag"`
	SafetyNotes       string            `json:"safety_notes"`
}

// InferredRating is one per-item judgment in the model's response. Value and
// Source are raw model output here; they are normalized before persistence.
type InferredRating struct {
	SurveyItem     string  `json:"survey_item"`
	SurveyCategory string  `json:"survey_category"`
	Value          string  `json:"value"`
	Source         string  `json:"source"`
	Confidence     float64 `json:"confidence"`
}

// SentimentCategories are the fixed keys of the sentiment overview map.
var SentimentCategories = []string{
	"overall",
	"safety",
	"belonging",
	"engagement",
	"adult_relationships",
	"peer_relationships",
	"academic_growth",
	"cultural_responsiveness",
}
