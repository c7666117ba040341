package models

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// SentimentResult is one classification outcome, positionally aligned with
// the input batch. Fallback marks results produced by the lexicon scorer
// rather than the generative model.
type SentimentResult struct {
	Sentiment  string            `json:"sentiment"`
	Confidence float64           `json:"confidence"`
	Aspects    map[string]string `json:"aspects"`
	Fallback   bool              `json:"fallback,omitempty"`
}

// ProductSummary is a parsed summary payload. Delights and PainPoints hold
// at most five entries each, in the order the model produced them.
type ProductSummary struct {
	Product    string   `json:"product"`
	Overall    string   `json:"overall"`
	Delights   []string `json:"delights"`
	PainPoints []string `json:"pain_points"`
}
