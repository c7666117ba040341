package sentiment

import (
	"github.com/jonreiter/govader"

	"github.com/prodpulse/prodpulse/internal/models"
)

const (
	positiveThreshold = 0.05
	negativeThreshold = -0.05
)

var analyzer = govader.NewSentimentIntensityAnalyzer()

// Fallback classifies texts with the VADER lexicon scorer. It is fully
// deterministic, returns one result per input in input order, and tags every
// result so callers can tell it apart from the generative path. Aspects are
// always empty on this path.
func Fallback(texts []string) []models.SentimentResult {
	results := make([]models.SentimentResult, 0, len(texts))
	for _, text := range texts {
		compound := analyzer.PolarityScores(text).Compound

		label := models.SentimentNeutral
		if compound >= positiveThreshold {
			label = models.SentimentPositive
		} else if compound <= negativeThreshold {
			label = models.SentimentNegative
		}

		confidence := compound
		if confidence < 0 {
			confidence = -confidence
		}

		results = append(results, models.SentimentResult{
			Sentiment:  label,
			Confidence: confidence,
			Aspects:    map[string]string{},
			Fallback:   true,
		})
	}
	return results
}
