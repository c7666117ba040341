package models

// ChannelMetrics holds the raw activity numbers behind a channel's ranking
// score. AvgScore is the mean native score of the items attributed to the
// channel while it was measured.
type ChannelMetrics struct {
	Mentions int     `json:"mentions"`
	AvgScore float64 `json:"avg_score"`
	Comments int     `json:"comments"`
}

// RankedChannel is one discovery result.
type RankedChannel struct {
	Platform  string         `json:"platform"`
	ChannelID string         `json:"channel_id"`
	Name      string         `json:"name"`
	Metrics   ChannelMetrics `json:"metrics"`
	Score     float64        `json:"score"`
}

// Score computes the weighted activity score used to rank channels.
func (m ChannelMetrics) Score() float64 {
	return float64(m.Mentions)*0.6 + m.AvgScore*0.2 + float64(m.Comments)*0.2
}
