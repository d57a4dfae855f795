package monetize

import (
	"time"
)

var (
	WeightRetention  = 0.35
	WeightEngagement = 0.30
	WeightTrust      = 0.20
	WeightStability  = 0.15
)

// reference values at which each raw sub-score maxes out
var (
	fullViewTimeSeconds   = 300.0
	fullActiveSubscribers = 1000.0
	fullQualityComments   = 100.0
	fullShares            = 50.0
	fullPostsPerMonth     = 20.0
	reportPenalty         = 10.0
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CalculateScore derives the weighted monetization score from engagement
// metrics. Each raw component is clamped to [0,100] before weighting; the
// stored fields carry the weighted contributions and Total is their sum, so it
// also lands in [0,100].
func CalculateScore(m Metrics, now time.Time) Score {
	retention := clamp(m.AvgViewTime/fullViewTimeSeconds*50+float64(m.ActiveSubscribers)/fullActiveSubscribers*50, 0, 100)
	engagement := clamp(float64(m.QualityComments)/fullQualityComments*50+float64(m.Shares)/fullShares*50, 0, 100)
	trust := clamp(100-float64(m.Reports)*reportPenalty, 0, 100)
	stability := clamp(float64(m.PostsLastMonth)/fullPostsPerMonth*100, 0, 100)

	s := Score{
		Retention:  retention * WeightRetention,
		Engagement: engagement * WeightEngagement,
		Trust:      trust * WeightTrust,
		Stability:  stability * WeightStability,
	}
	s.Total = s.Retention + s.Engagement + s.Trust + s.Stability
	t := now
	s.LastCalculated = &t
	return s
}

// Recalculate overwrites the profile's stored score from its current metrics.
func (p *Profile) Recalculate(now time.Time) Score {
	p.Score = CalculateScore(p.Metrics, now)
	return p.Score
}
