package forecast

import (
	"github.com/agromesh/cottonwatch/pkg/config"
)

// RiskLevel grades how worried operators should be about a predicted
// humidity. Tier boundaries are fixed; the dry threshold only gates the
// action decision. Risk answers "how worried", action answers "should we
// act".
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"

	// RiskUnknown marks a location that has a reading but no prediction yet
	RiskUnknown RiskLevel = "unknown"
)

// Action is the irrigate/skip decision for one location/date
type Action string

const (
	ActionIrrigate Action = "IRRIGATE"
	ActionSkip     Action = "SKIP"
)

// Recommendation converts one predicted humidity into operator guidance
type Recommendation struct {
	PredictedHumidity float64
	RiskLevel         RiskLevel
	Action            Action
	RecommendedAmount float64
	Advisory          string
}

// Recommend maps a predicted humidity to risk, action, and a bounded water
// quantity. The quantity is a linear map of the humidity deficit: zero at or
// above the target, saturating at the daily cap when the deficit reaches the
// target itself.
func Recommend(predicted float64, cfg config.ForecastData) Recommendation {
	deficit := cfg.TargetHumidity - predicted
	if deficit < 0 {
		deficit = 0
	}
	normalized := deficit / cfg.TargetHumidity
	if normalized > 1 {
		normalized = 1
	}

	action := ActionSkip
	if predicted < cfg.DryThreshold {
		action = ActionIrrigate
	}

	return Recommendation{
		PredictedHumidity: predicted,
		RiskLevel:         assessRisk(predicted),
		Action:            action,
		RecommendedAmount: normalized * cfg.MaxDailyAmount,
		Advisory:          advisory(predicted),
	}
}

func assessRisk(predicted float64) RiskLevel {
	switch {
	case predicted < 20:
		return RiskHigh
	case predicted < 30:
		return RiskMedium
	default:
		return RiskLow
	}
}

// advisory renders a human-readable soil-saturation note for the dashboard
func advisory(humidity float64) string {
	switch {
	case humidity >= 95:
		return "soil is saturated; irrigation not required"
	case humidity >= 70:
		return "humidity within normal range"
	case humidity < 40:
		return "critical drought conditions; irrigate immediately"
	case humidity < 60:
		return "humidity is low; irrigation recommended"
	default:
		return "humidity below optimal; monitor closely"
	}
}
