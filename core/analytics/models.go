// Package analytics holds the dashboard statistics and the fixed series
// behind the analytics charts.
package analytics

type Stats struct {
	TotalTrainings    int `json:"total_trainings"`
	TotalParticipants int `json:"total_participants"`
	StatesCovered     int `json:"states_covered"`
	ActiveAlerts      int `json:"active_alerts"`
}

type MonthlyTrend struct {
	Month        string `json:"month"`
	Trainings    int    `json:"trainings"`
	Participants int    `json:"participants"`
}

// Fixed series rendered by the analytics section. The source program ships
// these with the frontend rather than deriving them from event data.
var (
	EffectivenessLabels = []string{"Excellent", "Good", "Average", "Poor"}
	EffectivenessData   = []float64{45, 30, 20, 5}

	CoverageLabels = []string{"North", "South", "East", "West", "Central", "Northeast"}
	CoverageData   = []float64{25, 32, 18, 28, 22, 8}

	SatisfactionData = []float64{4.1, 4.2, 4.3, 4.0, 4.4, 4.3}

	MonthlyTrends = []MonthlyTrend{
		{Month: "May", Trainings: 12, Participants: 485},
		{Month: "Jun", Trainings: 15, Participants: 620},
		{Month: "Jul", Trainings: 18, Participants: 730},
		{Month: "Aug", Trainings: 14, Participants: 560},
		{Month: "Sep", Trainings: 16, Participants: 640},
		{Month: "Oct", Trainings: 13, Participants: 520},
	}
)

// TrendLabels returns the month labels for the satisfaction line chart.
func TrendLabels() []string {
	labels := make([]string, len(MonthlyTrends))
	for i, t := range MonthlyTrends {
		labels[i] = t.Month
	}
	return labels
}
