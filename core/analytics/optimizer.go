package analytics

import (
	"context"
	"sort"
	"time"
)

// Recommendation is one advisory action with its projected payoff.
type Recommendation struct {
	Action           string  `json:"action"`
	Impact           string  `json:"impact"`
	EstimatedSavings float64 `json:"estimated_savings"`
	Rank             int     `json:"rank"`
}

// OptimizationResult projects an improved metric set from the current one.
// The projection is a heuristic, not a solved optimization: it applies fixed
// multipliers and must be read as advisory output, never a guarantee.
type OptimizationResult struct {
	WarehouseID     string           `json:"warehouse_id"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Current         Snapshot         `json:"current"`
	Projected       Snapshot         `json:"projected"`
	Recommendations []Recommendation `json:"recommendations"`
	Advisory        string           `json:"advisory"`
}

// OptimizationModel projects an optimized metric set from a snapshot. The
// interface exists so the fixed-multiplier heuristic can later be swapped for
// a real constrained solver without touching the engine's public contract.
type OptimizationModel interface {
	Project(s Snapshot) (Snapshot, []Recommendation)
}

// FixedHeuristicModel applies fixed percentage multipliers to project the
// effect of the recommended actions.
type FixedHeuristicModel struct {
	// DwellReduction is the assumed fractional dwell-time reduction, e.g. 0.15.
	DwellReduction float64
	// UtilizationGain is the assumed fractional utilization increase, e.g. 0.10.
	UtilizationGain float64
	// DetentionHourlyRate converts saved dwell hours into money.
	DetentionHourlyRate float64
	// DailyTrailerEstimate scales per-trailer savings to a daily figure.
	DailyTrailerEstimate int
}

// DefaultModel returns the model with the standard multipliers.
func DefaultModel(detentionRate float64) FixedHeuristicModel {
	return FixedHeuristicModel{
		DwellReduction:       0.15,
		UtilizationGain:      0.10,
		DetentionHourlyRate:  detentionRate,
		DailyTrailerEstimate: 20,
	}
}

// Project applies the multipliers and derives the ranked action list.
func (m FixedHeuristicModel) Project(s Snapshot) (Snapshot, []Recommendation) {
	p := s
	p.AvgDwellHours = s.AvgDwellHours * (1 - m.DwellReduction)
	p.AvgDwellByOperation = make(map[string]float64, len(s.AvgDwellByOperation))
	for op, d := range s.AvgDwellByOperation {
		p.AvgDwellByOperation[op] = d * (1 - m.DwellReduction)
	}
	p.DockUtilization = capRatio(s.DockUtilization * (1 + m.UtilizationGain))
	p.YardUtilization = capRatio(s.YardUtilization * (1 + 1.5*m.UtilizationGain))

	savedHours := (s.AvgDwellHours - p.AvgDwellHours) * float64(m.DailyTrailerEstimate)
	var recs []Recommendation
	recs = append(recs, Recommendation{
		Action:           "stagger appointment windows to spread dock load",
		Impact:           "reduces trailer dwell time",
		EstimatedSavings: savedHours * m.DetentionHourlyRate,
	})
	if s.OnTimeRate < 0.9 {
		recs = append(recs, Recommendation{
			Action:           "notify carriers of repeated late arrivals",
			Impact:           "improves on-time performance",
			EstimatedSavings: savedHours * m.DetentionHourlyRate * 0.5,
		})
	}
	if s.YardUtilization > 0.8 {
		recs = append(recs, Recommendation{
			Action:           "pre-stage drop trailers in waiting locations",
			Impact:           "frees parking capacity near the docks",
			EstimatedSavings: savedHours * m.DetentionHourlyRate * 0.25,
		})
	}
	if s.DockUtilization < 0.5 {
		recs = append(recs, Recommendation{
			Action:           "consolidate operations onto fewer doors off-peak",
			Impact:           "raises dock utilization",
			EstimatedSavings: 0,
		})
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].EstimatedSavings > recs[j].EstimatedSavings })
	for i := range recs {
		recs[i].Rank = i + 1
	}
	return p, recs
}

func capRatio(r float64) float64 {
	if r > 1 {
		return 1
	}
	return r
}

// Optimizer wraps the aggregator and a model into the OptimizeYard operation.
type Optimizer struct {
	agg   *Aggregator
	model OptimizationModel
}

// NewOptimizer creates an Optimizer.
func NewOptimizer(agg *Aggregator, model OptimizationModel) *Optimizer {
	return &Optimizer{agg: agg, model: model}
}

// Optimize computes the current metrics and projects the optimized set.
func (o *Optimizer) Optimize(ctx context.Context, warehouseID string) (OptimizationResult, error) {
	snap, err := o.agg.Snapshot(ctx, warehouseID)
	if err != nil {
		return OptimizationResult{}, err
	}
	projected, recs := o.model.Project(snap)
	return OptimizationResult{
		WarehouseID:     warehouseID,
		GeneratedAt:     snap.Time,
		Current:         snap,
		Projected:       projected,
		Recommendations: recs,
		Advisory:        "heuristic projection based on fixed multipliers; advisory only, not a guaranteed outcome",
	}, nil
}
