package services

import (
	"fmt"
	"sort"

	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
	"github.com/lcsretail/customer_metrics_app/internal/utils/metricmath"
	"github.com/shopspring/decimal"
)

// ABC cumulative revenue share cut points and XYZ coefficient-of-variation
// cut points. Fixed by design; the rule tables must stay deterministic.
var (
	abcACutoff = 0.80
	abcBCutoff = 0.95

	xyzXCutoff = 0.5
	xyzYCutoff = 1.0
)

// Churn-probability cut points for the risk buckets.
var (
	churnRiskMediumCutoff   = 0.25
	churnRiskHighCutoff     = 0.50
	churnRiskCriticalCutoff = 0.75
)

// PopulationScores holds the population-relative assignments that can only be
// produced after every customer's aggregates are known: RFM quintile scores,
// ABC revenue classes, and CLV quartile labels. Keys are customer ids.
type PopulationScores struct {
	RScores map[string]int
	FScores map[string]int
	MScores map[string]int

	ABCSegments          map[string]string
	ProfitContribution   map[string]decimal.Decimal
	CumulativePercentile map[string]decimal.Decimal

	CLVSegments map[string]string
}

// SegmentationService derives categorical labels from aggregation and
// prediction outputs using deterministic rule tables. No hidden state: the
// same population and configuration always produce the same assignments.
type SegmentationService struct{}

// NewSegmentationService creates the segmentation engine.
func NewSegmentationService() *SegmentationService {
	return &SegmentationService{}
}

// ScorePopulation runs the population-wide pass. It must complete before any
// single customer's segments can be finalized, because quintiles and revenue
// percentiles depend on the full cohort for this run.
func (s *SegmentationService) ScorePopulation(aggs []domain.CustomerAggregates, preds map[string]domain.CustomerPredictions, cfg domain.RunConfig) PopulationScores {
	pop := PopulationScores{
		ABCSegments:          make(map[string]string, len(aggs)),
		ProfitContribution:   make(map[string]decimal.Decimal, len(aggs)),
		CumulativePercentile: make(map[string]decimal.Decimal, len(aggs)),
	}

	// RFM quintiles cover only customers with at least one order; recency is
	// undefined for the rest and their scores stay null.
	recencyVals := make(map[string]float64)
	frequencyVals := make(map[string]float64)
	monetaryVals := make(map[string]float64)
	for _, agg := range aggs {
		if agg.TotalOrders == 0 || agg.Recency == nil || agg.Frequency == nil {
			continue
		}
		recencyVals[agg.CustomerID] = float64(*agg.Recency)
		frequencyVals[agg.CustomerID], _ = agg.Frequency.Float64()
		monetaryVals[agg.CustomerID], _ = agg.Monetary.Float64()
	}
	pop.RScores = metricmath.QuantileScores(recencyVals, cfg.RFMBuckets, false)
	pop.FScores = metricmath.QuantileScores(frequencyVals, cfg.RFMBuckets, true)
	pop.MScores = metricmath.QuantileScores(monetaryVals, cfg.RFMBuckets, true)

	s.assignABC(&pop, aggs)
	s.assignCLVSegments(&pop, preds)

	return pop
}

// assignABC ranks customers by revenue descending (ties broken by customer id
// so re-runs are byte-identical) and classifies by cumulative revenue share.
func (s *SegmentationService) assignABC(pop *PopulationScores, aggs []domain.CustomerAggregates) {
	ranked := make([]domain.CustomerAggregates, len(aggs))
	copy(ranked, aggs)
	sort.Slice(ranked, func(i, j int) bool {
		cmp := ranked[i].TotalRevenue.Cmp(ranked[j].TotalRevenue)
		if cmp != 0 {
			return cmp > 0
		}
		return ranked[i].CustomerID < ranked[j].CustomerID
	})

	total := decimal.Zero
	for _, agg := range ranked {
		total = total.Add(agg.TotalRevenue)
	}

	cumulative := decimal.Zero
	for _, agg := range ranked {
		if total.IsZero() {
			// A population with no revenue has no concentration to rank.
			pop.ABCSegments[agg.CustomerID] = "C"
			pop.ProfitContribution[agg.CustomerID] = decimal.Zero
			pop.CumulativePercentile[agg.CustomerID] = decimal.Zero
			continue
		}

		// Classify on the share accumulated before this customer so the top
		// spender is always A even when it alone exceeds the cut point.
		shareBefore, _ := cumulative.Div(total).Float64()
		cumulative = cumulative.Add(agg.TotalRevenue)

		switch {
		case shareBefore < abcACutoff:
			pop.ABCSegments[agg.CustomerID] = "A"
		case shareBefore < abcBCutoff:
			pop.ABCSegments[agg.CustomerID] = "B"
		default:
			pop.ABCSegments[agg.CustomerID] = "C"
		}

		pop.ProfitContribution[agg.CustomerID] = agg.TotalRevenue.Div(total).Round(4)
		pop.CumulativePercentile[agg.CustomerID] = cumulative.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
	}
}

// assignCLVSegments buckets predicted CLV into population quartiles.
func (s *SegmentationService) assignCLVSegments(pop *PopulationScores, preds map[string]domain.CustomerPredictions) {
	values := make(map[string]float64)
	for id, pred := range preds {
		if pred.CLVPredicted == nil {
			continue
		}
		values[id], _ = pred.CLVPredicted.Float64()
	}

	quartiles := metricmath.QuantileScores(values, 4, true)
	labels := map[int]string{4: "VIP", 3: "High", 2: "Medium", 1: "Low"}
	pop.CLVSegments = make(map[string]string, len(quartiles))
	for id, q := range quartiles {
		pop.CLVSegments[id] = labels[q]
	}
}

// AssignSegments finalizes one customer's categorical labels from the
// per-customer aggregates, the predictive outputs, and the population pass.
func (s *SegmentationService) AssignSegments(agg domain.CustomerAggregates, pred domain.CustomerPredictions, pop PopulationScores, cfg domain.RunConfig) (domain.CustomerSegments, error) {
	seg := domain.CustomerSegments{
		ProfitContribution:   decimal.Zero,
		CumulativePercentile: decimal.Zero,
	}

	if r, ok := pop.RScores[agg.CustomerID]; ok {
		f, fok := pop.FScores[agg.CustomerID]
		m, mok := pop.MScores[agg.CustomerID]
		if !fok || !mok {
			return seg, fmt.Errorf("customer %s has a partial RFM score set", agg.CustomerID)
		}
		score := r + f + m
		seg.RScore, seg.FScore, seg.MScore = &r, &f, &m
		seg.RFMScore = &score
		label := rfmSegmentFor(r, f, m, cfg.RFMBuckets)
		seg.RFMSegment = &label
	}

	s.assignLifecycle(&seg, agg, cfg)

	abc, ok := pop.ABCSegments[agg.CustomerID]
	if !ok {
		return seg, fmt.Errorf("customer %s missing from ABC population pass", agg.CustomerID)
	}
	seg.ABCSegment = abc
	seg.ProfitContribution = pop.ProfitContribution[agg.CustomerID]
	seg.CumulativePercentile = pop.CumulativePercentile[agg.CustomerID]

	// XYZ is unclassifiable below two orders; the combined label keeps a
	// single-character ABC with a placeholder.
	if agg.CheckCV != nil {
		var xyz string
		switch cv := *agg.CheckCV; {
		case cv <= xyzXCutoff:
			xyz = "X"
		case cv <= xyzYCutoff:
			xyz = "Y"
		default:
			xyz = "Z"
		}
		seg.XYZSegment = &xyz
		seg.ABCXYZSegment = abc + xyz
	} else {
		seg.ABCXYZSegment = abc + "-"
	}

	if pred.ChurnProbability != nil {
		prob, _ := pred.ChurnProbability.Float64()
		var risk domain.ChurnRisk
		switch {
		case prob < churnRiskMediumCutoff:
			risk = domain.ChurnRiskLow
		case prob < churnRiskHighCutoff:
			risk = domain.ChurnRiskMedium
		case prob < churnRiskCriticalCutoff:
			risk = domain.ChurnRiskHigh
		default:
			risk = domain.ChurnRiskCritical
		}
		label := string(risk)
		seg.ChurnRiskSegment = &label
	}

	if clv, ok := pop.CLVSegments[agg.CustomerID]; ok {
		seg.CLVSegment = &clv
	}

	return seg, nil
}

// assignLifecycle derives the single lifecycle enum and mirrors it onto the
// mutually exclusive booleans. Exactly one boolean is ever true.
func (s *SegmentationService) assignLifecycle(seg *domain.CustomerSegments, agg domain.CustomerAggregates, cfg domain.RunConfig) {
	var stage domain.LifecycleStage
	switch {
	case agg.TotalOrders == 0:
		stage = domain.LifecycleNew
	case agg.TotalOrders <= 1 && agg.CustomerAgeDays != nil && *agg.CustomerAgeDays <= cfg.NewCustomerDays:
		stage = domain.LifecycleNew
	case agg.Recency != nil && *agg.Recency >= cfg.ChurnDaysThreshold:
		stage = domain.LifecycleChurned
	case agg.Recency != nil && *agg.Recency > cfg.SleepDaysThreshold:
		stage = domain.LifecycleSleeping
	default:
		stage = domain.LifecycleActive
	}

	seg.LifecycleStage = stage
	seg.IsNew = stage == domain.LifecycleNew
	seg.IsActive = stage == domain.LifecycleActive
	seg.IsSleeping = stage == domain.LifecycleSleeping
	seg.IsChurned = stage == domain.LifecycleChurned
}
