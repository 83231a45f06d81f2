package pipe_sizing

// **** Diameter optimizer ****
// EN 13941 style sizing: per-segment smallest DN under a soft velocity target,
// then a network evaluation for NPV and the velocity / dT checks.

import (
	"fmt"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Assignment maps seg_id to DN.
type Assignment map[string]int

// Stage is the lifecycle position of a DiameterOptimizer.
type Stage int

const (
	StageInitialized Stage = iota
	StagePerSegmentEvaluated
	StagePathAggregated
	StageConstraintChecked
	StageAssignmentProduced
)

func (s Stage) String() string {
	return [...]string{
		"initialized",
		"per_segment_evaluated",
		"path_aggregated",
		"constraint_checked",
		"assignment_produced",
	}[s]
}

// Validation is the network-wide verdict on the soft constraints.
type Validation struct {
	OK         bool
	VelocityOK bool
	DeltaTOK   bool
	Messages   []string
}

// Result is what Run produces.
type Result struct {
	Assignment Assignment
	Metrics    *Metrics
	Validation Validation
}

//---------------------------------------------------------------------------------------------------//

// DiameterOptimizer is bound to one network, one set of parameters and one catalog.
// It keeps no state between runs other than its lifecycle stage.
type DiameterOptimizer struct {
	segments []Segment
	paths    []Path
	design   DesignParameters
	econ     EconomicParameters
	catalog  *PipeCatalog
	logger   *zap.Logger
	workers  int
	stage    Stage
}

func NewDiameterOptimizer(
	segments []Segment,
	design DesignParameters,
	econ EconomicParameters,
	catalog *PipeCatalog,
	logger *zap.Logger,
) (*DiameterOptimizer, error) {
	if catalog == nil || catalog.Len() == 0 {
		return nil, configurationErrorf("optimizer", "no pipe catalog")
	}
	if err := ValidateSegments(segments); err != nil {
		return nil, err
	}
	if err := design.Validate(); err != nil {
		return nil, err
	}
	if err := econ.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	segs := make([]Segment, len(segments))
	copy(segs, segments)

	return &DiameterOptimizer{
		segments: segs,
		paths:    GroupPaths(segs),
		design:   design,
		econ:     econ,
		catalog:  catalog,
		logger:   logger,
		stage:    StageInitialized,
	}, nil
}

// SetWorkers bounds the goroutines of the per-segment search; n <= 0 means GOMAXPROCS.
func (o *DiameterOptimizer) SetWorkers(n int) {
	if n < 0 {
		n = 0
	}
	o.workers = n
}

func (o *DiameterOptimizer) Stage() Stage {
	return o.stage
}

func (o *DiameterOptimizer) Segments() []Segment {
	segs := make([]Segment, len(o.segments))
	copy(segs, o.segments)
	return segs
}

/*
	Evaluates a given assignment.

	Args:
		assignment: DN for every seg_id

	Returns:
		complete metrics; soft violations are reported in VelocityOK / DeltaTOK

	Notes:
		- path dp sums supply segments only; return-only paths are left out of
		  path_stats and of the worst-path choice.
		- heat loss is summed over all segments, supply and return, scaled by hours only.
		- supply segments are evaluated at T_supply, return segments at T_return.
*/
func (o *DiameterOptimizer) EvaluateQuick(assignment Assignment) (*Metrics, error) {
	d := o.design
	n_seg := len(o.segments)

	results := make([]SegmentResult, n_seg)
	seg_idx := make(map[string]int, n_seg)
	v_is := make([]float64, n_seg)
	dp_is := make([]float64, n_seg)
	q_is := make([]float64, n_seg)
	capex_is := make([]float64, n_seg)

	// ---- per segment ----

	for i, s := range o.segments {
		dn, ok := assignment[s.SegID]
		if !ok {
			return nil, configurationErrorf("evaluate_quick", "no DN assigned to segment %s", s.SegID)
		}
		e, ok := o.catalog.Lookup(dn)
		if !ok {
			return nil, configurationErrorf("evaluate_quick", "segment %s: DN %d not in catalog", s.SegID, dn)
		}

		hyd, err := SegmentHydraulics(s.VDotM3s, e.DInnerM, s.LengthM, d.Rho, d.Mu, d.Epsilon, d.KMinor)
		if err != nil {
			return nil, err
		}

		t_fluid := d.TReturn
		if s.IsSupply {
			t_fluid = d.TSupply
		}
		q, err := SegmentHeatLossW(e.HeatLoss, e.DOuterM, t_fluid, d.TSoil, s.LengthM)
		if err != nil {
			return nil, err
		}

		results[i] = SegmentResult{
			SegID:     s.SegID,
			DN:        dn,
			V:         hyd.V,
			DpPa:      hyd.DpPa,
			HeadLossM: hyd.HeadLoss,
			HeatLossW: q,
		}
		seg_idx[s.SegID] = i
		v_is[i] = hyd.V
		dp_is[i] = hyd.DpPa
		q_is[i] = q
		capex_is[i] = s.LengthM * e.CostEurPerM
	}
	o.stage = StagePerSegmentEvaluated

	// ---- paths ----

	ids, stats := _aggregate_paths(o.segments, o.paths, dp_is)
	path_stats := make(map[string]PathStat, len(ids))
	for k, id := range ids {
		path_stats[id] = stats[k]
	}

	pump_mwh := 0.0
	worst_id, worst, ok := _worst_path(ids, stats)
	if ok && worst.DpPa > 0 {
		var err error
		pump_mwh, err = AnnualPumpEnergyMWhel(worst.DpPa, worst.VDotPeakM3s, d.EtaPump, d.Hours)
		if err != nil {
			return nil, err
		}
	}
	o.stage = StagePathAggregated

	// ---- network ----

	heat_loss_mwh := floats.Sum(q_is) * d.Hours / 1e6
	capex := floats.Sum(capex_is)
	opex := OperatingCosts(pump_mwh, heat_loss_mwh, capex, o.econ)

	npv, err := NPV(capex, opex.TotalEurPerA, o.econ.Years, o.econ.R)
	if err != nil {
		return nil, err
	}

	v_max := floats.Max(v_is)

	m := &Metrics{
		Segments:      results,
		PathStats:     path_stats,
		WorstPathID:   worst_id,
		DpPathMaxPa:   worst.DpPa,
		NPVEur:        npv,
		CapexEur:      capex,
		OpexEurPerA:   opex.TotalEurPerA,
		Opex:          opex,
		PumpMWh:       pump_mwh,
		HeatLossMWh:   heat_loss_mwh,
		VMax:          v_max,
		HeadRequiredM: worst.DpPa / (d.Rho * g_acc),
		DeltaTDesignK: d.DeltaT(),
		VelocityOK:    v_max <= d.VLimit,
		DeltaTOK:      d.DeltaT() >= d.DeltaTMin,
		seg_idx:       seg_idx,
	}
	o.stage = StageConstraintChecked

	return m, nil
}

//---------------------------------------------------------------------------------------------------//

type segmentChoice struct {
	dn int
	v  float64
}

/*
	Sizes every segment and evaluates the result.

	Returns:
		assignment, metrics and validation

	Notes:
		Each segment independently gets the smallest catalog diameter whose velocity
		stays at or below v_feasible_target. When no diameter meets the target, the
		smallest one meeting v_limit is taken. When none meets v_limit, Run fails with
		a KindConfiguration error. There is no joint NPV re-optimisation across segments.
*/
func (o *DiameterOptimizer) Run() (*Result, error) {
	candidates := o.catalog.Entries()

	mapper := iter.Mapper[Segment, segmentChoice]{MaxGoroutines: o.workers}
	choices, err := mapper.MapErr(o.segments, func(s *Segment) (segmentChoice, error) {
		return _choose_dn(s, candidates, o.design.VFeasibleTarget, o.design.VLimit)
	})
	if err != nil {
		return nil, err
	}

	assignment := make(Assignment, len(o.segments))
	for i, s := range o.segments {
		assignment[s.SegID] = choices[i].dn
		o.logger.Debug("Segment sized",
			zap.String("seg_id", s.SegID),
			zap.Int("dn", choices[i].dn),
			zap.Float64("v_mps", choices[i].v),
		)
	}

	metrics, err := o.EvaluateQuick(assignment)
	if err != nil {
		return nil, err
	}

	validation := NewValidation(metrics, o.design)
	o.stage = StageAssignmentProduced

	o.logger.Info("Diameter optimization finished",
		zap.Int("segments", len(o.segments)),
		zap.Float64("npv_eur", metrics.NPVEur),
		zap.Float64("v_max", metrics.VMax),
		zap.String("worst_path", metrics.WorstPathID),
		zap.Bool("ok", validation.OK),
	)

	return &Result{
		Assignment: assignment,
		Metrics:    metrics,
		Validation: validation,
	}, nil
}

func _choose_dn(s *Segment, candidates []PipeCatalogEntry, v_target float64, v_limit float64) (segmentChoice, error) {
	fallback := -1
	for k, e := range candidates {
		v := FlowVelocity(s.VDotM3s, e.DInnerM)
		if v <= v_target {
			return segmentChoice{dn: e.DN, v: v}, nil
		}
		if fallback < 0 && v <= v_limit {
			fallback = k
		}
	}
	if fallback >= 0 {
		e := candidates[fallback]
		return segmentChoice{dn: e.DN, v: FlowVelocity(s.VDotM3s, e.DInnerM)}, nil
	}

	largest := candidates[len(candidates)-1]
	return segmentChoice{}, configurationErrorf("run",
		"segment %s: no catalog diameter keeps velocity <= %g m/s (largest DN %d gives %.3f m/s)",
		s.SegID, v_limit, largest.DN, FlowVelocity(s.VDotM3s, largest.DInnerM))
}

// NewValidation reports the soft constraints of metrics in words.
func NewValidation(m *Metrics, d DesignParameters) Validation {
	v := Validation{
		VelocityOK: m.VelocityOK,
		DeltaTOK:   m.DeltaTOK,
	}
	v.OK = v.VelocityOK && v.DeltaTOK
	if !v.VelocityOK {
		v.Messages = append(v.Messages,
			fmt.Sprintf("max velocity %.3f m/s exceeds limit %.3f m/s", m.VMax, d.VLimit))
	}
	if !v.DeltaTOK {
		v.Messages = append(v.Messages,
			fmt.Sprintf("design dT %.1f K below minimum %.1f K", m.DeltaTDesignK, d.DeltaTMin))
	}
	return v
}
