package pipe_sizing

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// SegmentResult is the evaluated state of one segment at its assigned DN.
type SegmentResult struct {
	SegID     string
	DN        int
	V         float64 // velocity, m/s
	DpPa      float64 // pressure drop, Pa
	HeadLossM float64 // head loss, m
	HeatLossW float64 // heat loss, W
}

// PathStat is the hydraulic load of one supply-containing path.
type PathStat struct {
	DpPa        float64 // sum of supply-segment pressure drops, Pa
	VDotPeakM3s float64 // largest supply-segment volume flow, m3/s
}

// Metrics is the full evaluation of one assignment.
type Metrics struct {
	Segments  []SegmentResult     // input order
	PathStats map[string]PathStat // supply-containing paths only

	WorstPathID   string
	DpPathMaxPa   float64 // Pa
	NPVEur        float64
	CapexEur      float64
	OpexEurPerA   float64
	Opex          AnnualCosts
	PumpMWh       float64 // MWh_el/a
	HeatLossMWh   float64 // MWh_th/a, supply and return
	VMax          float64 // m/s
	HeadRequiredM float64 // m
	DeltaTDesignK float64 // K
	VelocityOK    bool
	DeltaTOK      bool

	seg_idx map[string]int
}

// Segment returns the result for seg_id.
func (m *Metrics) Segment(seg_id string) (SegmentResult, bool) {
	i, ok := m.seg_idx[seg_id]
	if !ok {
		return SegmentResult{}, false
	}
	return m.Segments[i], true
}

// Assignment returns the DN of every evaluated segment.
func (m *Metrics) Assignment() Assignment {
	a := make(Assignment, len(m.Segments))
	for _, r := range m.Segments {
		a[r.SegID] = r.DN
	}
	return a
}

//---------------------------------------------------------------------------------------------------//

/*
	Supply-path pressure drops.

	Args:
		segments: network segments
		paths: GroupPaths(segments)
		dp_seg_is: pressure drop of segment i, Pa, [i]

	Returns:
		ids of supply-containing paths, and their stats in the same order

	Notes:
		dp_path = sum of dp_seg over the supply segments of the path. Paths without a
		supply segment are skipped: return flow mirrors supply but does not size the pump.
		Work is linear in the number of segments.
*/
func _aggregate_paths(segments []Segment, paths []Path, dp_seg_is []float64) ([]string, []PathStat) {
	ids := make([]string, 0, len(paths))
	stats := make([]PathStat, 0, len(paths))

	var dp_js []float64
	for _, p := range paths {
		if !p.HasSupply {
			continue
		}
		var stat PathStat
		dp_js = dp_js[:0]
		for _, i := range p.Segments {
			if !segments[i].IsSupply {
				continue
			}
			dp_js = append(dp_js, dp_seg_is[i])
			if segments[i].VDotM3s > stat.VDotPeakM3s {
				stat.VDotPeakM3s = segments[i].VDotM3s
			}
		}
		stat.DpPa = floats.Sum(dp_js)
		ids = append(ids, p.ID)
		stats = append(stats, stat)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, stats
}

// _worst_path picks the path with the largest pressure drop; ties go to the smaller path id.
func _worst_path(ids []string, stats []PathStat) (string, PathStat, bool) {
	if len(stats) == 0 {
		return "", PathStat{}, false
	}
	dp_ks := make([]float64, len(stats))
	for k, s := range stats {
		dp_ks[k] = s.DpPa
	}
	k := floats.MaxIdx(dp_ks)
	return ids[k], stats[k], true
}

func sortedPathIDs(stats map[string]PathStat) []string {
	ids := make([]string, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
