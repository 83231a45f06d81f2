package pipe_sizing

// **** Network segments and paths ****

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

var segmentRequiredColumns = []string{"seg_id", "length_m", "V_dot_m3s", "Q_seg_W", "path_id", "is_supply"}

// Segment is one pipe run of the serial-path network abstraction.
type Segment struct {
	SegID    string  `csv:"seg_id"`
	LengthM  float64 `csv:"length_m"`  // m
	VDotM3s  float64 `csv:"V_dot_m3s"` // design volume flow, m3/s
	QSegW    float64 `csv:"Q_seg_W"`   // design heat flow carried, W
	PathID   string  `csv:"path_id"`
	IsSupply bool    `csv:"is_supply"`
}

func (s Segment) validate() error {
	if s.SegID == "" {
		return domainErrorf("segment", "seg_id must not be empty")
	}
	if !(s.LengthM > 0) {
		return domainErrorf("segment", "%s: length_m must be > 0 (got %g)", s.SegID, s.LengthM)
	}
	if !(s.VDotM3s > 0) {
		return domainErrorf("segment", "%s: V_dot_m3s must be > 0 (got %g)", s.SegID, s.VDotM3s)
	}
	if !(s.QSegW >= 0) {
		return domainErrorf("segment", "%s: Q_seg_W must be >= 0 (got %g)", s.SegID, s.QSegW)
	}
	return nil
}

// ValidateSegments checks every segment and seg_id uniqueness.
func ValidateSegments(segments []Segment) error {
	if len(segments) == 0 {
		return domainErrorf("segment", "network has no segments")
	}
	seen := make(map[string]bool, len(segments))
	for _, s := range segments {
		if err := s.validate(); err != nil {
			return err
		}
		if seen[s.SegID] {
			return domainErrorf("segment", "duplicate seg_id %s", s.SegID)
		}
		seen[s.SegID] = true
	}
	return nil
}

/*
	Reads the segment table produced by network extraction.

	Args:
		r: CSV with header seg_id, length_m, V_dot_m3s, Q_seg_W, path_id, is_supply

	Returns:
		segments in file order

	Notes:
		length_m may be 0 when the length is to be taken from geometry
		(FillLengthsFromGeometry). Every other field is checked by ValidateSegments
		when the optimizer is built.
*/
func LoadSegments(r io.Reader) ([]Segment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, schemaWrap("segments", err, "read failed")
	}
	data = _trim_bom(data)

	header, err := _read_header(data)
	if err != nil {
		return nil, schemaWrap("segments", err, "header")
	}
	if missing := _missing_columns(header, segmentRequiredColumns); len(missing) > 0 {
		return nil, schemaErrorf("segments", "missing columns: %s", strings.Join(missing, ", "))
	}

	var rows []*Segment
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, schemaWrap("segments", err, "parse failed")
	}

	segments := make([]Segment, len(rows))
	for i, row := range rows {
		segments[i] = *row
	}
	return segments, nil
}

func LoadSegmentsFile(path string) ([]Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open segments `%s`", path)
	}
	defer f.Close()
	return LoadSegments(f)
}

/*
	Derives design flows from carried heat where the extraction left V_dot at 0.

	Args:
		segments: segments, modified in place
		d: design parameters (rho, cp, T_supply, T_return)

	Returns:
		number of segments filled

	Notes:
		V_dot = Q_seg / (rho cp dT). rho cp dT is only checked when a segment needs it,
		so a bad dT with every flow given is left to the deltaT_ok check.
*/
func FillFlowsFromHeatLoad(segments []Segment, d DesignParameters) (int, error) {
	rho_cp_dt := d.Rho * d.Cp * d.DeltaT()
	n := 0
	for i := range segments {
		if segments[i].VDotM3s != 0 || !(segments[i].QSegW > 0) {
			continue
		}
		if !(rho_cp_dt > 0) {
			return n, domainErrorf("segment", "%s: rho*cp*dT must be > 0 to derive V_dot_m3s (got %g)",
				segments[i].SegID, rho_cp_dt)
		}
		segments[i].VDotM3s = segments[i].QSegW / rho_cp_dt
		n++
	}
	return n, nil
}

//---------------------------------------------------------------------------------------------------//

// Path is the ordered set of segments sharing a path_id.
type Path struct {
	ID        string
	Segments  []int // indices into the segment slice
	HasSupply bool
}

// GroupPaths groups segment indices by path_id, paths sorted by id.
func GroupPaths(segments []Segment) []Path {
	idx := make(map[string]int)
	var paths []Path
	for i, s := range segments {
		k, ok := idx[s.PathID]
		if !ok {
			k = len(paths)
			idx[s.PathID] = k
			paths = append(paths, Path{ID: s.PathID})
		}
		paths[k].Segments = append(paths[k].Segments, i)
		if s.IsSupply {
			paths[k].HasSupply = true
		}
	}
	sort.SliceStable(paths, func(i, j int) bool { return paths[i].ID < paths[j].ID })
	return paths
}
