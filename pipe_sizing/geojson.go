package pipe_sizing

// **** Segment geometry: GeoJSON import and DN-annotated export ****

import (
	"io"
	"os"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/pkg/errors"
)

// property that links a feature to Segment.SegID
const SegIDProperty = "seg_id"

// SegmentGeometry indexes LineString features by seg_id.
type SegmentGeometry struct {
	fc    *geojson.FeatureCollection
	by_id map[string]*geojson.Feature
}

func LoadSegmentGeometry(r io.Reader) (*SegmentGeometry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read geometry")
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, schemaWrap("geometry", err, "invalid GeoJSON")
	}

	by_id := make(map[string]*geojson.Feature, len(fc.Features))
	for _, f := range fc.Features {
		id, err := f.PropertyString(SegIDProperty)
		if err != nil || id == "" {
			continue
		}
		by_id[id] = f
	}
	return &SegmentGeometry{fc: fc, by_id: by_id}, nil
}

func LoadSegmentGeometryFile(path string) (*SegmentGeometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open geometry `%s`", path)
	}
	defer f.Close()
	return LoadSegmentGeometry(f)
}

func (sg *SegmentGeometry) Len() int {
	return len(sg.by_id)
}

/*
	Geodesic length of the feature with the given seg_id.

	Args:
		seg_id: segment id

	Returns:
		length, m; false when there is no LineString feature for seg_id
*/
func (sg *SegmentGeometry) SegmentLengthFromGeometry(seg_id string) (float64, bool) {
	f, ok := sg.by_id[seg_id]
	if !ok || f.Geometry == nil {
		return 0, false
	}

	var ls orb.LineString
	switch {
	case f.Geometry.IsLineString():
		ls = _to_line_string(f.Geometry.LineString)
	case f.Geometry.IsMultiLineString():
		length := 0.0
		for _, part := range f.Geometry.MultiLineString {
			length += geo.Length(_to_line_string(part))
		}
		return length, length > 0
	default:
		return 0, false
	}
	if len(ls) < 2 {
		return 0, false
	}
	return geo.Length(ls), true
}

// FillLengthsFromGeometry sets length_m of segments that carry 0 from their geometry.
// It returns the seg_ids that still have no length.
func FillLengthsFromGeometry(segments []Segment, sg *SegmentGeometry) []string {
	var unresolved []string
	for i := range segments {
		if segments[i].LengthM != 0 {
			continue
		}
		length, ok := sg.SegmentLengthFromGeometry(segments[i].SegID)
		if !ok {
			unresolved = append(unresolved, segments[i].SegID)
			continue
		}
		segments[i].LengthM = length
	}
	return unresolved
}

func _to_line_string(coords [][]float64) orb.LineString {
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		ls = append(ls, orb.Point{c[0], c[1]})
	}
	return ls
}

//---------------------------------------------------------------------------------------------------//

/*
	Writes the geometry with the chosen design attached by seg_id.

	Args:
		w: output
		sg: geometry as loaded
		metrics: result of EvaluateQuick / Run

	Notes:
		Adds dn, v_mps, dp_Pa, heat_loss_W to features whose seg_id is in metrics.
		Other features are written unchanged.
*/
func ExportGeoJSON(w io.Writer, sg *SegmentGeometry, metrics *Metrics) error {
	out := geojson.NewFeatureCollection()
	for _, f := range sg.fc.Features {
		feat := geojson.NewFeature(f.Geometry)
		feat.ID = f.ID
		for k, v := range f.Properties {
			feat.SetProperty(k, v)
		}
		if id, err := f.PropertyString(SegIDProperty); err == nil {
			if r, ok := metrics.Segment(id); ok {
				feat.SetProperty("dn", r.DN)
				feat.SetProperty("v_mps", r.V)
				feat.SetProperty("dp_Pa", r.DpPa)
				feat.SetProperty("heat_loss_W", r.HeatLossW)
			}
		}
		out.AddFeature(feat)
	}

	b, err := out.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "Can't convert geometry to geojson format")
	}
	if _, err := w.Write(b); err != nil {
		return errors.Wrap(err, "Can't write geojson")
	}
	return nil
}
