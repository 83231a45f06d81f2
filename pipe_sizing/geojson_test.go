package pipe_sizing

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 0.001 degree of longitude on the equator
const segmentGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"seg_id": "s1", "street": "Hauptstrasse"},
     "geometry": {"type": "LineString", "coordinates": [[0, 0], [0.001, 0]]}},
    {"type": "Feature", "properties": {"seg_id": "s2"},
     "geometry": {"type": "MultiLineString", "coordinates": [[[0, 0], [0.001, 0]], [[0.001, 0], [0.002, 0]]]}},
    {"type": "Feature", "properties": {"name": "plant"},
     "geometry": {"type": "Point", "coordinates": [0, 0]}}
  ]
}`

func TestLoadSegmentGeometry(t *testing.T) {
	sg, err := LoadSegmentGeometry(strings.NewReader(segmentGeoJSON))
	require.NoError(t, err)
	assert.Equal(t, 2, sg.Len())

	l1, ok := sg.SegmentLengthFromGeometry("s1")
	require.True(t, ok)
	assert.InDelta(t, 111.3, l1, 0.5)

	l2, ok := sg.SegmentLengthFromGeometry("s2")
	require.True(t, ok)
	assert.InEpsilon(t, 2*l1, l2, 1e-9)

	_, ok = sg.SegmentLengthFromGeometry("r1")
	assert.False(t, ok)
}

func TestLoadSegmentGeometryInvalid(t *testing.T) {
	_, err := LoadSegmentGeometry(strings.NewReader(`{"type": "FeatureCollection", "features": [`))
	assert.ErrorIs(t, err, ErrSchema)
}

func TestFillLengthsFromGeometry(t *testing.T) {
	sg, err := LoadSegmentGeometry(strings.NewReader(segmentGeoJSON))
	require.NoError(t, err)

	segs := []Segment{
		{SegID: "s1", VDotM3s: 0.01, PathID: "A", IsSupply: true},
		{SegID: "s2", LengthM: 42, VDotM3s: 0.005, PathID: "A", IsSupply: true},
		{SegID: "r1", VDotM3s: 0.01, PathID: "A"},
	}
	unresolved := FillLengthsFromGeometry(segs, sg)

	assert.Equal(t, []string{"r1"}, unresolved)
	assert.InDelta(t, 111.3, segs[0].LengthM, 0.5)
	assert.Equal(t, 42.0, segs[1].LengthM)
	assert.Equal(t, 0.0, segs[2].LengthM)
}

func TestExportGeoJSON(t *testing.T) {
	sg, err := LoadSegmentGeometry(strings.NewReader(segmentGeoJSON))
	require.NoError(t, err)
	_, res := testResult(t)

	var buf bytes.Buffer
	require.NoError(t, ExportGeoJSON(&buf, sg, res.Metrics))

	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 3)

	s1 := fc.Features[0]
	assert.Equal(t, 100.0, s1.Properties["dn"])
	assert.Equal(t, "Hauptstrasse", s1.Properties["street"])
	assert.Contains(t, s1.Properties, "v_mps")
	assert.Contains(t, s1.Properties, "dp_Pa")
	assert.Contains(t, s1.Properties, "heat_loss_W")

	assert.Equal(t, 65.0, fc.Features[1].Properties["dn"])

	plant := fc.Features[2]
	assert.NotContains(t, plant.Properties, "dn")
	assert.Equal(t, "plant", plant.Properties["name"])
}

func TestRecorderSaveWithGeometry(t *testing.T) {
	sg, err := LoadSegmentGeometry(strings.NewReader(segmentGeoJSON))
	require.NoError(t, err)
	segs, res := testResult(t)

	r, err := NewRecorder(t.TempDir(), SummaryJSON, zap.NewNop())
	require.NoError(t, err)
	written, err := r.Save(segs, res.Metrics, res.Validation, sg)
	require.NoError(t, err)
	require.Len(t, written, 3)
	assert.Equal(t, "network.geojson", filepath.Base(written[2]))

	data, err := os.ReadFile(written[2])
	require.NoError(t, err)
	_, err = geojson.UnmarshalFeatureCollection(data)
	assert.NoError(t, err)
}
