package pipe_sizing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const segmentsCSV = `seg_id,length_m,V_dot_m3s,Q_seg_W,path_id,is_supply
s1,100,0.01,1200000,A,true
s2,50,0.005,600000,A,true
r1,100,0.01,0,A,false
`

func TestLoadSegments(t *testing.T) {
	segs, err := LoadSegments(strings.NewReader(segmentsCSV))
	require.NoError(t, err)
	require.Len(t, segs, 3)

	assert.Equal(t, Segment{SegID: "s1", LengthM: 100, VDotM3s: 0.01, QSegW: 1.2e6, PathID: "A", IsSupply: true}, segs[0])
	assert.False(t, segs[2].IsSupply)
	assert.NoError(t, ValidateSegments(segs))
}

func TestLoadSegmentsMissingColumn(t *testing.T) {
	_, err := LoadSegments(strings.NewReader("seg_id,length_m,V_dot_m3s,path_id,is_supply\ns1,100,0.01,A,true\n"))
	assert.ErrorIs(t, err, ErrSchema)
	assert.Contains(t, err.Error(), "Q_seg_W")
}

func TestValidateSegments(t *testing.T) {
	ok := Segment{SegID: "s1", LengthM: 100, VDotM3s: 0.01, QSegW: 1e5, PathID: "A", IsSupply: true}

	cases := []struct {
		name     string
		segments []Segment
	}{
		{"empty", nil},
		{"no id", []Segment{{LengthM: 100, VDotM3s: 0.01, PathID: "A"}}},
		{"zero length", []Segment{{SegID: "s1", VDotM3s: 0.01, PathID: "A"}}},
		{"zero flow", []Segment{{SegID: "s1", LengthM: 100, PathID: "A"}}},
		{"negative heat", []Segment{{SegID: "s1", LengthM: 100, VDotM3s: 0.01, QSegW: -1, PathID: "A"}}},
		{"duplicate id", []Segment{ok, ok}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateSegments(c.segments), ErrDomain)
		})
	}
}

func TestGroupPaths(t *testing.T) {
	segs := []Segment{
		{SegID: "a", PathID: "P2", IsSupply: false},
		{SegID: "b", PathID: "P1", IsSupply: true},
		{SegID: "c", PathID: "P2", IsSupply: false},
		{SegID: "d", PathID: "P1", IsSupply: false},
	}
	paths := GroupPaths(segs)
	require.Len(t, paths, 2)
	assert.Equal(t, Path{ID: "P1", Segments: []int{1, 3}, HasSupply: true}, paths[0])
	assert.Equal(t, Path{ID: "P2", Segments: []int{0, 2}, HasSupply: false}, paths[1])
}

func TestFillFlowsFromHeatLoad(t *testing.T) {
	d := DefaultDesignParameters()
	segs := []Segment{
		{SegID: "s1", LengthM: 100, QSegW: 1e6, PathID: "A", IsSupply: true},
		{SegID: "s2", LengthM: 100, VDotM3s: 0.002, QSegW: 1e6, PathID: "A", IsSupply: true},
		{SegID: "s3", LengthM: 100, PathID: "A", IsSupply: true},
	}

	n, err := FillFlowsFromHeatLoad(segs, d)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.InEpsilon(t, 1e6/(971.8*4190*30), segs[0].VDotM3s, 1e-12)
	assert.Equal(t, 0.002, segs[1].VDotM3s)
	assert.Equal(t, 0.0, segs[2].VDotM3s)

	segs[0].VDotM3s = 0
	d.TReturn = d.TSupply
	_, err = FillFlowsFromHeatLoad(segs, d)
	assert.ErrorIs(t, err, ErrDomain)
	assert.Contains(t, err.Error(), "s1")
}

func TestFillFlowsFromHeatLoadZeroDeltaTWithFlowsGiven(t *testing.T) {
	d := DefaultDesignParameters()
	d.TSupply = 50
	d.TReturn = 50
	segs := testSegments()

	n, err := FillFlowsFromHeatLoad(segs, d)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, testSegments(), segs)
}
