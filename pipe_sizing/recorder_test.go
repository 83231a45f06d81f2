package pipe_sizing

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func testResult(t *testing.T) ([]Segment, *Result) {
	t.Helper()
	segs := testSegments()
	res, err := testOptimizer(t, segs, DefaultDesignParameters(), testCatalog(t)).Run()
	require.NoError(t, err)
	return segs, res
}

func TestSegmentTable(t *testing.T) {
	segs, res := testResult(t)

	rows := SegmentRows(segs, res.Metrics)
	require.Len(t, rows, 3)
	assert.Equal(t, "s1", rows[0].SegID)
	assert.Equal(t, 100, rows[0].DN)
	assert.Equal(t, 65, rows[1].DN)
	assert.False(t, rows[2].IsSupply)

	var buf bytes.Buffer
	require.NoError(t, WriteSegmentTable(&buf, rows))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "seg_id,length_m,DN,V_dot_m3s,v_mps,dp_Pa,h_m,heat_loss_W,path_id,is_supply", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "s1,100,100,0.01,"))
}

func TestSegmentTableFeedsLoadAssignment(t *testing.T) {
	segs, res := testResult(t)

	var buf bytes.Buffer
	require.NoError(t, WriteSegmentTable(&buf, SegmentRows(segs, res.Metrics)))

	a, err := LoadAssignment(&buf)
	require.NoError(t, err)
	assert.Equal(t, res.Assignment, a)
}

func TestLoadAssignmentRejects(t *testing.T) {
	_, err := LoadAssignment(strings.NewReader("seg_id,dn_code\ns1,100\n"))
	assert.ErrorIs(t, err, ErrSchema)

	_, err = LoadAssignment(strings.NewReader("seg_id,DN\ns1,100\ns1,80\n"))
	assert.ErrorIs(t, err, ErrSchema)
}

func TestWriteSummary(t *testing.T) {
	_, res := testResult(t)
	s := NewSummary(res.Metrics, res.Validation)

	assert.Equal(t, 3, s.SegmentCount)
	assert.Equal(t, "A", s.WorstPathID)
	require.Len(t, s.PathStats, 1)
	assert.Equal(t, res.Metrics.DpPathMaxPa, s.PathStats[0].DpPa)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteSummary(&buf, s, SummaryJSON))

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		for _, k := range []string{"npv_eur", "capex_eur", "pump_MWh", "heat_loss_MWh", "v_max", "deltaT_ok", "velocity_ok", "worst_path_id"} {
			assert.Contains(t, got, k)
		}
		assert.Equal(t, true, got["deltaT_ok"])
		assert.NotContains(t, got, "messages")
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteSummary(&buf, s, SummaryYAML))

		var got Summary
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, s.NPVEur, got.NPVEur)
		assert.Equal(t, s.WorstPathID, got.WorstPathID)
		assert.Equal(t, s.Opex, got.Opex)
	})
}

func TestSummaryFormatFromString(t *testing.T) {
	assert.Equal(t, SummaryYAML, SummaryFormatFromString("YAML"))
	assert.Equal(t, SummaryYAML, SummaryFormatFromString("yml"))
	assert.Equal(t, SummaryJSON, SummaryFormatFromString("json"))
	assert.Equal(t, "yaml", SummaryYAML.String())
}

func TestRecorderSave(t *testing.T) {
	segs, res := testResult(t)
	dir := filepath.Join(t.TempDir(), "out")

	r, err := NewRecorder(dir, SummaryYAML, zap.NewNop())
	require.NoError(t, err)

	written, err := r.Save(segs, res.Metrics, res.Validation, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "segments.csv"), filepath.Join(dir, "summary.yaml")}, written)

	for _, p := range written {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}
