package pipe_sizing

// **** Result export: per-segment table, summary record, annotated geometry ****

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SegmentRow is one line of the per-segment output table.
type SegmentRow struct {
	SegID     string  `csv:"seg_id"`
	LengthM   float64 `csv:"length_m"`
	DN        int     `csv:"DN"`
	VDotM3s   float64 `csv:"V_dot_m3s"`
	VMps      float64 `csv:"v_mps"`
	DpPa      float64 `csv:"dp_Pa"`
	HM        float64 `csv:"h_m"`
	HeatLossW float64 `csv:"heat_loss_W"`
	PathID    string  `csv:"path_id"`
	IsSupply  bool    `csv:"is_supply"`
}

// SegmentRows joins segment input data with its evaluated result, in segment order.
func SegmentRows(segments []Segment, m *Metrics) []SegmentRow {
	rows := make([]SegmentRow, 0, len(segments))
	for _, s := range segments {
		r, ok := m.Segment(s.SegID)
		if !ok {
			continue
		}
		rows = append(rows, SegmentRow{
			SegID:     s.SegID,
			LengthM:   s.LengthM,
			DN:        r.DN,
			VDotM3s:   s.VDotM3s,
			VMps:      r.V,
			DpPa:      r.DpPa,
			HM:        r.HeadLossM,
			HeatLossW: r.HeatLossW,
			PathID:    s.PathID,
			IsSupply:  s.IsSupply,
		})
	}
	return rows
}

func WriteSegmentTable(w io.Writer, rows []SegmentRow) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return errors.Wrap(err, "Can't write segment table")
	}
	return nil
}

//---------------------------------------------------------------------------------------------------//

// PathSummary is a path_stats entry in the summary record.
type PathSummary struct {
	PathID      string  `json:"path_id" yaml:"path_id"`
	DpPa        float64 `json:"dp_Pa" yaml:"dp_Pa"`
	VDotPeakM3s float64 `json:"V_dot_peak_m3s" yaml:"V_dot_peak_m3s"`
}

// Summary is the network-level record consumed by report rendering.
type Summary struct {
	NPVEur        float64       `json:"npv_eur" yaml:"npv_eur"`
	CapexEur      float64       `json:"capex_eur" yaml:"capex_eur"`
	OpexEurPerA   float64       `json:"opex_eur_per_a" yaml:"opex_eur_per_a"`
	Opex          AnnualCosts   `json:"opex_breakdown" yaml:"opex_breakdown"`
	PumpMWh       float64       `json:"pump_MWh" yaml:"pump_MWh"`
	HeatLossMWh   float64       `json:"heat_loss_MWh" yaml:"heat_loss_MWh"`
	VMax          float64       `json:"v_max" yaml:"v_max"`
	HeadRequiredM float64       `json:"head_required_m" yaml:"head_required_m"`
	DeltaTDesignK float64       `json:"deltaT_design_k" yaml:"deltaT_design_k"`
	DpPathMaxPa   float64       `json:"dp_path_max_Pa" yaml:"dp_path_max_Pa"`
	WorstPathID   string        `json:"worst_path_id" yaml:"worst_path_id"`
	VelocityOK    bool          `json:"velocity_ok" yaml:"velocity_ok"`
	DeltaTOK      bool          `json:"deltaT_ok" yaml:"deltaT_ok"`
	ValidationOK  bool          `json:"validation_ok" yaml:"validation_ok"`
	Messages      []string      `json:"messages,omitempty" yaml:"messages,omitempty"`
	SegmentCount  int           `json:"segment_count" yaml:"segment_count"`
	PathStats     []PathSummary `json:"path_stats" yaml:"path_stats"`
}

func NewSummary(m *Metrics, v Validation) Summary {
	var ps []PathSummary
	for _, p := range sortedPathIDs(m.PathStats) {
		st := m.PathStats[p]
		ps = append(ps, PathSummary{PathID: p, DpPa: st.DpPa, VDotPeakM3s: st.VDotPeakM3s})
	}
	return Summary{
		NPVEur:        m.NPVEur,
		CapexEur:      m.CapexEur,
		OpexEurPerA:   m.OpexEurPerA,
		Opex:          m.Opex,
		PumpMWh:       m.PumpMWh,
		HeatLossMWh:   m.HeatLossMWh,
		VMax:          m.VMax,
		HeadRequiredM: m.HeadRequiredM,
		DeltaTDesignK: m.DeltaTDesignK,
		DpPathMaxPa:   m.DpPathMaxPa,
		WorstPathID:   m.WorstPathID,
		VelocityOK:    m.VelocityOK,
		DeltaTOK:      m.DeltaTOK,
		ValidationOK:  v.OK,
		Messages:      v.Messages,
		SegmentCount:  len(m.Segments),
		PathStats:     ps,
	}
}

// SummaryFormat selects the summary encoding.
type SummaryFormat int

const (
	SummaryJSON SummaryFormat = iota
	SummaryYAML
)

func (f SummaryFormat) String() string {
	return [...]string{"json", "yaml"}[f]
}

func SummaryFormatFromString(s string) SummaryFormat {
	return map[string]SummaryFormat{
		"json": SummaryJSON,
		"yaml": SummaryYAML,
		"yml":  SummaryYAML,
	}[strings.ToLower(s)]
}

func WriteSummary(w io.Writer, s Summary, format SummaryFormat) error {
	switch format {
	case SummaryYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return errors.Wrap(err, "Can't write summary")
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return errors.Wrap(err, "Can't write summary")
		}
		return nil
	}
}

//---------------------------------------------------------------------------------------------------//

// Recorder writes the outputs of one run into a directory.
type Recorder struct {
	output_dir string
	format     SummaryFormat
	logger     *zap.Logger
}

func NewRecorder(output_dir string, format SummaryFormat, logger *zap.Logger) (*Recorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(output_dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "`%s` is not a directory", output_dir)
	}
	return &Recorder{output_dir: output_dir, format: format, logger: logger}, nil
}

/*
	Saves the outputs of a run.

	Args:
		segments: network segments
		m: metrics of the run
		v: validation of the run
		sg: segment geometry, may be nil

	Returns:
		paths of the written files

	Notes:
		segments.csv, summary.json|yaml and, with geometry, network.geojson.
*/
func (r *Recorder) Save(segments []Segment, m *Metrics, v Validation, sg *SegmentGeometry) ([]string, error) {
	var written []string

	table_path := filepath.Join(r.output_dir, "segments.csv")
	r.logger.Info("Save segment table", zap.String("path", table_path))
	if err := r._write_file(table_path, func(w io.Writer) error {
		return WriteSegmentTable(w, SegmentRows(segments, m))
	}); err != nil {
		return written, err
	}
	written = append(written, table_path)

	summary_path := filepath.Join(r.output_dir, "summary."+r.format.String())
	r.logger.Info("Save summary", zap.String("path", summary_path))
	if err := r._write_file(summary_path, func(w io.Writer) error {
		return WriteSummary(w, NewSummary(m, v), r.format)
	}); err != nil {
		return written, err
	}
	written = append(written, summary_path)

	if sg != nil {
		geo_path := filepath.Join(r.output_dir, "network.geojson")
		r.logger.Info("Save geometry", zap.String("path", geo_path))
		if err := r._write_file(geo_path, func(w io.Writer) error {
			return ExportGeoJSON(w, sg, m)
		}); err != nil {
			return written, err
		}
		written = append(written, geo_path)
	}

	return written, nil
}

func (r *Recorder) _write_file(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to create `%s`", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "Failed to close `%s`", path)
}
