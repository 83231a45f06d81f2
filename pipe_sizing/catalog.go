package pipe_sizing

// **** Pipe catalog ****

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

const (
	DNMin = 10   // smallest accepted nominal diameter
	DNMax = 2000 // largest accepted nominal diameter
)

var catalogRequiredColumns = []string{"dn", "d_inner_m", "d_outer_m", "cost_eur_per_m"}

// PipeCatalogEntry is one row of the pipe catalog.
type PipeCatalogEntry struct {
	DN          int          // nominal diameter code
	DInnerM     float64      // inner diameter, m
	DOuterM     float64      // outer diameter, m
	HeatLoss    HeatLossSpec // direct W/m or U-value W/(m2 K)
	CostEurPerM float64      // installed cost, EUR/m
}

// catalogRow mirrors the CSV columns. The loss columns are strings so that an
// empty cell can be told apart from an explicit zero.
type catalogRow struct {
	DN          string `csv:"dn"`
	DInnerM     string `csv:"d_inner_m"`
	DOuterM     string `csv:"d_outer_m"`
	WLossWPerM  string `csv:"w_loss_w_per_m"`
	UWPerMK     string `csv:"u_wpermk"`
	CostEurPerM string `csv:"cost_eur_per_m"`
}

// PipeCatalog is read-only once built and is shared by every evaluation of a run.
type PipeCatalog struct {
	entries []PipeCatalogEntry // ascending inner diameter
	by_dn   map[int]int        // dn -> index into entries
}

func NewPipeCatalog(entries []PipeCatalogEntry) (*PipeCatalog, error) {
	if len(entries) == 0 {
		return nil, schemaErrorf("catalog", "catalog has no entries")
	}

	es := make([]PipeCatalogEntry, len(entries))
	copy(es, entries)

	for _, e := range es {
		if err := _validate_entry(e); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(es, func(i, j int) bool {
		if es[i].DInnerM == es[j].DInnerM {
			return es[i].DN < es[j].DN
		}
		return es[i].DInnerM < es[j].DInnerM
	})

	by_dn := make(map[int]int, len(es))
	for i, e := range es {
		if _, ok := by_dn[e.DN]; ok {
			return nil, schemaErrorf("catalog", "duplicate dn %d", e.DN)
		}
		by_dn[e.DN] = i
	}

	return &PipeCatalog{entries: es, by_dn: by_dn}, nil
}

func _validate_entry(e PipeCatalogEntry) error {
	if e.DN < DNMin || e.DN > DNMax {
		return schemaErrorf("catalog", "dn %d outside [%d, %d]", e.DN, DNMin, DNMax)
	}
	if !(e.DInnerM > 0) {
		return schemaErrorf("catalog", "dn %d: d_inner_m must be > 0 (got %g)", e.DN, e.DInnerM)
	}
	if !(e.DOuterM > e.DInnerM) {
		return schemaErrorf("catalog", "dn %d: d_outer_m %g must exceed d_inner_m %g", e.DN, e.DOuterM, e.DInnerM)
	}
	if !(e.CostEurPerM >= 0) {
		return schemaErrorf("catalog", "dn %d: cost_eur_per_m must be >= 0 (got %g)", e.DN, e.CostEurPerM)
	}
	if !e.HeatLoss.Mode.valid() {
		return schemaErrorf("catalog", "dn %d: unknown heat loss mode %s", e.DN, e.HeatLoss.Mode)
	}
	if !(e.HeatLoss.Value >= 0) {
		return schemaErrorf("catalog", "dn %d: %s heat loss must be >= 0 (got %g)", e.DN, e.HeatLoss.Mode, e.HeatLoss.Value)
	}
	return nil
}

/*
	Reads a pipe catalog from CSV.

	Args:
		r: CSV with header dn, d_inner_m, d_outer_m, cost_eur_per_m and at least
		   one of w_loss_w_per_m / u_wpermk

	Returns:
		the catalog, or a KindSchema error

	Notes:
		When both loss columns are filled in a row, w_loss_w_per_m wins.
*/
func LoadCatalog(r io.Reader) (*PipeCatalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, schemaWrap("catalog", err, "read failed")
	}
	data = _trim_bom(data)

	header, err := _read_header(data)
	if err != nil {
		return nil, schemaWrap("catalog", err, "header")
	}
	if missing := _missing_columns(header, catalogRequiredColumns); len(missing) > 0 {
		return nil, schemaErrorf("catalog", "missing columns: %s", strings.Join(missing, ", "))
	}
	if !header["w_loss_w_per_m"] && !header["u_wpermk"] {
		return nil, schemaErrorf("catalog", "one of w_loss_w_per_m, u_wpermk is required")
	}

	var rows []*catalogRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, schemaWrap("catalog", err, "parse failed")
	}

	entries := make([]PipeCatalogEntry, 0, len(rows))
	for i, row := range rows {
		e, err := _get_entry(row)
		if err != nil {
			return nil, schemaErrorf("catalog", "row %d: %v", i+2, err)
		}
		entries = append(entries, e)
	}

	return NewPipeCatalog(entries)
}

func LoadCatalogFile(path string) (*PipeCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open catalog `%s`", path)
	}
	defer f.Close()
	return LoadCatalog(f)
}

func _get_entry(row *catalogRow) (PipeCatalogEntry, error) {
	dn, err := strconv.Atoi(strings.TrimSpace(row.DN))
	if err != nil {
		return PipeCatalogEntry{}, errors.Wrap(err, "dn")
	}
	d_inner, err := _parse_float(row.DInnerM, "d_inner_m")
	if err != nil {
		return PipeCatalogEntry{}, err
	}
	d_outer, err := _parse_float(row.DOuterM, "d_outer_m")
	if err != nil {
		return PipeCatalogEntry{}, err
	}
	cost, err := _parse_float(row.CostEurPerM, "cost_eur_per_m")
	if err != nil {
		return PipeCatalogEntry{}, err
	}

	var loss HeatLossSpec
	switch {
	case strings.TrimSpace(row.WLossWPerM) != "":
		w, err := _parse_float(row.WLossWPerM, "w_loss_w_per_m")
		if err != nil {
			return PipeCatalogEntry{}, err
		}
		loss = DirectLoss(w)
	case strings.TrimSpace(row.UWPerMK) != "":
		u, err := _parse_float(row.UWPerMK, "u_wpermk")
		if err != nil {
			return PipeCatalogEntry{}, err
		}
		loss = UValueLoss(u)
	default:
		return PipeCatalogEntry{}, errors.Errorf("dn %d has neither w_loss_w_per_m nor u_wpermk", dn)
	}

	return PipeCatalogEntry{
		DN:          dn,
		DInnerM:     d_inner,
		DOuterM:     d_outer,
		HeatLoss:    loss,
		CostEurPerM: cost,
	}, nil
}

// Lookup returns the entry for dn.
func (c *PipeCatalog) Lookup(dn int) (PipeCatalogEntry, bool) {
	i, ok := c.by_dn[dn]
	if !ok {
		return PipeCatalogEntry{}, false
	}
	return c.entries[i], true
}

// Entries returns the catalog in ascending inner-diameter order.
func (c *PipeCatalog) Entries() []PipeCatalogEntry {
	es := make([]PipeCatalogEntry, len(c.entries))
	copy(es, c.entries)
	return es
}

func (c *PipeCatalog) Len() int {
	return len(c.entries)
}

//---------------------------------------------------------------------------------------------------//

func _trim_bom(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte("\ufeff"))
}

func _read_header(data []byte) (map[string]bool, error) {
	r := csv.NewReader(bytes.NewReader(data))
	cols, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]bool, len(cols))
	for _, c := range cols {
		header[strings.TrimSpace(c)] = true
	}
	return header, nil
}

func _missing_columns(header map[string]bool, required []string) []string {
	var missing []string
	for _, c := range required {
		if !header[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

func _parse_float(s string, column string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Wrap(err, column)
	}
	return v, nil
}
