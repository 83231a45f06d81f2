package pipe_sizing

import (
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

type assignmentRow struct {
	SegID string `csv:"seg_id"`
	DN    int    `csv:"DN"`
}

// LoadAssignment reads a seg_id,DN table. The segments.csv written by Recorder qualifies.
func LoadAssignment(r io.Reader) (Assignment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, schemaWrap("assignment", err, "read failed")
	}
	data = _trim_bom(data)

	header, err := _read_header(data)
	if err != nil {
		return nil, schemaWrap("assignment", err, "header")
	}
	if missing := _missing_columns(header, []string{"seg_id", "DN"}); len(missing) > 0 {
		return nil, schemaErrorf("assignment", "missing columns: %s", strings.Join(missing, ", "))
	}

	var rows []*assignmentRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, schemaWrap("assignment", err, "parse failed")
	}

	a := make(Assignment, len(rows))
	for _, row := range rows {
		if _, dup := a[row.SegID]; dup {
			return nil, schemaErrorf("assignment", "duplicate seg_id %s", row.SegID)
		}
		a[row.SegID] = row.DN
	}
	return a, nil
}

func LoadAssignmentFile(path string) (Assignment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open assignment `%s`", path)
	}
	defer f.Close()
	return LoadAssignment(f)
}
