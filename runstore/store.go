package runstore

// **** Persistence of optimization runs ****

import (
	"bytes"
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/ijhewaratne/dh_pipe_sizing_go/pipe_sizing"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	created_at     TEXT NOT NULL,
	label          TEXT NOT NULL DEFAULT '',
	segment_count  INTEGER NOT NULL,
	npv_eur        REAL NOT NULL,
	capex_eur      REAL NOT NULL,
	opex_eur_per_a REAL NOT NULL,
	pump_mwh       REAL NOT NULL,
	heat_loss_mwh  REAL NOT NULL,
	v_max          REAL NOT NULL,
	worst_path_id  TEXT NOT NULL,
	validation_ok  INTEGER NOT NULL,
	summary_json   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_segments (
	run_id      TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	seg_id      TEXT NOT NULL,
	dn          INTEGER NOT NULL,
	v_mps       REAL NOT NULL,
	dp_pa       REAL NOT NULL,
	heat_loss_w REAL NOT NULL,
	PRIMARY KEY (run_id, seg_id),
	FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`

// fixed width so that created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var ErrRunNotFound = errors.New("run not found")

// Run is one stored optimization result.
type Run struct {
	ID           string  `db:"id"`
	CreatedAt    string  `db:"created_at"` // UTC, timeLayout
	Label        string  `db:"label"`
	SegmentCount int     `db:"segment_count"`
	NPVEur       float64 `db:"npv_eur"`
	CapexEur     float64 `db:"capex_eur"`
	OpexEurPerA  float64 `db:"opex_eur_per_a"`
	PumpMWh      float64 `db:"pump_mwh"`
	HeatLossMWh  float64 `db:"heat_loss_mwh"`
	VMax         float64 `db:"v_max"`
	WorstPathID  string  `db:"worst_path_id"`
	ValidationOK bool    `db:"validation_ok"`
	SummaryJSON  string  `db:"summary_json"`
}

// SegmentChoice is the stored DN of one segment of a run.
type SegmentChoice struct {
	RunID     string  `db:"run_id"`
	Seq       int     `db:"seq"`
	SegID     string  `db:"seg_id"`
	DN        int     `db:"dn"`
	VMps      float64 `db:"v_mps"`
	DpPa      float64 `db:"dp_pa"`
	HeatLossW float64 `db:"heat_loss_w"`
}

type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Open opens or creates the SQLite database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "migrate")
		}
	}

	logger.Info("Run store opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

/*
	Stores one run.

	Args:
		ctx: context
		label: free text, e.g. the configuration file
		m: metrics of the run
		v: validation of the run

	Returns:
		new run id (uuid)
*/
func (s *Store) SaveRun(ctx context.Context, label string, m *pipe_sizing.Metrics, v pipe_sizing.Validation) (string, error) {
	var summary bytes.Buffer
	if err := pipe_sizing.WriteSummary(&summary, pipe_sizing.NewSummary(m, v), pipe_sizing.SummaryJSON); err != nil {
		return "", err
	}

	run := Run{
		ID:           uuid.New().String(),
		CreatedAt:    time.Now().UTC().Format(timeLayout),
		Label:        label,
		SegmentCount: len(m.Segments),
		NPVEur:       m.NPVEur,
		CapexEur:     m.CapexEur,
		OpexEurPerA:  m.OpexEurPerA,
		PumpMWh:      m.PumpMWh,
		HeatLossMWh:  m.HeatLossMWh,
		VMax:         m.VMax,
		WorstPathID:  m.WorstPathID,
		ValidationOK: v.OK,
		SummaryJSON:  summary.String(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO runs (id, created_at, label, segment_count, npv_eur, capex_eur, opex_eur_per_a,
			pump_mwh, heat_loss_mwh, v_max, worst_path_id, validation_ok, summary_json)
		VALUES (:id, :created_at, :label, :segment_count, :npv_eur, :capex_eur, :opex_eur_per_a,
			:pump_mwh, :heat_loss_mwh, :v_max, :worst_path_id, :validation_ok, :summary_json)`,
		run,
	)
	if err != nil {
		return "", errors.Wrap(err, "insert run")
	}

	for i, r := range m.Segments {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO run_segments (run_id, seq, seg_id, dn, v_mps, dp_pa, heat_loss_w)
			VALUES (:run_id, :seq, :seg_id, :dn, :v_mps, :dp_pa, :heat_loss_w)`,
			SegmentChoice{
				RunID:     run.ID,
				Seq:       i,
				SegID:     r.SegID,
				DN:        r.DN,
				VMps:      r.V,
				DpPa:      r.DpPa,
				HeatLossW: r.HeatLossW,
			},
		)
		if err != nil {
			return "", errors.Wrapf(err, "insert segment %s", r.SegID)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, "commit")
	}

	s.logger.Info("Run saved", zap.String("run_id", run.ID), zap.Int("segments", run.SegmentCount))
	return run.ID, nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db.GetContext(ctx, &run, `SELECT * FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrRunNotFound, "run %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get run")
	}
	return &run, nil
}

// ListRuns returns the newest runs first; limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	var runs []Run
	err := s.db.SelectContext(ctx, &runs,
		`SELECT * FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	return runs, nil
}

// SegmentChoices returns the stored segments of a run in evaluation order.
func (s *Store) SegmentChoices(ctx context.Context, run_id string) ([]SegmentChoice, error) {
	var choices []SegmentChoice
	err := s.db.SelectContext(ctx, &choices,
		`SELECT * FROM run_segments WHERE run_id = ? ORDER BY seq`, run_id)
	if err != nil {
		return nil, errors.Wrap(err, "segment choices")
	}
	if len(choices) == 0 {
		if _, err := s.GetRun(ctx, run_id); err != nil {
			return nil, err
		}
	}
	return choices, nil
}

// Assignment rebuilds the DN assignment of a stored run.
func (s *Store) Assignment(ctx context.Context, run_id string) (pipe_sizing.Assignment, error) {
	choices, err := s.SegmentChoices(ctx, run_id)
	if err != nil {
		return nil, err
	}
	a := make(pipe_sizing.Assignment, len(choices))
	for _, c := range choices {
		a[c.SegID] = c.DN
	}
	return a, nil
}
