package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/YuminosukeSato/loangate/core/model"
	"github.com/YuminosukeSato/loangate/pkg/errors"
)

// Schema creates the snapshot table. One row carries the hyper parameters,
// fitted parameters, split and test metrics of a training run.
const Schema = `
CREATE TABLE IF NOT EXISTS model_snapshots (
	id             UUID PRIMARY KEY,
	version        TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	feature_names  TEXT[] NOT NULL DEFAULT '{}',
	weights        JSONB NOT NULL,
	bias           DOUBLE PRECISION NOT NULL,
	x_mean         JSONB NOT NULL,
	x_std          JSONB NOT NULL,
	learning_rate  DOUBLE PRECISION NOT NULL,
	epochs         INTEGER NOT NULL,
	train_fraction DOUBLE PRECISION NOT NULL,
	test_fraction  DOUBLE PRECISION NOT NULL,
	seed           BIGINT NOT NULL,
	metrics        JSONB
);
CREATE INDEX IF NOT EXISTS model_snapshots_created_at_idx ON model_snapshots (created_at DESC);`

const insertSnapshot = `
	INSERT INTO model_snapshots
	(id, version, created_at, feature_names, weights, bias, x_mean, x_std,
	 learning_rate, epochs, train_fraction, test_fraction, seed, metrics)
	VALUES (:id, :version, :created_at, :feature_names, :weights, :bias, :x_mean, :x_std,
	 :learning_rate, :epochs, :train_fraction, :test_fraction, :seed, :metrics)`

const selectLatest = `
	SELECT id, version, created_at, feature_names, weights, bias, x_mean, x_std,
	       learning_rate, epochs, train_fraction, test_fraction, seed, metrics
	FROM model_snapshots
	ORDER BY created_at DESC
	LIMIT 1`

// snapshotRow is the column layout of model_snapshots.
type snapshotRow struct {
	ID            string         `db:"id"`
	Version       string         `db:"version"`
	CreatedAt     time.Time      `db:"created_at"`
	FeatureNames  pq.StringArray `db:"feature_names"`
	Weights       []byte         `db:"weights"`
	Bias          float64        `db:"bias"`
	Mean          []byte         `db:"x_mean"`
	Std           []byte         `db:"x_std"`
	LearningRate  float64        `db:"learning_rate"`
	Epochs        int            `db:"epochs"`
	TrainFraction float64        `db:"train_fraction"`
	TestFraction  float64        `db:"test_fraction"`
	Seed          int64          `db:"seed"`
	Metrics       []byte         `db:"metrics"`
}

func toRow(s *model.Snapshot) (*snapshotRow, error) {
	row := &snapshotRow{
		ID:            s.ID,
		Version:       s.Version,
		CreatedAt:     s.CreatedAt,
		FeatureNames:  pq.StringArray(append([]string{}, s.FeatureNames...)),
		Bias:          s.Bias,
		LearningRate:  s.HyperParams.LearningRate,
		Epochs:        s.HyperParams.Epochs,
		TrainFraction: s.Split.Training,
		TestFraction:  s.Split.Testing,
		Seed:          s.Split.Seed,
	}

	var err error
	if row.Weights, err = json.Marshal(s.Weights); err != nil {
		return nil, errors.Wrap(err, "failed to marshal weights")
	}
	if row.Mean, err = json.Marshal(s.Mean); err != nil {
		return nil, errors.Wrap(err, "failed to marshal x_mean")
	}
	if row.Std, err = json.Marshal(s.Std); err != nil {
		return nil, errors.Wrap(err, "failed to marshal x_std")
	}
	if s.Metrics != nil {
		if row.Metrics, err = json.Marshal(s.Metrics); err != nil {
			return nil, errors.Wrap(err, "failed to marshal metrics")
		}
	}
	return row, nil
}

func (r *snapshotRow) toSnapshot() (*model.Snapshot, error) {
	s := &model.Snapshot{
		ID:        r.ID,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		Bias:      r.Bias,
		HyperParams: model.HyperParams{
			LearningRate: r.LearningRate,
			Epochs:       r.Epochs,
		},
		Split: model.SplitConfig{
			Training: r.TrainFraction,
			Testing:  r.TestFraction,
			Seed:     r.Seed,
		},
	}
	if len(r.FeatureNames) > 0 {
		s.FeatureNames = []string(r.FeatureNames)
	}
	if err := json.Unmarshal(r.Weights, &s.Weights); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal weights")
	}
	if err := json.Unmarshal(r.Mean, &s.Mean); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal x_mean")
	}
	if err := json.Unmarshal(r.Std, &s.Std); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal x_std")
	}
	if len(r.Metrics) > 0 {
		s.Metrics = &model.EvaluationRecord{}
		if err := json.Unmarshal(r.Metrics, s.Metrics); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal metrics")
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// PostgresStore appends every snapshot to model_snapshots and loads the newest.
type PostgresStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPostgresStore wraps an open connection.
func NewPostgresStore(db *sqlx.DB, timeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, timeout: timeout}
}

// OpenPostgres connects with lib/pq, checks the connection and creates the table.
func OpenPostgres(ctx context.Context, dsn string, timeout time.Duration) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres connection")
	}

	s := NewPostgresStore(db, timeout)
	pingCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to connect to postgres")
	}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the table and index when missing.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return errors.Wrap(err, "failed to create model_snapshots")
	}
	return nil
}

// Save inserts s as a new row.
func (p *PostgresStore) Save(ctx context.Context, s *model.Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	row, err := toRow(s)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	if _, err := p.db.NamedExecContext(ctx, insertSnapshot, row); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return errors.Wrapf(err, "snapshot %s already stored", s.ID)
		}
		return errors.Wrap(err, "failed to insert snapshot")
	}
	return nil
}

// Load returns the newest snapshot.
func (p *PostgresStore) Load(ctx context.Context) (*model.Snapshot, error) {
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	var row snapshotRow
	if err := p.db.GetContext(ctx, &row, selectLatest); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(errors.ErrSnapshotNotFound, "model_snapshots is empty")
		}
		return nil, errors.Wrap(err, "failed to query latest snapshot")
	}
	return row.toSnapshot()
}

// Close closes the connection pool.
func (p *PostgresStore) Close() error {
	return p.db.Close()
}
