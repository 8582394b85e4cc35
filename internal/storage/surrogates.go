package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/san-kum/blsim/internal/bls"
	"github.com/san-kum/blsim/internal/fitting"
	"github.com/san-kum/blsim/internal/pressure"
)

// SurrogateDB persists fitted surrogates in SQLite, keyed by the exact
// geometry and charge they were fitted for. It satisfies
// pressure.SurrogateSource.
type SurrogateDB struct {
	conn *sqlx.DB
}

// SurrogateRecord is one stored fit.
type SurrogateRecord struct {
	ID              int64   `db:"id"`
	Radius          float64 `db:"radius"`
	RestCapacitance float64 `db:"rest_capacitance"`
	RestCharge      float64 `db:"rest_charge"`
	pressure.Parameters
	RSquared   float64 `db:"r_squared"`
	RMSE       float64 `db:"rmse"`
	Iterations int     `db:"iterations"`
	Samples    int     `db:"samples"`
	CreatedAt  string  `db:"created_at"`
}

func (r SurrogateRecord) Geometry() bls.Geometry {
	return bls.Geometry{Radius: r.Radius, RestCapacitance: r.RestCapacitance, RestCharge: r.RestCharge}
}

func OpenSurrogateDB(path string) (*SurrogateDB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open surrogate db: %w", err)
	}

	db := &SurrogateDB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate surrogate db: %w", err)
	}
	return db, nil
}

func (db *SurrogateDB) Close() error {
	return db.conn.Close()
}

func (db *SurrogateDB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS surrogates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		radius REAL NOT NULL,
		rest_capacitance REAL NOT NULL,
		rest_charge REAL NOT NULL,
		charge REAL NOT NULL,
		amplitude REAL NOT NULL,
		reference_distance REAL NOT NULL,
		exponent_high REAL NOT NULL,
		exponent_low REAL NOT NULL,
		"offset" REAL NOT NULL,
		z_min REAL NOT NULL,
		z_max REAL NOT NULL,
		r_squared REAL NOT NULL,
		rmse REAL NOT NULL,
		iterations INTEGER NOT NULL,
		samples INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE (radius, rest_capacitance, rest_charge, charge)
	);

	CREATE INDEX IF NOT EXISTS idx_surrogates_radius ON surrogates(radius);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Put stores a fit, replacing any previous fit for the same geometry and charge.
func (db *SurrogateDB) Put(g bls.Geometry, p pressure.Parameters, rep fitting.Report) error {
	if err := p.Validate(); err != nil {
		return err
	}
	rec := SurrogateRecord{
		Radius:          g.Radius,
		RestCapacitance: g.RestCapacitance,
		RestCharge:      g.RestCharge,
		Parameters:      p,
		RSquared:        rep.RSquared,
		RMSE:            rep.RMSE,
		Iterations:      rep.Iterations,
		Samples:         rep.Samples,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	}

	_, err := db.conn.NamedExec(`INSERT INTO surrogates
		(radius, rest_capacitance, rest_charge, charge, amplitude, reference_distance,
		 exponent_high, exponent_low, "offset", z_min, z_max, r_squared, rmse,
		 iterations, samples, created_at)
		VALUES (:radius, :rest_capacitance, :rest_charge, :charge, :amplitude, :reference_distance,
		 :exponent_high, :exponent_low, :offset, :z_min, :z_max, :r_squared, :rmse,
		 :iterations, :samples, :created_at)
		ON CONFLICT (radius, rest_capacitance, rest_charge, charge) DO UPDATE SET
		 amplitude = excluded.amplitude,
		 reference_distance = excluded.reference_distance,
		 exponent_high = excluded.exponent_high,
		 exponent_low = excluded.exponent_low,
		 "offset" = excluded."offset",
		 z_min = excluded.z_min,
		 z_max = excluded.z_max,
		 r_squared = excluded.r_squared,
		 rmse = excluded.rmse,
		 iterations = excluded.iterations,
		 samples = excluded.samples,
		 created_at = excluded.created_at`, rec)
	return err
}

// Record returns the stored fit for geometry g and charge q.
func (db *SurrogateDB) Record(g bls.Geometry, q float64) (*SurrogateRecord, error) {
	var rec SurrogateRecord
	err := db.conn.Get(&rec, `SELECT * FROM surrogates
		WHERE radius = ? AND rest_capacitance = ? AND rest_charge = ? AND charge = ?`,
		g.Radius, g.RestCapacitance, g.RestCharge, q)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &pressure.MissingSurrogateError{Geometry: g, Charge: q}
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (db *SurrogateDB) Surrogate(g bls.Geometry, q float64) (*pressure.SurrogateModel, error) {
	rec, err := db.Record(g, q)
	if err != nil {
		return nil, err
	}
	return pressure.NewSurrogateModel(rec.Parameters)
}

// List returns every stored fit ordered by radius and charge.
func (db *SurrogateDB) List() ([]SurrogateRecord, error) {
	var recs []SurrogateRecord
	err := db.conn.Select(&recs, `SELECT * FROM surrogates ORDER BY radius, rest_charge, charge`)
	return recs, err
}

// Delete removes the fit for g and q, reporting whether one existed.
func (db *SurrogateDB) Delete(g bls.Geometry, q float64) (bool, error) {
	res, err := db.conn.Exec(`DELETE FROM surrogates
		WHERE radius = ? AND rest_capacitance = ? AND rest_charge = ? AND charge = ?`,
		g.Radius, g.RestCapacitance, g.RestCharge, q)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
