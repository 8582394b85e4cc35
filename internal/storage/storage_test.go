package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/blsim/internal/bls"
	"github.com/san-kum/blsim/internal/dynamo"
	"github.com/san-kum/blsim/internal/fitting"
	"github.com/san-kum/blsim/internal/pressure"
)

func testResult() *dynamo.Result {
	return &dynamo.Result{
		States: []dynamo.State{
			{0, 0, 1e-21},
			{0.1, 1.5e-10, 1.1e-21},
		},
		Controls: []dynamo.Control{{-5.6e-3}, {-5.6e-3}},
		Times:    []float64{0, 2e-9},
		Metrics: map[string]float64{
			"peak_deflection": 1.5e-10,
			"cycle_drift":     math.NaN(),
		},
		StepsTaken: 7,
		Rejected:   1,
	}
}

func testGeometry() bls.Geometry {
	return bls.Geometry{Radius: 32e-9, RestCapacitance: 1e-2, RestCharge: -7.1e-4}
}

func testParameters() pressure.Parameters {
	return pressure.Parameters{
		Amplitude:         1.1e5,
		ReferenceDistance: 1.3e-9,
		ExponentHigh:      5.1,
		ExponentLow:       3.2,
		Offset:            1.4e-9,
		Charge:            -7.1e-4,
		ZMin:              -2.8e-10,
		ZMax:              32e-9,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	params := testParameters()
	meta := RunMetadata{
		Mode:       "predicted",
		Geometry:   testGeometry(),
		Charge:     -7.1e-4,
		Integrator: "rk45",
		Columns:    []string{"velocity", "deflection", "gas"},
		Surrogate:  &params,
	}
	runID, err := st.Save(meta, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "predicted_") {
		t.Errorf("expected mode prefix, got %q", runID)
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Geometry != meta.Geometry {
		t.Errorf("geometry mismatch: %v vs %v", loaded.Geometry, meta.Geometry)
	}
	if loaded.Surrogate == nil || *loaded.Surrogate != params {
		t.Errorf("surrogate parameters not preserved: %+v", loaded.Surrogate)
	}
	if _, ok := loaded.Metrics["cycle_drift"]; ok {
		t.Error("non-finite metric should be dropped")
	}
	if loaded.Metrics["peak_deflection"] != 1.5e-10 {
		t.Errorf("expected peak_deflection 1.5e-10, got %g", loaded.Metrics["peak_deflection"])
	}

	res, err := st.LoadResult(runID)
	if err != nil {
		t.Fatalf("load result failed: %v", err)
	}
	if len(res.States) != 2 || len(res.States[1]) != 3 {
		t.Fatalf("unexpected states: %v", res.States)
	}
	if res.States[1][1] != 1.5e-10 {
		t.Errorf("deflection not preserved: %g", res.States[1][1])
	}
	if len(res.Controls[0]) != 1 || res.Controls[0][0] != -5.6e-3 {
		t.Errorf("control not preserved: %v", res.Controls[0])
	}
	if res.StepsTaken != 7 || res.Rejected != 1 {
		t.Errorf("step counts not preserved: %d %d", res.StepsTaken, res.Rejected)
	}

	tr, err := st.LoadTrajectory(runID, 1)
	if err != nil {
		t.Fatalf("load trajectory failed: %v", err)
	}
	if tr.Len() != 2 || tr.Times[1] != 2e-9 {
		t.Errorf("unexpected trajectory: %+v", tr)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	now := time.Now()
	for i, mode := range []string{"direct", "predicted"} {
		meta := RunMetadata{Mode: mode, Timestamp: now.Add(time.Duration(i) * time.Second)}
		if _, err := st.Save(meta, testResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Mode != "predicted" {
		t.Errorf("expected newest run first, got %s", runs[0].Mode)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestStoreLoadNotFound(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, RunMetadata{ID: "direct_abc", Mode: "direct"}, testResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if data.Steps != 2 || len(data.States) != 2 || len(data.Controls) != 2 {
		t.Errorf("unexpected export sizes: %+v", data)
	}
	if data.Meta.ID != "direct_abc" {
		t.Errorf("expected id direct_abc, got %s", data.Meta.ID)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, testResult(), []string{"velocity", "deflection"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "time,velocity,deflection,x2,u0" {
		t.Errorf("unexpected header %q", lines[0])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, &dynamo.Result{}, nil); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected empty output, got %q", buf.String())
	}
}

func openTestDB(t *testing.T) *SurrogateDB {
	t.Helper()
	db, err := OpenSurrogateDB(filepath.Join(t.TempDir(), "surrogates.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSurrogateDBRoundTrip(t *testing.T) {
	db := openTestDB(t)
	g := testGeometry()
	p := testParameters()

	if err := db.Put(g, p, fitting.Report{RSquared: 0.9999, RMSE: 12, Iterations: 9, Samples: 1000}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	model, err := db.Surrogate(g, p.Charge)
	if err != nil {
		t.Fatalf("surrogate failed: %v", err)
	}
	if model.Parameters() != p {
		t.Errorf("parameters mismatch: %+v vs %+v", model.Parameters(), p)
	}

	rec, err := db.Record(g, p.Charge)
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if rec.Geometry() != g || rec.Iterations != 9 || rec.RSquared != 0.9999 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestSurrogateDBUpsert(t *testing.T) {
	db := openTestDB(t)
	g := testGeometry()
	p := testParameters()

	if err := db.Put(g, p, fitting.Report{Iterations: 1}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	p.Amplitude = 2e5
	if err := db.Put(g, p, fitting.Report{Iterations: 2}); err != nil {
		t.Fatalf("second put failed: %v", err)
	}

	recs, err := db.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected one record after upsert, got %d", len(recs))
	}
	if recs[0].Amplitude != 2e5 || recs[0].Iterations != 2 {
		t.Errorf("upsert did not replace record: %+v", recs[0])
	}
}

func TestSurrogateDBMissing(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Surrogate(testGeometry(), 0)
	if !errors.Is(err, pressure.ErrMissingSurrogate) {
		t.Fatalf("expected ErrMissingSurrogate, got %v", err)
	}
	var missing *pressure.MissingSurrogateError
	if !errors.As(err, &missing) || missing.Geometry != testGeometry() {
		t.Errorf("expected geometry in error, got %v", err)
	}
}

func TestSurrogateDBRejectsInvalid(t *testing.T) {
	db := openTestDB(t)
	p := testParameters()
	p.ExponentLow = p.ExponentHigh + 1

	if err := db.Put(testGeometry(), p, fitting.Report{}); !errors.Is(err, pressure.ErrInvalidParameters) {
		t.Errorf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestSurrogateDBDelete(t *testing.T) {
	db := openTestDB(t)
	g := testGeometry()
	p := testParameters()
	if err := db.Put(g, p, fitting.Report{}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	ok, err := db.Delete(g, p.Charge)
	if err != nil || !ok {
		t.Fatalf("delete failed: %v %v", ok, err)
	}
	ok, err = db.Delete(g, p.Charge)
	if err != nil || ok {
		t.Errorf("second delete should report nothing removed: %v %v", ok, err)
	}
}
