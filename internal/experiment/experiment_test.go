package experiment

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/blsim/internal/bls"
	"github.com/san-kum/blsim/internal/config"
	"github.com/san-kum/blsim/internal/fitting"
	"github.com/san-kum/blsim/internal/pressure"
)

type memStore struct {
	*pressure.Catalog
	puts int
}

func newMemStore() *memStore { return &memStore{Catalog: pressure.NewCatalog()} }

func (m *memStore) Put(g bls.Geometry, p pressure.Parameters, rep fitting.Report) error {
	model, err := pressure.NewSurrogateModel(p)
	if err != nil {
		return err
	}
	m.Add(g, model)
	m.puts++
	return nil
}

func testConfig(t *testing.T, cycles, samples int) Config {
	t.Helper()
	base := config.DefaultConfig()
	base.Simulation.Cycles = cycles
	base.Simulation.SamplesPerCycle = samples
	base.Fit.Samples = 400
	cfg, err := FromConfig(base)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	return cfg
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	names := r.ListIntegrators()
	want := []string{"euler", "heun", "rk4", "rk45"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %v, got %v", want, names)
			break
		}
	}

	if _, adaptive, err := r.GetIntegrator("rk45", nil); err != nil || !adaptive {
		t.Errorf("rk45 should be adaptive: %v %v", adaptive, err)
	}
	if _, adaptive, err := r.GetIntegrator("rk4", nil); err != nil || adaptive {
		t.Errorf("rk4 should be fixed-step: %v %v", adaptive, err)
	}
	if _, _, err := r.GetIntegrator("verlet", nil); err == nil {
		t.Error("expected error for unknown integrator")
	}
	if modes := r.ListModes(); len(modes) != 2 || modes[0] != "direct" || modes[1] != "predicted" {
		t.Errorf("unexpected modes %v", modes)
	}
}

func TestFromConfigUsesRestCharge(t *testing.T) {
	cfg := testConfig(t, 1, 100)
	if cfg.Charge != cfg.Geometry.RestCharge {
		t.Errorf("expected rest charge %g, got %g", cfg.Geometry.RestCharge, cfg.Charge)
	}
	if d := cfg.Duration() / cfg.Dt(); math.Abs(d-100) > 1e-9 {
		t.Errorf("expected 100 samples over the run, got %g", d)
	}
}

func TestNewValidates(t *testing.T) {
	cfg := testConfig(t, 1, 100)
	cfg.Cycles = 0
	if _, err := New(cfg, nil, nil, nil); err == nil {
		t.Error("expected error for zero cycles")
	}

	cfg = testConfig(t, 1, 100)
	cfg.Geometry.Radius = -1
	if _, err := New(cfg, nil, nil, nil); err == nil {
		t.Error("expected error for negative radius")
	}
}

func TestRunPredictedWithoutSurrogate(t *testing.T) {
	exp, err := New(testConfig(t, 1, 100), nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = exp.Run(context.Background(), pressure.Predicted)
	if !errors.Is(err, pressure.ErrMissingSurrogate) {
		t.Errorf("expected ErrMissingSurrogate, got %v", err)
	}
}

func TestRunUnknownIntegrator(t *testing.T) {
	cfg := testConfig(t, 1, 100)
	cfg.Integrator = "leapfrog"
	exp, err := New(cfg, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := exp.Run(context.Background(), pressure.Direct); err == nil {
		t.Error("expected error for unknown integrator")
	}
}

func TestSurrogateFitsOnceAndStores(t *testing.T) {
	store := newMemStore()
	cfg := testConfig(t, 1, 100)

	exp, err := New(cfg, nil, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	model, rep, err := exp.Surrogate(context.Background())
	if err != nil {
		t.Fatalf("Surrogate: %v", err)
	}
	if rep == nil || rep.Samples != 400 {
		t.Errorf("expected a fit report over 400 samples, got %+v", rep)
	}
	if store.puts != 1 {
		t.Errorf("expected one stored fit, got %d", store.puts)
	}

	again, rep, err := exp.Surrogate(context.Background())
	if err != nil || rep != nil || again != model {
		t.Errorf("second call should hit the catalog: %v %+v", err, rep)
	}

	fresh, err := New(cfg, nil, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, rep, err := fresh.Surrogate(context.Background()); err != nil || rep != nil {
		t.Errorf("new experiment should load from the store: %v %+v", err, rep)
	}
	if store.puts != 1 {
		t.Errorf("store should not be written again, got %d puts", store.puts)
	}
}

func TestRunDirectOneCycle(t *testing.T) {
	exp, err := New(testConfig(t, 1, 200), nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	run, err := exp.Run(context.Background(), pressure.Direct)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(run.Result.States) != 201 {
		t.Errorf("expected 201 samples, got %d", len(run.Result.States))
	}
	if run.Model != nil {
		t.Error("direct run should not carry a model")
	}
	for _, name := range []string{"peak_deflection", "min_deflection", "cycle_drift"} {
		if _, ok := run.Result.Metrics[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
	if _, ok := run.Result.Metrics["fit_coverage"]; ok {
		t.Error("direct run should not track fit coverage")
	}
	if run.Result.Metrics["peak_deflection"] <= 0 {
		t.Errorf("expected outward deflection, got %g", run.Result.Metrics["peak_deflection"])
	}
}

func TestCompareRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("round trip integrates both modes")
	}

	base := config.DefaultConfig()
	base.Simulation.Cycles = 2
	cfg, err := FromConfig(base)
	if err != nil {
		t.Fatal(err)
	}
	exp, err := New(cfg, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	cmp, err := exp.Compare(context.Background())
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp.FitReport == nil {
		t.Error("expected a fit report")
	}
	if cmp.Accuracy.RSquared < 0.999 {
		t.Errorf("deflection R² %.5f below 0.999", cmp.Accuracy.RSquared)
	}
	if cmp.Accuracy.RMSE >= 0.05e-9 {
		t.Errorf("deflection RMSE %.4g nm not below 0.05 nm", cmp.Accuracy.RMSE*1e9)
	}
	if cmp.SpeedRatio < 3 {
		t.Errorf("predicted run only %.2fx faster", cmp.SpeedRatio)
	}
	if cov := cmp.Predicted.Result.Metrics["fit_coverage"]; cov < 0.99 {
		t.Errorf("trajectory left the fitted range: coverage %.3f", cov)
	}
	if cmp.Direct.Deflection().Len() != cmp.Predicted.Deflection().Len() {
		t.Error("trajectories differ in length")
	}
}

func TestScenarioExpand(t *testing.T) {
	s := &Scenario{
		Cases: []Case{{Name: "base"}},
		Sweep: &Sweep{Parameter: "amplitude", Min: 50e3, Max: 150e3, Steps: 3, Mode: "direct"},
	}
	cases, err := s.Expand()
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != 4 {
		t.Fatalf("expected 4 cases, got %d", len(cases))
	}
	if cases[2].Amplitude != 100e3 || cases[2].Mode != "direct" {
		t.Errorf("unexpected sweep case %+v", cases[2])
	}

	s.Sweep.Parameter = "temperature"
	if _, err := s.Expand(); err == nil {
		t.Error("expected error for unsupported sweep parameter")
	}
}

func TestCaseApply(t *testing.T) {
	base := config.DefaultConfig()
	c := Case{Radius: 64e-9, Neuron: "FS", Cycles: 3}
	cfg := c.Apply(base)

	if cfg.Geometry.Radius != 64e-9 || cfg.Geometry.Neuron != "FS" || cfg.Simulation.Cycles != 3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Drive != base.Drive {
		t.Error("unset fields should keep the base value")
	}
	if base.Geometry.Radius != config.DefaultRadius {
		t.Error("Apply modified the base configuration")
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	data := `name: radii
description: patch size sweep
cases:
  - name: small
    radius: 16e-9
    mode: direct
sweep:
  parameter: radius
  min: 32e-9
  max: 64e-9
  steps: 2
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if s.Name != "radii" || len(s.Cases) != 1 || s.Sweep == nil || s.Sweep.Steps != 2 {
		t.Errorf("unexpected scenario %+v", s)
	}
	if s.Cases[0].Radius != 16e-9 {
		t.Errorf("expected radius 16e-9, got %g", s.Cases[0].Radius)
	}
}

func TestRunScenarioStopsOnError(t *testing.T) {
	s := &Scenario{Name: "bad", Cases: []Case{{Name: "broken", Mode: "sideways"}}}
	base := config.DefaultConfig()
	base.Simulation.Cycles = 1
	results, err := RunScenario(context.Background(), s, base, nil, nil, nil)
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
