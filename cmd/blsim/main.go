package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/blsim/internal/analysis"
	"github.com/san-kum/blsim/internal/bls"
	"github.com/san-kum/blsim/internal/config"
	"github.com/san-kum/blsim/internal/experiment"
	"github.com/san-kum/blsim/internal/fitting"
	"github.com/san-kum/blsim/internal/logging"
	"github.com/san-kum/blsim/internal/physics"
	"github.com/san-kum/blsim/internal/pressure"
	"github.com/san-kum/blsim/internal/storage"
	"github.com/san-kum/blsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	theme      string

	radiusNM   float64
	neuron     string
	freqKHz    float64
	ampKPa     float64
	cycles     int
	samples    int
	integrator string
	mode       string
	relTol     float64
	nodes      int

	chargeNC  float64
	rangeLoNM float64
	rangeHiNM float64
	fitSample int

	stateIdx int
	xAxis    int
	yAxis    int
	noSave   bool
	remove   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "blsim",
		Short:        "bilayer sonophore intermolecular pressure lab",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "ocean", "report theme")

	fitCmd := &cobra.Command{
		Use:   "fit",
		Short: "fit the pressure surrogate and store it",
		RunE:  fitSurrogate,
	}
	addGeometryFlags(fitCmd)
	fitCmd.Flags().Float64Var(&chargeNC, "charge", 0, "membrane charge in nC/cm2 (default rest charge)")
	fitCmd.Flags().Float64Var(&rangeLoNM, "z-min", 0, "lower fit bound in nm (default from fit config)")
	fitCmd.Flags().Float64Var(&rangeHiNM, "z-max", 0, "upper fit bound in nm (default leaflet radius)")
	fitCmd.Flags().IntVar(&fitSample, "samples", 0, "direct integral samples")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate with one pressure mode",
		RunE:  runSimulation,
	}
	addGeometryFlags(runCmd)
	addSimulationFlags(runCmd)
	runCmd.Flags().StringVar(&mode, "mode", "direct", "pressure mode (direct, predicted)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "simulate both modes and report accuracy and speed-up",
		RunE:  compareModes,
	}
	addGeometryFlags(compareCmd)
	addSimulationFlags(compareCmd)
	compareCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the cases of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a state component of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&stateIdx, "index", physics.IdxDeflection, "state index (0 velocity, 1 deflection, 2 gas)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of the deflection",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", physics.IdxDeflection, "state index for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", physics.IdxVelocity, "state index for y-axis")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets and neuron profiles",
		RunE:  listPresets,
	}

	surrogatesCmd := &cobra.Command{
		Use:   "surrogates",
		Short: "list or delete stored surrogate fits",
		RunE:  listSurrogates,
	}
	addGeometryFlags(surrogatesCmd)
	surrogatesCmd.Flags().Float64Var(&chargeNC, "charge", 0, "membrane charge in nC/cm2 (default rest charge)")
	surrogatesCmd.Flags().BoolVar(&remove, "delete", false, "delete the fit for the selected geometry and charge")

	rootCmd.AddCommand(fitCmd, runCmd, compareCmd, scenarioCmd, listCmd, plotCmd, analyzeCmd,
		phaseCmd, exportCSVCmd, exportJSONCmd, presetsCmd, surrogatesCmd)

	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func addGeometryFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&radiusNM, "radius", config.DefaultRadius*1e9, "sonophore radius in nm")
	cmd.Flags().StringVar(&neuron, "neuron", config.DefaultNeuron, "neuron membrane profile")
	cmd.Flags().IntVar(&nodes, "nodes", pressure.DefaultNodes, "quadrature nodes of the direct integral")
}

func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&freqKHz, "freq", config.DefaultFrequency*1e-3, "drive frequency in kHz")
	cmd.Flags().Float64Var(&ampKPa, "amp", config.DefaultAmplitude*1e-3, "drive amplitude in kPa")
	cmd.Flags().IntVar(&cycles, "cycles", config.DefaultCycles, "acoustic cycles")
	cmd.Flags().IntVar(&samples, "samples-per-cycle", config.DefaultSamplesPerCycle, "output samples per cycle")
	cmd.Flags().StringVar(&integrator, "integrator", "rk45", "integrator")
	cmd.Flags().Float64Var(&relTol, "tol", config.DefaultRelTol, "relative tolerance of adaptive stepping")
}

// loadConfig layers the preset, the config file and explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("radius") {
		cfg.Geometry.Radius = radiusNM * 1e-9
	}
	if flags.Changed("neuron") {
		cfg.Geometry.Neuron = neuron
	}
	if flags.Changed("nodes") {
		cfg.Quadrature.Nodes = nodes
	}
	if flags.Changed("freq") {
		cfg.Drive.Frequency = freqKHz * 1e3
	}
	if flags.Changed("amp") {
		cfg.Drive.Amplitude = ampKPa * 1e3
	}
	if flags.Changed("cycles") {
		cfg.Simulation.Cycles = cycles
	}
	if flags.Changed("samples-per-cycle") {
		cfg.Simulation.SamplesPerCycle = samples
	}
	if flags.Changed("integrator") {
		cfg.Simulation.Integrator = integrator
	}
	if flags.Changed("tol") {
		cfg.Simulation.RelTol = relTol
	}
	if flags.Changed("mode") {
		cfg.Simulation.Mode = mode
	}
	if flags.Changed("samples") {
		cfg.Fit.Samples = fitSample
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveDataDir is used by commands that only read stored results.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if configFile != "" {
		if cfg, err := config.Load(configFile); err == nil && cfg.DataDir != "" {
			return cfg.DataDir
		}
	}
	return config.DefaultDataDir
}

func openSurrogates(dir string) (*storage.SurrogateDB, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return storage.OpenSurrogateDB(filepath.Join(dir, "surrogates.db"))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func report() *viz.Report {
	return viz.NewReport(viz.GetTheme(theme))
}

func fitSurrogate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	g, err := cfg.ResolveGeometry()
	if err != nil {
		return err
	}
	q := g.RestCharge
	if cmd.Flags().Changed("charge") {
		q = chargeNC * 1e-5
	}

	var r fitting.Range
	if cmd.Flags().Changed("z-min") || cmd.Flags().Changed("z-max") {
		m, err := bls.NewMembrane(g, q)
		if err != nil {
			return err
		}
		r = fitting.DefaultRange(m, cfg.Fit.ZMinFactor)
		if cmd.Flags().Changed("z-min") {
			r.Lo = rangeLoNM * 1e-9
		}
		if cmd.Flags().Changed("z-max") {
			r.Hi = rangeHiNM * 1e-9
		}
	}

	db, err := openSurrogates(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("fitting surrogate for %s at Q=%.4g nC/cm2...\n", g, q*1e5)
	fitter := fitting.New(pressure.NewDirectIntegrator(cfg.Quadrature.Nodes), cfg.Fit, logging.Logger)
	params, rep, err := fitter.Fit(ctx, g, q, r)
	if err != nil {
		return err
	}
	if err := db.Put(g, *params, rep); err != nil {
		return err
	}

	fmt.Println(report().Fit(*params, rep, cfg.Fit.MinRSquared))
	return nil
}

func newExperiment(cfg *config.Config, db *storage.SurrogateDB) (*experiment.Experiment, error) {
	ecfg, err := experiment.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return experiment.New(ecfg, experiment.NewRegistry(), db, logging.Logger)
}

func saveRun(st *storage.Store, exp *experiment.Experiment, run *experiment.RunResult) (string, error) {
	m, err := exp.Membrane()
	if err != nil {
		return "", err
	}
	ecfg := exp.Config()
	meta := storage.RunMetadata{
		Mode:       run.Mode.String(),
		Geometry:   m.Geometry,
		Charge:     m.Charge,
		Gap:        m.Gap,
		Drive:      ecfg.Drive,
		Dt:         ecfg.Dt(),
		Duration:   ecfg.Duration(),
		Integrator: ecfg.Integrator,
		RelTol:     ecfg.RelTol,
		Elapsed:    run.Elapsed,
		Steps:      run.Result.StepsTaken,
		Rejected:   run.Result.Rejected,
		Columns:    []string{"velocity", "deflection", "gas"},
	}
	if run.Model != nil {
		p := run.Model.Parameters()
		meta.Surrogate = &p
	}
	return st.Save(meta, run.Result)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := cfg.Mode()
	if err != nil {
		return err
	}

	db, err := openSurrogates(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	exp, err := newExperiment(cfg, db)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if m == pressure.Predicted {
		if _, _, err := exp.Surrogate(ctx); err != nil {
			return err
		}
	}

	fmt.Printf("running %s simulation (%s, %s)...\n", m, exp.Config().Geometry, cfg.Drive)
	run, err := exp.Run(ctx, m)
	if err != nil {
		return err
	}
	fmt.Println(report().Run(run))

	if !noSave {
		st := storage.New(cfg.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := saveRun(st, exp, run)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

func compareModes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := openSurrogates(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	exp, err := newExperiment(cfg, db)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("comparing modes (%s, %s)...\n", exp.Config().Geometry, cfg.Drive)
	cmp, err := exp.Compare(ctx)
	if err != nil {
		return err
	}

	r := report()
	if cmp.FitReport != nil {
		fmt.Println(r.Fit(cmp.Predicted.Model.Parameters(), *cmp.FitReport, cfg.Fit.MinRSquared))
	}
	fmt.Println(r.Comparison(cmp))

	opts := viz.DefaultPlotOptions("deflection (nm): direct vs predicted")
	opts.Scale = 1e9
	fmt.Println(viz.Overlay(cmp.Direct.Deflection(), cmp.Predicted.Deflection(), opts))

	if !noSave {
		st := storage.New(cfg.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		for _, run := range []*experiment.RunResult{cmp.Direct, cmp.Predicted} {
			runID, err := saveRun(st, exp, run)
			if err != nil {
				return err
			}
			fmt.Printf("%s run id: %s\n", run.Mode, runID)
		}
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	scenario, err := experiment.LoadScenario(args[0])
	if err != nil {
		return err
	}

	db, err := openSurrogates(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario: %s\n", scenario.Name)
	if scenario.Description != "" {
		fmt.Printf("%s\n", scenario.Description)
	}
	results, err := experiment.RunScenario(ctx, scenario, cfg, experiment.NewRegistry(), db, logging.Logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CASE\tMODE\tPEAK(nm)\tMIN(nm)\tRMSE(nm)\tR2\tSPEEDUP")
	for _, cr := range results {
		switch {
		case cr.Comparison != nil:
			c := cr.Comparison
			fmt.Fprintf(w, "%s\tcompare\t%.4g\t%.4g\t%.3g\t%.6f\t%.1fx\n",
				cr.Case.Name,
				c.Direct.Result.Metrics["peak_deflection"]*1e9,
				c.Direct.Result.Metrics["min_deflection"]*1e9,
				c.Accuracy.RMSE*1e9,
				c.Accuracy.RSquared,
				c.SpeedRatio)
		case cr.Run != nil:
			fmt.Fprintf(w, "%s\t%s\t%.4g\t%.4g\t-\t-\t-\n",
				cr.Case.Name,
				cr.Run.Mode,
				cr.Run.Result.Metrics["peak_deflection"]*1e9,
				cr.Run.Result.Metrics["min_deflection"]*1e9)
		}
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(resolveDataDir())
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODE\tTIME\tRADIUS\tDRIVE\tSTEPS\tWALL")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4gnm\t%s\t%d\t%v\n",
			run.ID,
			run.Mode,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Geometry.Radius*1e9,
			run.Drive,
			run.Steps,
			run.Elapsed.Round(time.Millisecond),
		)
	}

	return w.Flush()
}

var stateCaptions = map[int]string{
	physics.IdxVelocity:   "velocity (m/s)",
	physics.IdxDeflection: "deflection (nm)",
	physics.IdxGas:        "gas content (amol)",
}

var stateScales = map[int]float64{
	physics.IdxVelocity:   1,
	physics.IdxDeflection: 1e9,
	physics.IdxGas:        1e18,
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(resolveDataDir())
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(runID, stateIdx)
	if err != nil {
		return err
	}
	if tr.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("mode: %s\n", meta.Mode)
	fmt.Printf("samples: %d\n\n", tr.Len())

	opts := viz.DefaultPlotOptions(fmt.Sprintf("x%d vs sample", stateIdx))
	if caption, ok := stateCaptions[stateIdx]; ok {
		opts.Caption = caption
		opts.Scale = stateScales[stateIdx]
	}
	fmt.Println(viz.Plot(tr, opts))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(resolveDataDir())
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(runID, physics.IdxDeflection)
	if err != nil {
		return err
	}

	f0, err := analysis.DominantFrequency(tr)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("mode: %s\n\n", meta.Mode)

	opts := viz.DefaultPlotOptions("power spectrum (deflection)")
	opts.Height = 15
	fmt.Println(viz.Spectrum(analysis.PowerSpectrum(tr.Values), opts))
	fmt.Println()

	fmt.Printf("dominant frequency: %.4g kHz (drive %.4g kHz)\n", f0*1e-3, meta.Drive.Frequency*1e-3)
	harmonics, err := analysis.Harmonics(tr, meta.Drive.Frequency, 4)
	if err != nil {
		return err
	}
	for i, h := range harmonics {
		fmt.Printf("  harmonic %d: %.4g\n", i+1, h)
	}

	if meta.Drive.Frequency > 0 {
		strobe := analysis.Stroboscopic(tr, meta.Drive.Period())
		if len(strobe) > 0 {
			fmt.Printf("\nstroboscopic deflection (nm):")
			for _, z := range strobe {
				fmt.Printf(" %.4g", z*1e9)
			}
			fmt.Println()
		}
	}
	if v, ok := meta.Metrics["cycle_drift"]; ok {
		fmt.Printf("cycle drift: %.3g%%\n", v*100)
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(resolveDataDir())
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	res, err := st.LoadResult(runID)
	if err != nil {
		return err
	}
	if len(res.States) == 0 {
		return fmt.Errorf("no data to plot")
	}
	if len(res.States[0]) <= xAxis || len(res.States[0]) <= yAxis {
		return fmt.Errorf("state dimension too small for selected axes")
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("x-axis: x%d, y-axis: x%d\n\n", xAxis, yAxis)
	fmt.Println(analysis.NewPhasePortrait(res, xAxis, yAxis).ASCII(80, 24))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(resolveDataDir())
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	res, err := st.LoadResult(runID)
	if err != nil {
		return err
	}
	return storage.WriteCSV(os.Stdout, res, meta.Columns)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(resolveDataDir())
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	res, err := st.LoadResult(runID)
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, res)
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println("presets:")
	for _, name := range config.ListPresets() {
		c := config.GetPreset(name)
		fmt.Printf("  %-16s radius %.4g nm, %s, %d cycles\n",
			name, c.Geometry.Radius*1e9, c.Drive, c.Simulation.Cycles)
	}

	fmt.Println("\nneurons:")
	for _, name := range config.ListNeurons() {
		n, _ := config.GetNeuron(name)
		fmt.Printf("  %-4s %-32s Cm0 %.3g uF/cm2, Vm0 %.4g mV, Q %.4g nC/cm2\n",
			n.Name, n.Description, n.RestCapacitance*1e2, n.RestPotential*1e3, n.RestCharge()*1e5)
	}
	return nil
}

func listSurrogates(cmd *cobra.Command, args []string) error {
	if remove {
		return deleteSurrogate(cmd)
	}
	path := filepath.Join(resolveDataDir(), "surrogates.db")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Println("no surrogates found")
		return nil
	}

	db, err := storage.OpenSurrogateDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	recs, err := db.List()
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("no surrogates found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RADIUS\tCM0\tQ(nC/cm2)\tPARAMETERS\tR2\tFITTED")
	for _, rec := range recs {
		fmt.Fprintf(w, "%.4gnm\t%.3guF/cm2\t%.4g\t%s\t%.6f\t%s\n",
			rec.Radius*1e9,
			rec.RestCapacitance*1e2,
			rec.Charge*1e5,
			rec.Parameters,
			rec.RSquared,
			rec.CreatedAt)
	}
	logging.Debug("listed surrogates", zap.Int("count", len(recs)))
	return w.Flush()
}

func deleteSurrogate(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	g, err := cfg.ResolveGeometry()
	if err != nil {
		return err
	}
	q := g.RestCharge
	if cmd.Flags().Changed("charge") {
		q = chargeNC * 1e-5
	}

	db, err := openSurrogates(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	found, err := db.Delete(g, q)
	if err != nil {
		return err
	}
	if !found {
		return &pressure.MissingSurrogateError{Geometry: g, Charge: q}
	}
	logging.Info("surrogate deleted", zap.Stringer("geometry", g), zap.Float64("charge", q))
	fmt.Printf("deleted surrogate for %s at %.4g nC/cm2\n", g, q*1e5)
	return nil
}
