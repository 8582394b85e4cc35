package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/blsim/internal/bls"
	"github.com/san-kum/blsim/internal/dynamo"
	"github.com/san-kum/blsim/internal/physics"
	"github.com/san-kum/blsim/internal/pressure"
)

var ErrRunNotFound = errors.New("storage: run not found")

// Store keeps one directory per run holding metadata.json and states.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID         string             `json:"id"`
	Mode       string             `json:"mode"`
	Timestamp  time.Time          `json:"timestamp"`
	Geometry   bls.Geometry       `json:"geometry"`
	Charge     float64            `json:"charge"`
	Gap        float64            `json:"gap"`
	Drive      physics.Drive      `json:"drive"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	RelTol     float64            `json:"rel_tol"`
	Elapsed    time.Duration      `json:"elapsed"`
	Steps      int                `json:"steps"`
	Rejected   int                `json:"rejected"`
	Columns    []string           `json:"columns,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
	// Surrogate is set for predicted runs.
	Surrogate *pressure.Parameters `json:"surrogate,omitempty"`
}

// NewRunID returns "<mode>_<first 8 hex digits of a random UUID>".
func NewRunID(mode string) string {
	return fmt.Sprintf("%s_%s", mode, uuid.NewString()[:8])
}

// Save writes meta and the recorded states. An empty meta.ID is assigned.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	if meta.ID == "" {
		meta.ID = NewRunID(meta.Mode)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Metrics = finiteMetrics(result.Metrics)
	if meta.Steps == 0 {
		meta.Steps = result.StepsTaken
	}
	if meta.Rejected == 0 {
		meta.Rejected = result.Rejected
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, result, meta.Columns); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List returns all readable runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadResult reads back the recorded states and controls of a run.
func (s *Store) LoadResult(runID string) (*dynamo.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}

	res := &dynamo.Result{Metrics: meta.Metrics, StepsTaken: meta.Steps, Rejected: meta.Rejected}
	if len(records) < 2 {
		return res, nil
	}

	header := records[0]
	nState := len(header) - 1
	for _, name := range header {
		if isControlColumn(name) {
			nState--
		}
	}

	for i, record := range records[1:] {
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s row %d: %w", runID, i+1, err)
			}
			row[j] = v
		}
		res.Times = append(res.Times, row[0])
		res.States = append(res.States, dynamo.State(row[1:1+nState]))
		res.Controls = append(res.Controls, dynamo.Control(row[1+nState:]))
	}
	return res, nil
}

// LoadTrajectory reads state component idx of a run.
func (s *Store) LoadTrajectory(runID string, idx int) (dynamo.Trajectory, error) {
	res, err := s.LoadResult(runID)
	if err != nil {
		return dynamo.Trajectory{}, err
	}
	return res.Trajectory(idx), nil
}

func isControlColumn(name string) bool {
	if len(name) < 2 || name[0] != 'u' {
		return false
	}
	_, err := strconv.Atoi(name[1:])
	return err == nil
}
