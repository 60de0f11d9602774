// Package storage persists solve runs to disk: a metadata.json record
// per run plus a trajectory.csv of every accepted (t, x) pair, in the
// same directory-per-run layout the teacher's storage package uses.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jangwj7/dae-cpp/internal/dae"
)

// Store owns a base directory under which every run gets its own
// subdirectory.
type Store struct {
	baseDir string
}

// New returns a store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Init creates the base directory if it does not already exist.
func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata is the JSON record saved alongside a run's trajectory.
type RunMetadata struct {
	ID        string       `json:"id"`
	Problem   string       `json:"problem"`
	Timestamp time.Time    `json:"timestamp"`
	T1        float64      `json:"t1"`
	Solver    dae.Config   `json:"solver"`
	Counters  dae.Counters `json:"counters"`
}

// Recorder is a dae.Observer that buffers every accepted (t, x) pair in
// memory for Save to flush to disk; constructing one and passing it as
// the observer argument to bdf.Solve is how a caller captures a full
// trajectory instead of only the final state.
type Recorder struct {
	Times  []float64
	States []dae.State
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// OnAccept implements dae.Observer.
func (r *Recorder) OnAccept(x dae.State, t float64) {
	r.Times = append(r.Times, t)
	r.States = append(r.States, x.Clone())
}

// Save writes metadata.json and trajectory.csv for one run and returns
// the generated run ID.
func (s *Store) Save(problem string, t1 float64, solverCfg dae.Config, result dae.Result, rec *Recorder) (string, error) {
	runID := fmt.Sprintf("%s_%d", problem, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Problem:   problem,
		Timestamp: time.Now(),
		T1:        t1,
		Solver:    solverCfg,
		Counters:  result.Counters,
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if rec == nil || len(rec.States) == 0 {
		return runID, nil
	}

	csvPath := filepath.Join(runDir, "trajectory.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := []string{"time"}
	for i := range rec.States[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i, x := range rec.States {
		row := []string{strconv.FormatFloat(rec.Times[i], 'g', -1, 64)}
		for _, v := range x {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// List returns the metadata of every run currently in the store.
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
		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

// Load reads back one run's metadata.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTrajectory reads back one run's recorded (t, x) pairs.
func (s *Store) LoadTrajectory(runID string) ([]float64, []dae.State, error) {
	csvPath := filepath.Join(s.baseDir, runID, "trajectory.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []float64{}, []dae.State{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([]dae.State, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)

		state := make(dae.State, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue
			}
			state = append(state, v)
		}
		states = append(states, state)
	}
	return times, states, nil
}
