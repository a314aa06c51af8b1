package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

var log = logrus.WithField("component", "storage")

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
	timeColumn   = "time"
	inputPrefix  = "u"
)

type Store struct {
	fs      afero.Fs
	baseDir string
}

// New returns a store rooted at baseDir on the OS filesystem.
func New(baseDir string) *Store {
	return NewWithFs(afero.NewOsFs(), baseDir)
}

func NewWithFs(fs afero.Fs, baseDir string) *Store {
	return &Store{fs: fs, baseDir: baseDir}
}

func (s *Store) Init() error {
	return s.fs.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name,omitempty"`
	Model      string             `json:"model"`
	Version    string             `json:"version,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Controller string             `json:"controller"`
	StateNames []string           `json:"state_names"`
	Steps      int                `json:"steps"`
	Params     map[string]float64 `json:"params,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// MetadataFor describes a run of cfg.
func MetadataFor(cfg *config.Config) RunMetadata {
	meta := RunMetadata{
		Model:      cfg.Model,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Controller: cfg.Controller,
		Params:     cfg.GetControllerParams(),
	}
	if cfg.Model == config.ModelDiffDrive {
		meta.Version = cfg.DiffDrive.Version
	}
	return meta
}

// Save writes meta and the trajectory under a new run directory and
// returns the run ID. ID, timestamp, state names and step count are filled
// in from the result.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%s", meta.Model, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := s.fs.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.StateNames = result.Names
	meta.Steps = result.StepsTaken
	meta.Metrics = result.Metrics

	if err := s.writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := s.writeStates(filepath.Join(runDir, statesFile), result); err != nil {
		return "", err
	}

	log.WithFields(logrus.Fields{"run": runID, "steps": meta.Steps}).Info("saved run")
	return runID, nil
}

func (s *Store) writeMetadata(path string, meta RunMetadata) error {
	f, err := s.fs.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func (s *Store) writeStates(path string, result *sim.Result) error {
	f, err := s.fs.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if len(result.States) == 0 {
		w.Flush()
		return w.Error()
	}

	header := append([]string{timeColumn}, result.Names...)

	numInputs := 0
	if len(result.Inputs) > 0 {
		numInputs = len(result.Inputs[0])
		for i := 0; i < numInputs; i++ {
			header = append(header, fmt.Sprintf("%s%d", inputPrefix, i))
		}
	}

	if err := w.Write(header); err != nil {
		return err
	}

	for i := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'f', 6, 64)}

		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}

		// the final state has no input applied after it
		if i < len(result.Inputs) {
			for _, val := range result.Inputs[i] {
				row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
			}
		} else {
			for j := 0; j < numInputs; j++ {
				row = append(row, "0")
			}
		}

		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns the metadata of every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := afero.ReadDir(s.fs, s.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
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
			log.WithError(err).WithField("run", entry.Name()).Debug("skipping run")
			continue
		}

		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := afero.ReadFile(s.fs, filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse %s metadata: %w", runID, err)
	}

	return &meta, nil
}

// LoadResult reads a saved trajectory back into a result. Metrics come
// from the run metadata when it is readable.
func (s *Store) LoadResult(runID string) (*sim.Result, error) {
	file, err := s.fs.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	result := &sim.Result{
		States:  [][]float64{},
		Inputs:  [][]float64{},
		Times:   []float64{},
		Metrics: map[string]float64{},
	}
	if meta, err := s.Load(runID); err == nil && meta.Metrics != nil {
		result.Metrics = meta.Metrics
	}

	if len(records) < 2 {
		return result, nil
	}

	header := records[0]
	numStates := 0
	for _, col := range header[1:] {
		if isInputColumn(col) {
			break
		}
		numStates++
	}
	result.Names = append([]string(nil), header[1:1+numStates]...)
	numInputs := len(header) - 1 - numStates

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) != len(header) {
			return nil, fmt.Errorf("%s row %d: %d fields, want %d", statesFile, i, len(record), len(header))
		}

		vals := make([]float64, len(record))
		for j, field := range record {
			if vals[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("%s row %d: %w", statesFile, i, err)
			}
		}

		result.Times = append(result.Times, vals[0])
		result.States = append(result.States, vals[1:1+numStates])
		if numInputs > 0 && i < len(records)-1 {
			result.Inputs = append(result.Inputs, vals[1+numStates:])
		}
	}
	result.StepsTaken = len(result.States) - 1

	return result, nil
}

// LoadStates returns the state rows and their times.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	res, err := s.LoadResult(runID)
	if err != nil {
		return nil, nil, err
	}
	return res.States, res.Times, nil
}

// Delete removes a run directory.
func (s *Store) Delete(runID string) error {
	dir := filepath.Join(s.baseDir, runID)
	if _, err := s.fs.Stat(dir); err != nil {
		return err
	}
	return s.fs.RemoveAll(dir)
}

func isInputColumn(name string) bool {
	rest, ok := strings.CutPrefix(name, inputPrefix)
	if !ok || rest == "" {
		return false
	}
	_, err := strconv.Atoi(rest)
	return err == nil
}
