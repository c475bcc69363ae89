package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/jarsim/internal/config"
	"github.com/san-kum/jarsim/internal/dynamo"
	"github.com/san-kum/jarsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	configFile   = "config.yaml"
	framesFile   = "frames.csv"
)

// Store keeps finished runs under one base directory, one directory per run.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Dir() string { return s.baseDir }

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	FPS        float64            `json:"fps"`
	Duration   float64            `json:"duration"`
	TiltAt     []float64          `json:"tilt_at,omitempty"`
	Frames     int                `json:"frames"`
	SimTime    float64            `json:"sim_time"`
	WallMillis int64              `json:"wall_ms"`
	MaxLive    int                `json:"max_live"`
	Tilts      int                `json:"tilts"`
	Canceled   bool               `json:"canceled,omitempty"`
	Errors     []string           `json:"errors,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes the run's metadata, its config and the per-frame samples.
func (s *Store) Save(preset string, cfg *config.Config, rc sim.RunConfig, result *sim.Result) (string, error) {
	if preset == "" {
		preset = "custom"
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d_%s", preset, result.Seed, now.Format("20060102-150405.000000"))
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("creating run dir: %w", err)
	}

	meta := RunMetadata{
		ID:         runID,
		Preset:     preset,
		Timestamp:  now,
		Seed:       result.Seed,
		FPS:        rc.FPS,
		Duration:   rc.Duration,
		TiltAt:     rc.TiltAt,
		Frames:     result.Frames,
		SimTime:    result.SimTime,
		WallMillis: result.Wall.Milliseconds(),
		MaxLive:    result.MaxLive,
		Tilts:      result.Tilts,
		Canceled:   result.Canceled,
		Metrics:    result.Metrics,
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, metadataFile), data, 0644); err != nil {
		return "", fmt.Errorf("writing metadata: %w", err)
	}

	if cfg != nil {
		if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
			return "", fmt.Errorf("writing config: %w", err)
		}
	}

	f, err := os.Create(filepath.Join(runDir, framesFile))
	if err != nil {
		return "", fmt.Errorf("creating frames.csv: %w", err)
	}
	defer f.Close()

	if len(result.Samples) == 0 {
		return runID, nil
	}
	if err := gocsv.Marshal(result.Samples, f); err != nil {
		return "", fmt.Errorf("writing frames: %w", err)
	}
	return runID, nil
}

// List returns every readable run, newest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) runDir(runID string) (string, error) {
	if runID == "" || filepath.Base(runID) != runID {
		return "", fmt.Errorf("%w: %q", dynamo.ErrRunNotFound, runID)
	}
	dir := filepath.Join(s.baseDir, runID)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", dynamo.ErrRunNotFound, runID)
		}
		return "", err
	}
	return dir, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return &meta, nil
}

// LoadConfig reads back the config a run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	return config.Load(filepath.Join(dir, configFile))
}

func (s *Store) LoadFrames(runID string) ([]dynamo.Sample, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(dir, framesFile))
	if err != nil {
		return nil, fmt.Errorf("opening frames.csv: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return []dynamo.Sample{}, nil
	}

	var frames []dynamo.Sample
	if err := gocsv.UnmarshalFile(f, &frames); err != nil {
		return nil, fmt.Errorf("reading frames: %w", err)
	}
	return frames, nil
}
