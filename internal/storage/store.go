package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	bodiesFile   = "bodies.csv"
)

var bodiesHeader = []string{"m", "qx", "qy", "qz", "vx", "vy", "vz"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Backend    string             `json:"backend"`
	Scheme     string             `json:"scheme"`
	Seed       uint64             `json:"seed"`
	Bodies     int                `json:"bodies"`
	Padding    int                `json:"padding"`
	Iterations int                `json:"iterations"`
	G          float32            `json:"g"`
	Soft       float32            `json:"soft"`
	Dt         float32            `json:"dt"`
	Elapsed    float64            `json:"elapsed_seconds"`
	FPS        float64            `json:"fps"`
	Gflops     float64            `json:"gflops"`
	Metrics    map[string]float64 `json:"metrics"`

	// DriftIterations and Drift hold the sampled energy drift series.
	DriftIterations []int     `json:"drift_iterations,omitempty"`
	Drift           []float64 `json:"drift,omitempty"`
}

// NewMetadata describes a finished run. ID and Timestamp are assigned by
// Save.
func NewMetadata(cfg sim.Config, result *sim.Result) RunMetadata {
	return RunMetadata{
		Backend:    result.Backend,
		Scheme:     cfg.Scheme,
		Seed:       cfg.Seed,
		Bodies:     cfg.Bodies,
		Padding:    cfg.Padding,
		Iterations: result.Iterations,
		G:          cfg.Params.G,
		Soft:       cfg.Params.Soft,
		Dt:         cfg.Params.Dt,
		Elapsed:    result.Elapsed.Seconds(),
		FPS:        result.FPS,
		Gflops:     result.Gflops,
		Metrics:    result.Metrics,
	}
}

// Params returns the physical constants the run used.
func (m *RunMetadata) Params() dynamo.Params {
	return dynamo.Params{G: m.G, Soft: m.Soft, Dt: m.Dt}
}

// Save writes a new run directory holding meta and the real bodies of
// final, and returns the run id.
func (s *Store) Save(meta RunMetadata, final *body.Store) (string, error) {
	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now()
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), &meta); err != nil {
		return "", err
	}
	if final != nil {
		if err := writeBodies(filepath.Join(runDir, bodiesFile), final); err != nil {
			return "", err
		}
	}
	return meta.ID, nil
}

func writeMetadata(path string, meta *RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeBodies(path string, st *body.Store) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(bodiesHeader); err != nil {
		return err
	}

	row := make([]string, len(bodiesHeader))
	for i := 0; i < st.N(); i++ {
		b := st.Get(i)
		for k, v := range []float32{b.M, b.QX, b.QY, b.QZ, b.VX, b.VY, b.VZ} {
			row[k] = strconv.FormatFloat(float64(v), 'g', -1, 32)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
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

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadBodies reads the final body state of a run into an unpadded store.
func (s *Store) LoadBodies(runID string) (*body.Store, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, bodiesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(bodiesHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("run %s: no bodies recorded", runID)
	}

	st, err := body.New(len(records)-1, 0)
	if err != nil {
		return nil, err
	}

	var vals [7]float32
	for i, record := range records[1:] {
		for k, field := range record {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("run %s: body %d column %s: %w", runID, i, bodiesHeader[k], err)
			}
			vals[k] = float32(v)
		}
		st.Set(i, body.Body{
			M:  vals[0],
			QX: vals[1], QY: vals[2], QZ: vals[3],
			VX: vals[4], VY: vals[5], VZ: vals[6],
		})
	}
	return st, nil
}
