// Package sweep enumerates the parameter combinations of an experiment and
// runs them on a bounded pool of actors, writing one result row per run.
package sweep

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/lao-tseu-is-alive/go-swarm-informed/pkg/simulation"
)

//go:embed sweep.schema.json
var schemaJSON string

// ErrInvalidConfig wraps every problem found while loading or resolving a sweep file.
var ErrInvalidConfig = errors.New("invalid sweep configuration")

// Config describes a sweep: the candidate values of every parameter whose
// cross product is run NumRuns times.
type Config struct {
	OutputCSV   string `json:"output_csv"`
	NumRuns     int    `json:"num_runs"`
	RunTime     int    `json:"run_time"`
	UseFeedback bool   `json:"use_feedback"`

	NValues  []int     `json:"N_values"`
	N1Values []int     `json:"n1_values"`
	N2Values []int     `json:"n2_values"`
	PValues  []float64 `json:"p_values"` // when set, n1 = floor(p*N) and n2 = 0

	Angle1DegValues []float64 `json:"angle1_deg_values"`
	Angle2DegValues []float64 `json:"angle2_deg_values"`

	// Optional
	WorldWidth  float64 `json:"world_width,omitempty"`
	WorldHeight float64 `json:"world_height,omitempty"`
	Seed        *int64  `json:"seed,omitempty"`
}

// FractionMode reports whether informed counts are derived from p_values
// rather than taken from n1_values x n2_values.
func (c *Config) FractionMode() bool {
	return len(c.PValues) > 0
}

// Validate checks the constraints the schema cannot express.
func (c *Config) Validate() error {
	if !c.FractionMode() && (len(c.N1Values) == 0 || len(c.N2Values) == 0) {
		return fmt.Errorf("%w: either p_values or both n1_values and n2_values must be given", ErrInvalidConfig)
	}
	if window := simulation.DefaultParams().MeasurementWindow; c.RunTime <= window {
		return fmt.Errorf("%w: run_time %d must exceed the measurement window of %d steps",
			ErrInvalidConfig, c.RunTime, window)
	}
	return nil
}

// LoadConfig reads a JSON, YAML or TOML sweep file, validates it against the JSON
// schema and decodes it. An empty schemaFile selects the embedded schema.
func LoadConfig(configFile string, schemaFile string) (*Config, error) {
	// 1. Compile Schema
	var (
		sch *jsonschema.Schema
		err error
	)
	if schemaFile == "" {
		sch, err = jsonschema.CompileString("sweep.schema.json", schemaJSON)
	} else {
		sch, err = jsonschema.Compile(schemaFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File, YAML and TOML are converted to JSON first
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".yaml", ".yml":
		if b, err = yamlToJSON(b); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, configFile, err)
		}
	case ".toml":
		if b, err = tomlToJSON(b); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, configFile, err)
		}
	}

	// 3. Validate
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", ErrInvalidConfig, configFile, err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, configFile, err)
	}

	// 4. Unmarshal into Struct
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal %s: %v", ErrInvalidConfig, configFile, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func yamlToJSON(b []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func tomlToJSON(b []byte) ([]byte, error) {
	doc := make(map[string]interface{})
	if err := toml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
