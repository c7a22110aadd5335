package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/msaeedsaeedi/perfrun/internal/domain"
)

// EnvConfigPath names the environment variable holding the config path.
const EnvConfigPath = "INPUT"

var ErrConfigNotFound = errors.New("configuration file not found")

// ParseError wraps a decode failure of the configuration file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// File mirrors the on-disk configuration.
type File struct {
	TestName     string  `json:"testName" yaml:"testName"`
	ZinggScript  string  `json:"zinggScript" yaml:"zinggScript"`
	PropertyFile string  `json:"propertyFile" yaml:"propertyFile"`
	ReportFile   string  `json:"reportFile" yaml:"reportFile"`
	Directory    string  `json:"directory" yaml:"directory"`
	Setup        *string `json:"setup" yaml:"setup"`
	Teardown     *string `json:"teardown" yaml:"teardown"`
	Tests        Tests   `json:"tests" yaml:"tests"`

	Policy               string            `json:"policy,omitempty" yaml:"policy,omitempty"`
	PerformanceThreshold *float64          `json:"performanceThreshold,omitempty" yaml:"performanceThreshold,omitempty"`
	WindowThreshold      *float64          `json:"windowThreshold,omitempty" yaml:"windowThreshold,omitempty"`
	WindowPhases         []string          `json:"windowPhases,omitempty" yaml:"windowPhases,omitempty"`
	EnvFile              string            `json:"envFile,omitempty" yaml:"envFile,omitempty"`
	Env                  map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// Read decodes the configuration at path. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &f, nil
}

// Load reads the configuration at path and turns it into a TestConfig:
// templates substituted, directory made absolute, env file merged.
func Load(path string) (*domain.TestConfig, error) {
	f, err := Read(path)
	if err != nil {
		return nil, err
	}
	return f.Build()
}

func (f *File) Build() (*domain.TestConfig, error) {
	if f.Directory == "" {
		return nil, errors.New("directory cannot be empty")
	}
	absDir, err := filepath.Abs(f.Directory)
	if err != nil {
		return nil, fmt.Errorf("resolve directory %q: %w", f.Directory, err)
	}

	cfg := &domain.TestConfig{
		TestName:     f.TestName,
		Script:       f.ZinggScript,
		PropertyFile: f.PropertyFile,
		ReportFile:   f.ReportFile,
		Directory:    absDir,
		Setup:        deref(f.Setup),
		Teardown:     deref(f.Teardown),
		Policy: domain.PolicySettings{
			Mode:                 domain.PolicyMode(f.Policy),
			PerformanceThreshold: f.PerformanceThreshold,
			WindowThreshold:      f.WindowThreshold,
			WindowPhases:         f.WindowPhases,
		},
		Env: make(map[string]string),
	}

	builder := domain.NewCommandBuilder(f.ZinggScript, f.PropertyFile)
	for _, t := range f.Tests {
		cmd, err := builder.Build(t.Name, t.Template)
		if err != nil {
			return nil, err
		}
		cfg.Phases = append(cfg.Phases, domain.Phase{Name: t.Name, Command: cmd})
	}

	if f.EnvFile != "" {
		envPath := f.EnvFile
		if !filepath.IsAbs(envPath) {
			envPath = filepath.Join(absDir, envPath)
		}
		values, err := godotenv.Read(envPath)
		if err != nil {
			return nil, fmt.Errorf("read env file: %w", err)
		}
		for k, v := range values {
			cfg.Env[k] = v
		}
	}
	for k, v := range f.Env {
		cfg.Env[k] = v
	}

	return cfg, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
