package domain

import (
	"errors"
	"fmt"
)

type ConfigValidator struct{}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

func (v *ConfigValidator) ValidateOptions(opts *RunOptions) error {
	if opts.ConfigPath == "" {
		return errors.New("config path cannot be empty (set INPUT or --config)")
	}

	switch opts.Format {
	case FormatRaw, FormatJSON, FormatTUI:
	default:
		return fmt.Errorf("unknown output format %q", opts.Format)
	}

	switch opts.Verbosity {
	case VerbositySilent, VerbosityNormal, VerbosityVerbose:
	default:
		return fmt.Errorf("unknown verbosity %q", opts.Verbosity)
	}

	return nil
}

func (v *ConfigValidator) Validate(cfg *TestConfig) error {
	if cfg.TestName == "" {
		return errors.New("testName cannot be empty")
	}

	if cfg.ReportFile == "" {
		return errors.New("reportFile cannot be empty")
	}

	if cfg.Directory == "" {
		return errors.New("directory cannot be empty")
	}

	if len(cfg.Phases) == 0 {
		return errors.New("tests must define at least one phase")
	}

	seen := make(map[string]struct{}, len(cfg.Phases))
	for _, p := range cfg.Phases {
		if p.Name == "" {
			return errors.New("phase name cannot be empty")
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("phase %q is defined more than once", p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.Command == "" {
			return fmt.Errorf("phase %q has an empty command", p.Name)
		}
	}

	if _, err := NewSelector(cfg.Policy); err != nil {
		return err
	}

	return nil
}
