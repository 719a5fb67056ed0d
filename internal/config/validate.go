package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Dataset entries are checked
// even when manifest mode will be used, so a broken config never survives to
// a later run that does rely on it.
func (c *Config) Validate() error {
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validatePhonemizer(); err != nil {
		return err
	}
	if err := c.validateDatasets(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.Path == "" {
		return errors.New("output.path must be set")
	}
	if c.Output.Workers <= 0 {
		return errors.New("output.workers must be positive")
	}
	return nil
}

func (c *Config) validatePhonemizer() error {
	if c.Phonemizer.Command == "" {
		return errors.New("phonemizer.command must be set")
	}
	if c.Phonemizer.TimeoutSeconds < 0 {
		return errors.New("phonemizer.timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateDatasets() error {
	for i := range c.Datasets {
		ds := &c.Datasets[i]
		if ds.Root == "" {
			return fmt.Errorf("datasets[%d].root must be set", i)
		}
		if ds.Source == "" {
			return fmt.Errorf("datasets[%d].source must be set", i)
		}
		if len(ds.Languages) == 0 {
			return fmt.Errorf("datasets[%d].languages must include at least one language", i)
		}
		if ds.Extension == "" {
			return fmt.Errorf("datasets[%d].extension must be set", i)
		}
		for _, level := range ds.GroupLevels {
			if level < 1 {
				return fmt.Errorf("datasets[%d].group_levels entries must be >= 1", i)
			}
		}
	}
	return nil
}
