package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/matsu911/Serum/internal/model"
)

type Config struct {
	SiteTitle      string `mapstructure:"siteTitle"`
	SourceDir      string `mapstructure:"sourceDir"`
	OutputDir      string `mapstructure:"outputDir"`
	BaseURL        string `mapstructure:"baseURL"`
	TemplateSuffix string `mapstructure:"templateSuffix"`
	Workers        int    `mapstructure:"workers"`
	Metrics        bool   `mapstructure:"metrics"`
}

// Validate reports the first setting a build cannot run with.
func (c Config) Validate() error {
	switch {
	case c.SourceDir == "":
		return errors.New("sourceDir must not be empty")
	case c.OutputDir == "":
		return errors.New("outputDir must not be empty")
	case !strings.HasSuffix(c.BaseURL, "/"):
		return fmt.Errorf("baseURL %q must end with \"/\"", c.BaseURL)
	case !strings.HasPrefix(c.TemplateSuffix, "."):
		return fmt.Errorf("templateSuffix %q must start with \".\"", c.TemplateSuffix)
	case c.Workers < 1:
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// ProjectInfo returns the project settings the build reads.
func (c Config) ProjectInfo() model.ProjectInfo {
	return model.ProjectInfo{Title: c.SiteTitle, BaseURL: c.BaseURL}
}

// LoadSiteParams reads the raw config file so templates can reach any key
// under .Site.Config with its original case. An empty filename yields an
// empty map.
func LoadSiteParams(filename string) (map[string]interface{}, error) {
	params := map[string]interface{}{}
	if filename == "" {
		return params, nil
	}
	yamlFile, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(yamlFile, &params); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", filename, err)
	}
	return params, nil
}
