// Package config loads officekit settings from officekit.yaml, OFFICEKIT_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tsawler/officekit/tables"
)

// EnvPrefix prefixes environment overrides, e.g. OFFICEKIT_OCR_DPI.
const EnvPrefix = "OFFICEKIT"

// FileName is the config file name without extension.
const FileName = "officekit"

// Config is the resolved configuration.
type Config struct {
	Soffice   SofficeConfig   `mapstructure:"soffice"`
	Poppler   PopplerConfig   `mapstructure:"poppler"`
	Pandoc    PandocConfig    `mapstructure:"pandoc"`
	OCR       OCRConfig       `mapstructure:"ocr"`
	Outputs   OutputsConfig   `mapstructure:"outputs"`
	Recalc    RecalcConfig    `mapstructure:"recalc"`
	Thumbnail ThumbnailConfig `mapstructure:"thumbnail"`
	Render    RenderConfig    `mapstructure:"render"`
	Tables    TablesConfig    `mapstructure:"tables"`
}

type SofficeConfig struct {
	Binary  string        `mapstructure:"binary"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PopplerConfig struct {
	Pdftotext string `mapstructure:"pdftotext"`
	Pdftoppm  string `mapstructure:"pdftoppm"`
}

type PandocConfig struct {
	Binary string `mapstructure:"binary"`
}

type OCRConfig struct {
	Language string `mapstructure:"language"`
	DPI      int    `mapstructure:"dpi"`
	PSM      int    `mapstructure:"psm"`
}

type OutputsConfig struct {
	Root string `mapstructure:"root"`
}

type RecalcConfig struct {
	MaxLocations int `mapstructure:"max_locations"`
}

type ThumbnailConfig struct {
	Columns int `mapstructure:"columns"`
	Width   int `mapstructure:"width"`
}

type RenderConfig struct {
	ViewportWidth  int `mapstructure:"viewport_width"`
	ViewportHeight int `mapstructure:"viewport_height"`
}

// TablesConfig selects and tunes the PDF table detector.
type TablesConfig struct {
	Detector           string  `mapstructure:"detector"`
	MinRows            int     `mapstructure:"min_rows"`
	MinCols            int     `mapstructure:"min_cols"`
	MinConfidence      float64 `mapstructure:"min_confidence"`
	LineOverlap        float64 `mapstructure:"line_overlap"`
	AlignmentTolerance float64 `mapstructure:"alignment_tolerance"`
	MinColumnGap       float64 `mapstructure:"min_column_gap"`
	MaxLineGap         float64 `mapstructure:"max_line_gap"`
}

// Thresholds returns the detector thresholds.
func (t TablesConfig) Thresholds() tables.Config {
	return tables.Config{
		MinRows:            t.MinRows,
		MinCols:            t.MinCols,
		MinConfidence:      t.MinConfidence,
		LineOverlap:        t.LineOverlap,
		AlignmentTolerance: t.AlignmentTolerance,
		MinColumnGap:       t.MinColumnGap,
		MaxLineGap:         t.MaxLineGap,
	}
}

// NewDetector creates the configured detector with its thresholds applied.
func (t TablesConfig) NewDetector() (tables.Detector, error) {
	return tables.NewDetector(t.Detector, t.Thresholds())
}

// defaults mirrors the package defaults of the workflows.
var defaults = map[string]any{
	"soffice.binary":         "",
	"soffice.timeout":        "30s",
	"poppler.pdftotext":      "",
	"poppler.pdftoppm":       "",
	"pandoc.binary":          "",
	"ocr.language":           "eng",
	"ocr.dpi":                300,
	"ocr.psm":                3,
	"outputs.root":           "outputs",
	"recalc.max_locations":   20,
	"thumbnail.columns":      5,
	"thumbnail.width":        300,
	"render.viewport_width":  1280,
	"render.viewport_height": 720,

	"tables.detector":            "geometric",
	"tables.min_rows":            2,
	"tables.min_cols":            2,
	"tables.min_confidence":      0.5,
	"tables.line_overlap":        0.5,
	"tables.alignment_tolerance": 3.0,
	"tables.min_column_gap":      8.0,
	"tables.max_line_gap":        18.0,
}

// Keys returns every configuration key.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	return keys
}

// New returns a viper instance seeded with defaults and wired to the
// environment. file names an explicit config file; when empty,
// officekit.yaml is searched in the working directory and in
// ~/.config/officekit. A missing search-path file is not an error.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// Load decodes v into a Config.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values no workflow can use.
func (c *Config) Validate() error {
	var errs []error
	if c.Soffice.Timeout < 0 {
		errs = append(errs, fmt.Errorf("soffice.timeout must not be negative"))
	}
	if c.OCR.DPI < 0 {
		errs = append(errs, fmt.Errorf("ocr.dpi must not be negative"))
	}
	if c.OCR.PSM < 0 || c.OCR.PSM > 13 {
		errs = append(errs, fmt.Errorf("ocr.psm must be between 0 and 13, got %d", c.OCR.PSM))
	}
	if c.Thumbnail.Columns < 0 || c.Thumbnail.Width < 0 {
		errs = append(errs, fmt.Errorf("thumbnail.columns and thumbnail.width must not be negative"))
	}
	if c.Tables.MinRows < 1 || c.Tables.MinCols < 1 {
		errs = append(errs, fmt.Errorf("tables.min_rows and tables.min_cols must be positive"))
	}
	if c.Tables.MinConfidence < 0 || c.Tables.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("tables.min_confidence must be between 0 and 1, got %v", c.Tables.MinConfidence))
	}
	if c.Outputs.Root == "" {
		errs = append(errs, fmt.Errorf("outputs.root must not be empty"))
	}
	return errors.Join(errs...)
}

// Binaries returns the tool binary overrides for office.Config.
func (c *Config) Binaries() map[string]string {
	bins := map[string]string{
		"soffice":   c.Soffice.Binary,
		"pdftotext": c.Poppler.Pdftotext,
		"pdftoppm":  c.Poppler.Pdftoppm,
		"pandoc":    c.Pandoc.Binary,
	}
	for k, v := range bins {
		if v == "" {
			delete(bins, k)
		}
	}
	return bins
}
