// Package config loads and saves the display's yaml configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/example/rgbmatrix/internal/colormap"
	"github.com/example/rgbmatrix/internal/pinmap"
)

type Geometry struct {
	Rows     int `yaml:"rows"`
	Cols     int `yaml:"cols"`
	Chain    int `yaml:"chain"`
	Parallel int `yaml:"parallel"`
}

type Preview struct {
	Addr string `yaml:"addr,omitempty"` // e.g. :8080; empty disables
}

type Config struct {
	Hardware   string `yaml:"hardware"` // "regular" | "adafruit-hat" | "adafruit-hat-pwm"
	Rev1Pinout bool   `yaml:"rev1_pinout,omitempty"`
	CM5Chain   bool   `yaml:"cm5_chain,omitempty"`

	Geometry Geometry `yaml:"geometry"`

	SwapGreenBlue    bool `yaml:"swap_green_blue,omitempty"`
	InverseColors    bool `yaml:"inverse_colors,omitempty"`
	SingleSubPanel   bool `yaml:"single_sub_panel,omitempty"`
	PWMBits          int  `yaml:"pwm_bits"`
	Brightness       int  `yaml:"brightness"`
	LuminanceCorrect bool `yaml:"luminance_correct"`

	Simulate bool    `yaml:"simulate,omitempty"`
	Preview  Preview `yaml:"preview,omitempty"`
}

// Default returns the config for a single 32x32 panel on the regular
// pinout.
func Default() *Config {
	return &Config{
		Hardware:         "regular",
		Geometry:         Geometry{Rows: 32, Cols: 32, Chain: 1, Parallel: 1},
		PWMBits:          colormap.BitPlanes,
		Brightness:       colormap.MaxBrightness,
		LuminanceCorrect: true,
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Profile translates the yaml hardware selection into the pin profile
// used by the engine.
func (c *Config) Profile() (pinmap.Profile, error) {
	var pf pinmap.Profile
	switch c.Hardware {
	case "", "regular":
	case "adafruit-hat":
		pf.AdafruitHAT = true
	case "adafruit-hat-pwm":
		pf.AdafruitHAT = true
		pf.AdafruitHATPWM = true
	default:
		return pf, fmt.Errorf("config: unknown hardware %q", c.Hardware)
	}
	pf.Rev1Pinout = c.Rev1Pinout
	pf.CM5Chain = c.CM5Chain
	pf.SwapGreenBlue = c.SwapGreenBlue
	pf.Inverse = c.InverseColors
	pf.SingleSubPanel = c.SingleSubPanel
	return pf, nil
}

// Validate checks the fields the engine would otherwise reject at
// init time, so a bad config fails with a readable message instead.
func (c *Config) Validate() error {
	pf, err := c.Profile()
	if err != nil {
		return err
	}
	switch c.Geometry.Rows {
	case 8, 16, 32, 64:
	default:
		return fmt.Errorf("config: rows must be 8, 16, 32 or 64, got %d", c.Geometry.Rows)
	}
	if c.Geometry.Cols < 1 {
		return fmt.Errorf("config: cols must be positive, got %d", c.Geometry.Cols)
	}
	if c.Geometry.Chain < 1 {
		return fmt.Errorf("config: chain must be positive, got %d", c.Geometry.Chain)
	}
	if p := c.Geometry.Parallel; p < 1 || p > pf.MaxParallel() {
		return fmt.Errorf("config: parallel must be in [1..%d] for %s, got %d",
			pf.MaxParallel(), c.Hardware, p)
	}
	if c.PWMBits < 1 || c.PWMBits > colormap.BitPlanes {
		return fmt.Errorf("config: pwm_bits must be in [1..%d], got %d",
			colormap.BitPlanes, c.PWMBits)
	}
	if c.Brightness < colormap.MinBrightness || c.Brightness > colormap.MaxBrightness {
		return fmt.Errorf("config: brightness must be in [%d..%d], got %d",
			colormap.MinBrightness, colormap.MaxBrightness, c.Brightness)
	}
	return nil
}

// Columns is the chain-extended width of the display.
func (c *Config) Columns() int { return c.Geometry.Cols * c.Geometry.Chain }
