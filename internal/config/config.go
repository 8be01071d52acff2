// Package config loads the annotation classes, display colors and tool
// settings. Files may be YAML or JSON; JSON is read through the YAML decoder.
package config

import (
	_ "embed"
	"fmt"
	"image/color"
	"os"
	"sort"
	"time"

	"solar-annotator/internal/boundary"
	"solar-annotator/internal/labels"
	"solar-annotator/pkg/colorutil"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Config is the top-level configuration.
type Config struct {
	Classes   map[string]int  `yaml:"classes"`
	Display   DisplayConfig   `yaml:"display"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Boundary  BoundaryConfig  `yaml:"boundary"`
	Template  TemplateConfig  `yaml:"template"`

	// Path is the file the configuration was read from, empty for the
	// built-in default.
	Path string `yaml:"-"`

	mapping    *labels.Mapping
	colors     map[uint8]color.RGBA
	unlabeled  color.RGBA
	classOrder []labels.Entry
}

// DisplayConfig holds class colors.
type DisplayConfig struct {
	Colors         map[string]string `yaml:"colors"`
	UnlabeledColor string            `yaml:"unlabeled_color"`
}

// RetrievalConfig describes where composite images come from. Directory
// takes precedence over URL when both are set.
type RetrievalConfig struct {
	Directory      string        `yaml:"directory"`
	URL            string        `yaml:"url"`
	Channels       []string      `yaml:"channels"`
	PreviewChannel string        `yaml:"preview_channel"`
	Timeout        time.Duration `yaml:"timeout"`
}

// BoundaryConfig tunes the outline tracer.
type BoundaryConfig struct {
	Method           string `yaml:"method"` // greedy | contour
	Proximity        int    `yaml:"proximity"`
	MinRemaining     int    `yaml:"min_remaining"`
	MinContourLength int    `yaml:"min_contour_length"`
}

// TemplateConfig controls the disk/limb template.
type TemplateConfig struct {
	LimbThickness float64 `yaml:"limb_thickness"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in config: %v", err))
	}
	return cfg
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes and validates configuration data. Settings the data leaves
// out keep their default values; classes and their colors are required.
func Parse(data []byte) (*Config, error) {
	cfg := Config{
		Display: DisplayConfig{UnlabeledColor: "#FFFFFF"},
		Retrieval: RetrievalConfig{
			Channels: []string{"171", "195", "284"},
			Timeout:  60 * time.Second,
		},
		Boundary: BoundaryConfig{
			Method:           boundary.MethodGreedy,
			Proximity:        boundary.DefaultParams().Proximity,
			MinRemaining:     boundary.DefaultParams().MinRemaining,
			MinContourLength: boundary.DefaultParams().MinContourLength,
		},
		Template: TemplateConfig{LimbThickness: 10},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if cfg.Retrieval.PreviewChannel == "" && len(cfg.Retrieval.Channels) > 0 {
		cfg.Retrieval.PreviewChannel = cfg.Retrieval.Channels[len(cfg.Retrieval.Channels)/2]
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration and builds the derived tables.
func (c *Config) Validate() error {
	if len(c.Classes) == 0 {
		return fmt.Errorf("classes: at least one class is required")
	}
	m, err := labels.FromNames(c.Classes)
	if err != nil {
		return fmt.Errorf("classes: %w", err)
	}

	colors := make(map[uint8]color.RGBA, m.Len())
	for _, e := range m.Entries() {
		spec, ok := c.Display.Colors[e.Name]
		if !ok {
			return fmt.Errorf("display.colors: no color for class %q", e.Name)
		}
		col, err := colorutil.Parse(spec)
		if err != nil {
			return fmt.Errorf("display.colors.%s: %w", e.Name, err)
		}
		colors[e.Code] = col
	}
	for name := range c.Display.Colors {
		if _, ok := c.Classes[name]; !ok {
			return fmt.Errorf("display.colors: color for unknown class %q", name)
		}
	}
	unlabeled, err := colorutil.Parse(c.Display.UnlabeledColor)
	if err != nil {
		return fmt.Errorf("display.unlabeled_color: %w", err)
	}

	found := false
	for _, ch := range c.Retrieval.Channels {
		if ch == c.Retrieval.PreviewChannel {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("retrieval.preview_channel %q not in channels %v", c.Retrieval.PreviewChannel, c.Retrieval.Channels)
	}
	if c.Retrieval.Timeout < 0 {
		return fmt.Errorf("retrieval.timeout must be >= 0")
	}
	switch c.Boundary.Method {
	case boundary.MethodGreedy, boundary.MethodContour:
	default:
		return fmt.Errorf("boundary.method %q: use %s or %s", c.Boundary.Method, boundary.MethodGreedy, boundary.MethodContour)
	}
	if c.Boundary.Proximity < 1 {
		return fmt.Errorf("boundary.proximity must be >= 1")
	}
	if c.Boundary.MinRemaining < 0 {
		return fmt.Errorf("boundary.min_remaining must be >= 0")
	}
	if c.Boundary.MinContourLength < 0 {
		return fmt.Errorf("boundary.min_contour_length must be >= 0")
	}
	if c.Template.LimbThickness < 0 {
		return fmt.Errorf("template.limb_thickness must be >= 0")
	}

	c.mapping = m
	c.colors = colors
	c.unlabeled = unlabeled
	c.classOrder = m.Entries()
	return nil
}

// Mapping returns the label mapping defined by the classes.
func (c *Config) Mapping() *labels.Mapping {
	return c.mapping
}

// ClassList returns the classes in code order.
func (c *Config) ClassList() []labels.Entry {
	out := make([]labels.Entry, len(c.classOrder))
	copy(out, c.classOrder)
	return out
}

// MaxIndex returns the largest class code.
func (c *Config) MaxIndex() uint8 {
	return c.mapping.MaxCode()
}

// Color returns the display color of a code. Codes without a class, 0
// included, get the unlabeled color.
func (c *Config) Color(code uint8) color.RGBA {
	if col, ok := c.colors[code]; ok {
		return col
	}
	return c.unlabeled
}

// ColorTable returns one color per code from 0 to MaxIndex.
func (c *Config) ColorTable() []color.RGBA {
	table := make([]color.RGBA, int(c.MaxIndex())+1)
	for i := range table {
		table[i] = c.Color(uint8(i))
	}
	return table
}

// TracerParams returns the outline tracer settings.
func (c *Config) TracerParams() boundary.Params {
	return boundary.Params{
		Proximity:        c.Boundary.Proximity,
		MinRemaining:     c.Boundary.MinRemaining,
		MinContourLength: c.Boundary.MinContourLength,
	}
}

// Tracer builds the configured outline tracer.
func (c *Config) Tracer() boundary.Tracer {
	return boundary.New(c.Boundary.Method, c.TracerParams())
}

// Marshal renders the configuration as YAML with classes sorted by code.
func (c *Config) Marshal() ([]byte, error) {
	type entry struct {
		name string
		code int
	}
	var ordered []entry
	for name, code := range c.Classes {
		ordered = append(ordered, entry{name, code})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].code < ordered[j].code })

	classes := yaml.Node{Kind: yaml.MappingNode}
	for _, e := range ordered {
		classes.Content = append(classes.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(e.code)},
		)
	}

	doc := struct {
		Classes   *yaml.Node      `yaml:"classes"`
		Display   DisplayConfig   `yaml:"display"`
		Retrieval RetrievalConfig `yaml:"retrieval"`
		Boundary  BoundaryConfig  `yaml:"boundary"`
		Template  TemplateConfig  `yaml:"template"`
	}{&classes, c.Display, c.Retrieval, c.Boundary, c.Template}
	return yaml.Marshal(doc)
}
