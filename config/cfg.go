package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/layout"
)

//go:embed config.yaml
var defaultConfig []byte

type (
	PageConfig struct {
		Width  string `yaml:"width" validate:"required,length"`
		Height string `yaml:"height" validate:"required,length"`
		Margin string `yaml:"margin" validate:"required,length"`
	}

	StyleConfig struct {
		FontSize     float64 `yaml:"font_size" validate:"gt=0"`
		LineHeight   float64 `yaml:"line_height" validate:"gt=0"`
		MarginTop    float64 `yaml:"margin_top" validate:"gte=0"`
		MarginBottom float64 `yaml:"margin_bottom" validate:"gte=0"`
		Indent       float64 `yaml:"indent,omitempty" validate:"gte=0"`
		RuleWidth    float64 `yaml:"rule_width,omitempty" validate:"gte=0"`
		Bold         bool    `yaml:"bold,omitempty"`
		Italic       bool    `yaml:"italic,omitempty"`
	}

	RedisConfig struct {
		Addr     string        `yaml:"addr" validate:"omitempty,hostname_port"`
		Password string        `yaml:"password,omitempty"`
		DB       int           `yaml:"db" validate:"gte=0"`
		TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
	}

	MeasureConfig struct {
		Backend string      `yaml:"backend" validate:"required,oneof=canvas estimate"`
		Cache   string      `yaml:"cache" validate:"required,oneof=none memory redis"`
		Redis   RedisConfig `yaml:"redis"`
	}

	ScheduleConfig struct {
		Ticker   string        `yaml:"ticker" validate:"required,oneof=immediate goroutine frame debounce"`
		Frame    time.Duration `yaml:"frame" validate:"gt=0"`
		Debounce time.Duration `yaml:"debounce" validate:"gt=0"`
		Policy   string        `yaml:"policy" validate:"required,oneof=rerun single"`
	}

	ExportConfig struct {
		Author      string `yaml:"author"`
		PageNumbers bool   `yaml:"page_numbers"`
	}

	Config struct {
		Version  int                    `yaml:"version" validate:"eq=1"`
		Page     PageConfig             `yaml:"page"`
		Styles   map[string]StyleConfig `yaml:"styles" validate:"dive,keys,required,endkeys"`
		Measure  MeasureConfig          `yaml:"measure"`
		Schedule ScheduleConfig         `yaml:"schedule"`
		Export   ExportConfig           `yaml:"export"`
		Logging  LoggingConfig          `yaml:"logging"`
	}
)

func validateLength(fl validator.FieldLevel) bool {
	_, err := layout.ParseLength(fl.Field().String())
	return err == nil
}

func validateMeasure(sl validator.StructLevel) {
	m := sl.Current().Interface().(MeasureConfig)
	if m.Cache == "redis" && m.Redis.Addr == "" {
		sl.ReportError(m.Redis.Addr, "Redis.Addr", "Addr", "required_with_redis", "")
	}
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("length", validateLength); err != nil {
		return err
	}
	v.RegisterStructValidation(validateMeasure, MeasureConfig{})
	return v.Struct(cfg)
}

func unmarshalConfig(data []byte, cfg *Config, validate bool) (*Config, error) {
	// only fields we defined are accepted, so yaml.Unmarshal is not enough
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if validate {
		if err := Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of the embedded defaults and performs
// validation. An empty path returns the defaults.
func LoadConfiguration(path string) (*Config, error) {
	haveFile := len(path) > 0

	cfg, err := unmarshalConfig(defaultConfig, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process default configuration: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare returns the embedded default configuration.
func Prepare() []byte {
	return bytes.Clone(defaultConfig)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}

// Geometry converts the page section to layout units.
func (c *Config) Geometry() (layout.Geometry, error) {
	var geo layout.Geometry
	for _, f := range []struct {
		src string
		dst *float64
	}{
		{c.Page.Width, &geo.PageWidth},
		{c.Page.Height, &geo.PageHeight},
		{c.Page.Margin, &geo.Margin},
	} {
		l, err := layout.ParseLength(f.src)
		if err != nil {
			return layout.Geometry{}, err
		}
		*f.dst = l.Points()
	}
	if geo.ContentWidth() <= 0 {
		return layout.Geometry{}, fmt.Errorf("page margin %s leaves no room within page width %s", c.Page.Margin, c.Page.Width)
	}
	return geo, nil
}

// StyleSheet returns the default style sheet with configured kinds replaced.
func (c *Config) StyleSheet() layout.StyleSheet {
	ss := layout.DefaultStyleSheet()
	for kind, st := range c.Styles {
		ss[document.Kind(kind)] = layout.BlockStyle{
			FontSize:     st.FontSize,
			LineHeight:   st.LineHeight,
			MarginTop:    st.MarginTop,
			MarginBottom: st.MarginBottom,
			Indent:       st.Indent,
			RuleWidth:    st.RuleWidth,
			Bold:         st.Bold,
			Italic:       st.Italic,
		}
	}
	return ss
}
