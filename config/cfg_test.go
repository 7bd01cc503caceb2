package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/layout"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	geo, err := cfg.Geometry()
	if err != nil {
		t.Fatalf("Geometry() error = %v", err)
	}
	if geo != layout.DefaultGeometry() {
		t.Errorf("default geometry = %+v, want %+v", geo, layout.DefaultGeometry())
	}
	ss := cfg.StyleSheet()
	for kind, want := range layout.DefaultStyleSheet() {
		if got := ss[kind]; got != want {
			t.Errorf("style %s = %+v, want %+v", kind, got, want)
		}
	}
	if cfg.Schedule.Frame != 16*time.Millisecond {
		t.Errorf("frame interval = %v", cfg.Schedule.Frame)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	path := writeConfig(t, `version: 1
page:
  width: 210mm
  height: 297mm
  margin: 20mm
styles:
  paragraph:
    font_size: 11
    line_height: 1.4
    margin_top: 0
    margin_bottom: 8
measure:
  backend: estimate
  cache: none
schedule:
  ticker: debounce
  debounce: 300ms
  policy: single
logging:
  console:
    level: debug
`)
	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	geo, err := cfg.Geometry()
	if err != nil {
		t.Fatalf("Geometry() error = %v", err)
	}
	if geo.PageWidth < 595 || geo.PageWidth > 596 {
		t.Errorf("A4 width = %g pt", geo.PageWidth)
	}
	if got := cfg.StyleSheet()[document.KindParagraph].FontSize; got != 11 {
		t.Errorf("paragraph font size = %g, want 11", got)
	}
	if got := cfg.StyleSheet()[document.KindHeadingOne].FontSize; got != 32 {
		t.Errorf("untouched heading should keep default, got %g", got)
	}
	if cfg.Measure.Backend != "estimate" || cfg.Schedule.Policy != "single" || cfg.Schedule.Debounce != 300*time.Millisecond {
		t.Errorf("unexpected values: %+v %+v", cfg.Measure, cfg.Schedule)
	}
	if cfg.Measure.Redis.Addr != "localhost:6379" {
		t.Errorf("defaults should survive partial override, got %q", cfg.Measure.Redis.Addr)
	}
}

func TestLoadConfiguration_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown field": "version: 1\nbogus: true\n",
		"bad length":    "page:\n  width: wide\n",
		"bad backend":   "measure:\n  backend: browser\n",
		"bad policy":    "schedule:\n  policy: sometimes\n",
		"bad level":     "logging:\n  console:\n    level: loud\n",
		"redis no addr": "measure:\n  cache: redis\n  redis:\n    addr: \"\"\n",
		"zero font":     "styles:\n  paragraph:\n    font_size: 0\n    line_height: 1\n",
	}
	for name, content := range cases {
		if _, err := LoadConfiguration(writeConfig(t, content)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestValidationErrorsAreReported(t *testing.T) {
	_, err := LoadConfiguration(writeConfig(t, "measure:\n  backend: browser\n"))
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validator.ValidationErrors, got %T: %v", err, err)
	}
	if !strings.Contains(verrs[0].Namespace(), "Backend") {
		t.Errorf("unexpected namespace %s", verrs[0].Namespace())
	}
}

func TestGeometryRejectsMarginWiderThanPage(t *testing.T) {
	cfg, err := LoadConfiguration(writeConfig(t, "page:\n  width: 2in\n  height: 2in\n  margin: 1in\n"))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if _, err := cfg.Geometry(); err == nil {
		t.Fatalf("expected geometry error")
	}
}

func TestDumpRoundTrip(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	again, err := LoadConfiguration(writeConfig(t, string(data)))
	if err != nil {
		t.Fatalf("dumped config does not load: %v", err)
	}
	if again.Schedule != cfg.Schedule || again.Page != cfg.Page {
		t.Errorf("round trip changed values: %+v vs %+v", again.Schedule, cfg.Schedule)
	}
	if len(Prepare()) == 0 {
		t.Errorf("Prepare() returned empty config")
	}
}

func TestLoggingPrepare(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "quire.log")
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "debug", Destination: dest, Mode: "overwrite"},
	}
	log, closeLog, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("hello from test")
	if err := closeLog(); err != nil {
		t.Fatalf("closing log file: %v", err)
	}
	if err := closeLog(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("log file does not contain message: %q", data)
	}
}

func TestLoggingPrepareWithoutFile(t *testing.T) {
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "none"},
	}
	_, closeLog, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if err := closeLog(); err != nil {
		t.Fatalf("close without a log file should succeed: %v", err)
	}
}
