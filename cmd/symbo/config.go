package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/npillmayer/symboscript/interp"
	"gopkg.in/yaml.v3"
)

// settingsFile is looked up next to a script if no settings file is given.
const settingsFile = "symbo.yaml"

// traceKeys are the tracing keys of the packages of this module.
var traceKeys = []string{"symbo.scanner", "symbo.syntax", "symbo.vault", "symbo.interp", "symbo.cli"}

// Settings configures a run of symbo. Settings are read from a YAML file:
//
//    color: true
//    max_depth: 500
//    history: /tmp/symbo.history
//    tracing:
//      adapter: go
//      destination: Stderr
//      levels:
//        symbo.interp: Debug
//        symbo.vault: Info
//
// Settings implement schuko.Configuration, which is how tracing is
// configured: keys "tracing.adapter", "tracing.destination" and
// "tracelevel.<key>".
type Settings struct {
	Color    bool          `yaml:"color"`
	MaxDepth int           `yaml:"max_depth"`
	History  string        `yaml:"history"`
	Tracing  TraceSettings `yaml:"tracing"`
}

// TraceSettings select a tracing adapter and trace levels per key.
type TraceSettings struct {
	Adapter     string            `yaml:"adapter"`
	Destination string            `yaml:"destination"`
	Levels      map[string]string `yaml:"levels"`
}

var _ schuko.Configuration = (*Settings)(nil)

func defaultSettings() *Settings {
	s := &Settings{Color: true}
	s.InitDefaults()
	return s
}

// loadSettings reads settings from path. If path is empty, a settings file
// next to script is used, if present. Missing values are set to defaults.
func loadSettings(path, script string) (*Settings, error) {
	settings := defaultSettings()
	explicit := path != ""
	if !explicit {
		dir := "."
		if script != "" {
			dir = filepath.Dir(script)
		}
		path = filepath.Join(dir, settingsFile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return settings, nil
		}
		return nil, fmt.Errorf("cannot read settings: %w", err)
	}
	if err = yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("cannot parse settings %s: %w", path, err)
	}
	settings.InitDefaults()
	return settings, nil
}

// InitDefaults sets every missing value to its default.
func (s *Settings) InitDefaults() {
	if s.MaxDepth <= 0 {
		s.MaxDepth = interp.DefaultConfig().MaxDepth
	}
	if s.Tracing.Adapter == "" {
		s.Tracing.Adapter = "go"
	}
	if s.Tracing.Levels == nil {
		s.Tracing.Levels = map[string]string{}
	}
}

// IsSet is part of interface schuko.Configuration.
func (s *Settings) IsSet(key string) bool {
	return s.GetString(key) != ""
}

// GetString is part of interface schuko.Configuration.
func (s *Settings) GetString(key string) string {
	switch key {
	case "color":
		return strconv.FormatBool(s.Color)
	case "max_depth":
		return strconv.Itoa(s.MaxDepth)
	case "history":
		return s.History
	case "tracing.adapter":
		return s.Tracing.Adapter
	case "tracing.destination":
		return s.Tracing.Destination
	}
	if strings.HasPrefix(key, "tracelevel.") {
		return s.Tracing.Levels[strings.TrimPrefix(key, "tracelevel.")]
	}
	return ""
}

// GetInt is part of interface schuko.Configuration.
func (s *Settings) GetInt(key string) int {
	n, _ := strconv.Atoi(s.GetString(key))
	return n
}

// GetBool is part of interface schuko.Configuration.
func (s *Settings) GetBool(key string) bool {
	b, _ := strconv.ParseBool(s.GetString(key))
	return b
}

// IsInteractive is part of interface schuko.Configuration.
func (s *Settings) IsInteractive() bool {
	return false
}

// configureTracing sets up tracing from the settings. Every key of this
// module without a level of its own is set to level.
func (s *Settings) configureTracing(level string) error {
	for _, key := range append([]string{"root"}, traceKeys...) {
		if _, ok := s.Tracing.Levels[key]; !ok {
			s.Tracing.Levels[key] = level
		}
	}
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	if err := trace2go.ConfigureRoot(s, "tracelevel", trace2go.ReplaceTracers(true)); err != nil {
		return err
	}
	tracing.SetTraceSelector(trace2go.Selector())
	return nil
}

// interpreterConfig derives the configuration of the interpreter.
func (s *Settings) interpreterConfig() interp.Config {
	config := interp.DefaultConfig()
	config.Color = s.Color
	config.MaxDepth = s.MaxDepth
	return config
}
