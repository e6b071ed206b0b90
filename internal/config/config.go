// Package config provides configuration management for termsuggest.
// It defines the settings that shape completion behavior and loads them
// from a YAML file.
package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// CdPathMode controls completions for directories listed in CDPATH.
type CdPathMode string

const (
	CdPathOff      CdPathMode = "off"
	CdPathAbsolute CdPathMode = "absolute"
	CdPathRelative CdPathMode = "relative"
)

// Toggle is an on/off setting.
type Toggle string

const (
	On  Toggle = "on"
	Off Toggle = "off"
)

// RunOnEnter controls when accepting a completion also submits the line.
type RunOnEnter string

const (
	RunOnEnterNever                     RunOnEnter = "never"
	RunOnEnterAlways                    RunOnEnter = "always"
	RunOnEnterExactMatch                RunOnEnter = "exactMatch"
	RunOnEnterExactMatchIgnoreExtension RunOnEnter = "exactMatchIgnoreExtension"
)

// InlineSuggestion controls how the shell's ghost text is offered as a
// completion.
type InlineSuggestion string

const (
	InlineSuggestionOff                         InlineSuggestion = "off"
	InlineSuggestionAlwaysOnTop                 InlineSuggestion = "alwaysOnTop"
	InlineSuggestionAlwaysOnTopExceptExactMatch InlineSuggestion = "alwaysOnTopExceptExactMatch"
)

// QuickSuggestions controls which positions in a command line request
// completions while typing.
type QuickSuggestions struct {
	Commands  Toggle `koanf:"commands"`
	Arguments Toggle `koanf:"arguments"`
	Unknown   Toggle `koanf:"unknown"`
}

// Config holds all termsuggest configuration.
type Config struct {
	// Providers enables or disables providers by id. Providers that are not
	// listed are enabled.
	Providers map[string]bool `koanf:"providers"`

	CdPath                     CdPathMode       `koanf:"cdPath"`
	QuickSuggestions           QuickSuggestions `koanf:"quickSuggestions"`
	SuggestOnTriggerCharacters bool             `koanf:"suggestOnTriggerCharacters"`
	RunOnEnter                 RunOnEnter       `koanf:"runOnEnter"`
	InsertTrailingSpace        bool             `koanf:"insertTrailingSpace"`
	InlineSuggestion           InlineSuggestion `koanf:"inlineSuggestion"`

	// LogLevel controls logging verbosity
	LogLevel string `koanf:"logLevel"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Providers: make(map[string]bool),
		CdPath:    CdPathAbsolute,
		QuickSuggestions: QuickSuggestions{
			Commands:  On,
			Arguments: On,
			Unknown:   Off,
		},
		SuggestOnTriggerCharacters: true,
		RunOnEnter:                 RunOnEnterNever,
		InsertTrailingSpace:        false,
		InlineSuggestion:           InlineSuggestionAlwaysOnTopExceptExactMatch,
		LogLevel:                   "info",
	}
}

// ProviderEnabled reports whether the provider with the given id may
// contribute completions.
func (c *Config) ProviderEnabled(id string) bool {
	if c == nil || c.Providers == nil {
		return true
	}
	enabled, ok := c.Providers[id]
	return !ok || enabled
}

// Validate checks that every enumerated setting holds a known value.
func (c *Config) Validate() error {
	switch c.CdPath {
	case CdPathOff, CdPathAbsolute, CdPathRelative:
	default:
		return fmt.Errorf("invalid cdPath %q: must be one of off, absolute, relative", c.CdPath)
	}

	for name, toggle := range map[string]Toggle{
		"quickSuggestions.commands":  c.QuickSuggestions.Commands,
		"quickSuggestions.arguments": c.QuickSuggestions.Arguments,
		"quickSuggestions.unknown":   c.QuickSuggestions.Unknown,
	} {
		if toggle != On && toggle != Off {
			return fmt.Errorf("invalid %s %q: must be on or off", name, toggle)
		}
	}

	switch c.RunOnEnter {
	case RunOnEnterNever, RunOnEnterAlways, RunOnEnterExactMatch, RunOnEnterExactMatchIgnoreExtension:
	default:
		return fmt.Errorf("invalid runOnEnter %q", c.RunOnEnter)
	}

	switch c.InlineSuggestion {
	case InlineSuggestionOff, InlineSuggestionAlwaysOnTop, InlineSuggestionAlwaysOnTopExceptExactMatch:
	default:
		return fmt.Errorf("invalid inlineSuggestion %q", c.InlineSuggestion)
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid logLevel: %w", err)
	}
	return nil
}
