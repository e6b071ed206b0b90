package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg.Providers)
	assert.Equal(t, CdPathAbsolute, cfg.CdPath)
	assert.Equal(t, On, cfg.QuickSuggestions.Commands)
	assert.Equal(t, On, cfg.QuickSuggestions.Arguments)
	assert.Equal(t, Off, cfg.QuickSuggestions.Unknown)
	assert.True(t, cfg.SuggestOnTriggerCharacters)
	assert.Equal(t, RunOnEnterNever, cfg.RunOnEnter)
	assert.False(t, cfg.InsertTrailingSpace)
	assert.Equal(t, InlineSuggestionAlwaysOnTopExceptExactMatch, cfg.InlineSuggestion)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ProviderEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers["history"] = false
	cfg.Providers["paths"] = true

	assert.False(t, cfg.ProviderEnabled("history"))
	assert.True(t, cfg.ProviderEnabled("paths"))
	assert.True(t, cfg.ProviderEnabled("unlisted"))

	var nilConfig *Config
	assert.True(t, nilConfig.ProviderEnabled("anything"))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad cdPath",
			mutate:  func(c *Config) { c.CdPath = "sometimes" },
			wantErr: "invalid cdPath",
		},
		{
			name:    "bad quick suggestion toggle",
			mutate:  func(c *Config) { c.QuickSuggestions.Arguments = "maybe" },
			wantErr: "quickSuggestions.arguments",
		},
		{
			name:    "bad runOnEnter",
			mutate:  func(c *Config) { c.RunOnEnter = "often" },
			wantErr: "invalid runOnEnter",
		},
		{
			name:    "bad inlineSuggestion",
			mutate:  func(c *Config) { c.InlineSuggestion = "bottom" },
			wantErr: "invalid inlineSuggestion",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: "invalid logLevel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
