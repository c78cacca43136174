package testutil

import (
	"embed"
	"encoding/json"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
)

//go:embed fixtures/*
var fixturesFS embed.FS

// LoadFixture loads a fixture file by name.
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile("fixtures/" + name)
}

// LoadProjectConfigFixture loads a JSONC project config fixture.
func LoadProjectConfigFixture(name string) (*config.Config, error) {
	data, err := LoadFixture(name)
	if err != nil {
		return nil, err
	}
	var cfg config.Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadStateFixture loads a state document fixture.
func LoadStateFixture(name string) (*devenv.State, error) {
	data, err := LoadFixture(name)
	if err != nil {
		return nil, err
	}
	var st devenv.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	st.Normalize()
	return &st, nil
}

// ValidProjectConfig returns a valid project config.
func ValidProjectConfig() (*config.Config, error) {
	return LoadProjectConfigFixture("valid_project_config.json")
}

// InvalidProjectConfig returns a project config that fails validation.
func InvalidProjectConfig() (*config.Config, error) {
	return LoadProjectConfigFixture("invalid_project_config.json")
}

// GlobalConfig returns the TOML global config fixture.
func GlobalConfig() (*config.GlobalConfig, error) {
	data, err := LoadFixture("global_config.toml")
	if err != nil {
		return nil, err
	}
	var cfg config.GlobalConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LegacyState returns a state document with a record kept under the
// generic "global" id.
func LegacyState() (*devenv.State, error) {
	return LoadStateFixture("legacy_state.json")
}
