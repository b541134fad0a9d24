package config

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed licensescan-config.schema.json
var configSchema []byte

// Schema returns the embedded JSON schema for config files.
func Schema() []byte {
	return append([]byte(nil), configSchema...)
}

// ValidateFile checks a config file (yaml, json or toml) against the embedded schema.
func ValidateFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return ValidateSettings(v.AllSettings())
}

// ValidateSettings validates decoded settings against the embedded schema.
func ValidateSettings(settings map[string]interface{}) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(configSchema),
		gojsonschema.NewGoLoader(settings),
	)
	if err != nil {
		return fmt.Errorf("%w: schema validation error: %v", ErrInvalidConfig, err)
	}

	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("%w: configuration validation failed:\n%s", ErrInvalidConfig, strings.Join(errs, "\n"))
	}
	return nil
}
