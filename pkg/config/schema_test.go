package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaIsValidJSON(t *testing.T) {
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(Schema(), &doc))
	assert.Equal(t, "object", doc["type"])
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]interface{}
		wantErr  bool
	}{
		{"empty", map[string]interface{}{}, false},
		{"full", map[string]interface{}{
			"scan":   map[string]interface{}{"modules_dir": "node_modules", "include_dev": true, "workers": 3},
			"report": map[string]interface{}{"format": "xml", "output": "out.xml"},
			"policy": map[string]interface{}{"path": "p.yaml"},
		}, false},
		{"unknown section", map[string]interface{}{"hooks": map[string]interface{}{}}, true},
		{"too many workers", map[string]interface{}{"scan": map[string]interface{}{"workers": 1000}}, true},
		{"bad malformed mode", map[string]interface{}{"scan": map[string]interface{}{"on_malformed": "ignore"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSettings(tt.settings)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
