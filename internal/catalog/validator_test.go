package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefinition(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	valid := `{"name": "Cutting MC/1", "category": "cutting", "stages": ["cutting"]}`
	assert.NoError(t, v.ValidateDefinition([]byte(valid)))

	cases := map[string]string{
		"missing name":     `{"category": "cutting"}`,
		"missing category": `{"name": "Cutting MC/1"}`,
		"bad category":     `{"name": "Cutting MC/1", "category": "welding"}`,
		"empty name":       `{"name": "", "category": "cutting"}`,
		"unknown field":    `{"name": "Cutting MC/1", "category": "cutting", "vendor": "x"}`,
		"duplicate stages": `{"name": "Cutting MC/1", "category": "cutting", "stages": ["a", "a"]}`,
		"not JSON":         `{"name": `,
	}
	for name, payload := range cases {
		assert.Error(t, v.ValidateDefinition([]byte(payload)), name)
	}
}

func TestLoaderSearchPaths(t *testing.T) {
	l, err := NewLoader([]string{t.TempDir()})
	require.NoError(t, err)

	_, err = l.Load("no-such-machine")
	assert.Error(t, err)

	_, err = l.LoadIndex()
	assert.Error(t, err)
}
