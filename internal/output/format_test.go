package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"html", FormatHTML, false},
		{"cgf", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatters(t *testing.T) {
	data := map[string]interface{}{
		"requirements": map[string]int{"total": 2, "covered": 1},
	}

	t.Run("json", func(t *testing.T) {
		f, err := GetFormatter(FormatJSON)
		require.NoError(t, err)
		out, err := f.Format(data)
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"requirements\": {\n    \"covered\": 1,\n    \"total\": 2\n  }\n}\n", out)
	})

	t.Run("yaml", func(t *testing.T) {
		f, err := GetFormatter(FormatYAML)
		require.NoError(t, err)
		out, err := f.Format(data)
		require.NoError(t, err)
		assert.Equal(t, "requirements:\n  covered: 1\n  total: 2\n", out)
	})

	t.Run("html is not structured", func(t *testing.T) {
		_, err := GetFormatter(FormatHTML)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "html")
		assert.False(t, FormatHTML.IsStructured())
	})
}
