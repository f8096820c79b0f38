package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "export layout",
			input: "2024-03-01T10:15:30.123+0100",
			want:  time.Date(2024, 3, 1, 9, 15, 30, 123000000, time.UTC),
		},
		{
			name:  "microseconds",
			input: "2024-03-01T10:15:30.123456+0000",
			want:  time.Date(2024, 3, 1, 10, 15, 30, 123456000, time.UTC),
		},
		{
			name:  "plain date",
			input: "2024-03-01",
			want:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "not a date"} {
		_, err := ParseTimestamp(input)
		assert.True(t, errors.Is(err, ErrTimestamp), "input %q", input)
	}
}

func TestLatestSelector(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewLatestSelector[string]()

	assert.True(t, s.Offer("a", t0, "first"))
	assert.False(t, s.Offer("a", t0, "tie"))
	assert.False(t, s.Offer("a", t0.Add(-time.Hour), "older"))
	assert.True(t, s.Offer("a", t0.Add(time.Hour), "newer"))
	assert.True(t, s.Offer("b", t0, "other"))

	v, at, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "newer", v)
	assert.True(t, at.Equal(t0.Add(time.Hour)))

	_, _, ok = s.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, s.Keys())
	assert.Equal(t, map[string]string{"a": "newer", "b": "other"}, s.Values())
}
