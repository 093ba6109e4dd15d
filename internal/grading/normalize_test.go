package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Café", "cafe"},
		{"  Hello   World  ", "hello world"},
		{"ÉCOLE", "ecole"},
		{"naïve\tfaçade\n", "naive facade"},
		{"Ångström", "angstrom"},
		{"", ""},
		{"   ", ""},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, Normalize(tc.input), "Normalize(%q)", tc.input)
	}
}

func TestNormalizeAccentedAndPlainCompareEqual(t *testing.T) {
	require.Equal(t, Normalize("résumé"), Normalize("RESUME"))
}
