package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		v1, v2 string
		want   int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.1", -1},
		{"1.0.1", "1.0.0", 1},
		{"1.9.0", "1.10.0", -1}, // numeric, not lexicographic
		{"2.0", "1.9.9", 1},
		{"1.0", "1.0.0", 0}, // missing segments count as zero
		{"1.0.0.1", "1.0.0", 1},
		{"0.9", "1.0", -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CompareVersions(tt.v1, tt.v2), "CompareVersions(%q, %q)", tt.v1, tt.v2)
	}
}
