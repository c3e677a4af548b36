package utils

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReferralCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^EMP[A-Z0-9]{4}$`)

	for i := 0; i < 50; i++ {
		code, err := GenerateReferralCode()
		require.NoError(t, err)
		assert.True(t, pattern.MatchString(code), "unexpected code format: %s", code)
	}
}

func TestGenerateEmployeeCodeFormat(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(fmt.Sprintf(`^SNK%d\d{4}$`, now.Year()))

	for i := 0; i < 50; i++ {
		code, err := GenerateEmployeeCode(now)
		require.NoError(t, err)
		assert.True(t, pattern.MatchString(code), "unexpected code format: %s", code)
	}
}

func TestGenerateReferralCodeVariability(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateReferralCode()
		require.NoError(t, err)
		seen[code] = true
	}
	// 36^4 possibilities; 100 draws yielding a single value would mean
	// the generator is broken
	assert.Greater(t, len(seen), 1)
}
