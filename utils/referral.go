package utils

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// GenerateReferralCode generates a candidate employee referral code.
// Format: EMP{RANDOM} where RANDOM is 4 alphanumeric characters.
// Example: EMP7H2K, EMPQ4ZD. Uniqueness is enforced at insert time by
// the caller, not here.
func GenerateReferralCode() (string, error) {
	// 3 random bytes give us at least 4 base32 characters
	randomBytes := make([]byte, 3)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", err
	}

	randomStr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	randomStr = strings.ToUpper(randomStr)
	randomStr = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, randomStr)

	if len(randomStr) < 4 {
		randomStr = randomStr + strings.Repeat("0", 4-len(randomStr))
	}
	randomStr = randomStr[:4]

	return "EMP" + randomStr, nil
}

// GenerateEmployeeCode generates a candidate internal employee code.
// Format: SNK{YEAR}{RANDOM} where RANDOM is 4 digits.
// Example: SNK20260481.
func GenerateEmployeeCode(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SNK%d%04d", now.Year(), n.Int64()), nil
}
