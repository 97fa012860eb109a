package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyMatchesSingleBucket(t *testing.T) {
	scores := Classify("I forgot my password and need to reset it")
	assert.Greater(t, scores["user-authentication-service"], 0.2)
	_, hasPayment := scores["payment-processing-service"]
	assert.False(t, hasPayment)
}

func TestClassifyNoMatchFallsBack(t *testing.T) {
	scores := Classify("the weather today is pleasant")
	assert.Equal(t, map[string]float64{FallbackService: 0.4}, scores)
}

func TestClassifyScoreCappedAtOne(t *testing.T) {
	scores := Classify("password login reset credentials authentication forgot signin 2fa mfa token")
	assert.Equal(t, 1.0, scores["user-authentication-service"])
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	scores := Classify("PASSWORD RESET REQUEST")
	assert.Greater(t, scores["user-authentication-service"], 0.0)
}
