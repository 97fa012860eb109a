package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotWithinBoundedRanges(t *testing.T) {
	p := NewSyntheticProvider(time.Minute)
	s := p.Snapshot("user-authentication-service")

	assert.GreaterOrEqual(t, s.CPUUtilization, 0.30)
	assert.LessOrEqual(t, s.CPUUtilization, 0.92)
	assert.GreaterOrEqual(t, s.ErrorRate, 0.001)
	assert.LessOrEqual(t, s.ErrorRate, 0.08)
}

func TestSnapshotIsCachedUntilTTLExpires(t *testing.T) {
	p := NewSyntheticProvider(50 * time.Millisecond)
	first := p.Snapshot("svc")
	second := p.Snapshot("svc")
	assert.Equal(t, first, second)

	time.Sleep(60 * time.Millisecond)
	third := p.Snapshot("svc")
	assert.True(t, third.CapturedAtUtc.After(first.CapturedAtUtc))
}

func TestSnapshotIsDeterministicAcrossInstances(t *testing.T) {
	a := NewSyntheticProvider(time.Minute).Snapshot("payment-processing-service")
	b := NewSyntheticProvider(time.Minute).Snapshot("payment-processing-service")
	assert.Equal(t, a.CPUUtilization, b.CPUUtilization)
	assert.Equal(t, a.ErrorRate, b.ErrorRate)
}
