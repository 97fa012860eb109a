package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-logr/logr"
	"github.com/jordigilh/intentrouter/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHealthyWithoutChecksReturnsAll(t *testing.T) {
	r := New(logr.Discard(), DefaultDescriptors())
	healthy := r.GetHealthy()
	assert.Len(t, healthy, len(DefaultDescriptors()))
}

func TestGetDescriptor(t *testing.T) {
	r := New(logr.Discard(), DefaultDescriptors())
	d, ok := r.GetDescriptor("payment-processing-service")
	require.True(t, ok)
	assert.Equal(t, 30000, d.TimeoutMillis)

	_, ok = r.GetDescriptor("does-not-exist")
	assert.False(t, ok)
}

func TestRefreshAllHealthMarksHealthyOn2xx(t *testing.T) {
	healthyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthyServer.Close()

	unhealthyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer unhealthyServer.Close()

	descriptors := []types.ServiceDescriptor{
		{Name: "good", URL: healthyServer.URL, HealthPath: "/", TimeoutMillis: 1000},
		{Name: "bad", URL: unhealthyServer.URL, HealthPath: "/", TimeoutMillis: 1000},
		{Name: "unreachable", URL: "http://127.0.0.1:1", HealthPath: "/", TimeoutMillis: 1000},
	}
	r := New(logr.Discard(), descriptors)
	r.RefreshAllHealth(context.Background())

	all := r.AllHealth()
	byName := map[string]types.HealthRecord{}
	for _, rec := range all {
		byName[rec.Service] = rec
	}

	assert.Equal(t, types.HealthHealthy, byName["good"].Status)
	assert.Equal(t, types.HealthDegraded, byName["bad"].Status)
	assert.Equal(t, types.HealthDegraded, byName["unreachable"].Status)

	healthyNames := r.GetHealthy()
	assert.Contains(t, healthyNames, "good")
	assert.NotContains(t, healthyNames, "bad")
}

func TestSyntheticMetricsDeterministic(t *testing.T) {
	l1, e1, t1 := syntheticMetrics("payment-processing-service")
	l2, e2, t2 := syntheticMetrics("payment-processing-service")
	assert.Equal(t, l1, l2)
	assert.Equal(t, e1, e2)
	assert.Equal(t, t1, t2)

	l3, _, _ := syntheticMetrics("image-processing-service")
	assert.NotEqual(t, l1, l3)
}
