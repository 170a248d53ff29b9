package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionMetrics(t *testing.T) {
	before := GetMetrics()
	var m SubmissionMetrics
	m.SubmissionStarted()
	m.SubmissionFinished(errors.New("boom"))
	after := GetMetrics()

	assert.Equal(t, before["submissions_total"].(uint64)+1, after["submissions_total"])
	assert.Equal(t, before["submissions_failed"].(uint64)+1, after["submissions_failed"])
	assert.Equal(t, before["submissions_running"], after["submissions_running"])
}

func TestHealthHandler(t *testing.T) {
	h := HealthHandler(map[string]HealthChecker{
		"backend":  CheckFunc(func(context.Context) error { return nil }),
		"sessions": CheckFunc(func(context.Context) error { return errors.New("down") }),
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Checks["backend"].Status)
	assert.Equal(t, "down", body.Checks["sessions"].Message)
}
