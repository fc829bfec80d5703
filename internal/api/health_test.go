// Copyright (c) 2026 BonAppetit. All rights reserved.
// Author: bonappetittpo@gmail.com

package api_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bonappetit/internal/api"
	"github.com/taibuivan/bonappetit/internal/platform/constants"
)

/*
TestLiveness verifies the probe reports the running build version.
*/
func TestLiveness(t *testing.T) {
	liveness, _ := api.NewHealthHandlers(api.HealthDependencies{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	recorder := httptest.NewRecorder()
	liveness(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, constants.AppVersion, body["version"])
}

/*
TestReadiness verifies the probe degrades to 503 when a dependency is down
and recovers to 200 when all checks pass.
*/
func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		database   error
		cache      error
		wantCode   int
		wantStatus string
	}{
		{"all_up", nil, nil, http.StatusOK, "ready"},
		{"postgres_down", errors.New("connection refused"), nil, http.StatusServiceUnavailable, "degraded"},
		{"redis_down", nil, errors.New("connection refused"), http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, readiness := api.NewHealthHandlers(api.HealthDependencies{
				CheckDatabase: func() error { return tt.database },
				CheckCache:    func() error { return tt.cache },
			}, slog.New(slog.NewTextHandler(io.Discard, nil)))

			recorder := httptest.NewRecorder()
			readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

			require.Equal(t, tt.wantCode, recorder.Code)

			var body struct {
				Status string `json:"status"`
				Checks []struct {
					Name string `json:"name"`
					IsOK bool   `json:"ok"`
				} `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Len(t, body.Checks, 2)
		})
	}
}
