package coursesync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransportUpdate(t *testing.T) {
	var received Snapshot
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/progress/update", r.URL.Path)
		require.Equal(t, "Bearer "+sampleJWT, r.Header.Get("Authorization"))
		require.Equal(t, "fetch", r.Header.Get("X-Requested-With"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	transport := NewHTTPTransport(HTTPConfig{BaseURL: server.URL + "/"})
	err := transport.UpdateProgress(context.Background(), sampleJWT, Snapshot{CourseID: "pt-msk-001", ProgressPercent: 40, ModulesCompleted: 5, TimeSpentSeconds: 600})
	require.NoError(t, err)
	require.Equal(t, Snapshot{CourseID: "pt-msk-001", ProgressPercent: 40, ModulesCompleted: 5, TimeSpentSeconds: 600}, received)
}

func TestHTTPTransportSurfacesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false,"message":"invalid request context"}`))
	}))
	defer server.Close()

	err := NewHTTPTransport(HTTPConfig{BaseURL: server.URL}).CompleteCourse(context.Background(), sampleJWT, Snapshot{CourseID: "pt-msk-001"})
	var status *StatusError
	require.True(t, errors.As(err, &status))
	require.Equal(t, http.StatusForbidden, status.Status)
	require.Equal(t, "invalid request context", status.Message)
}

func TestHTTPTransportLoadProgress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/v1/progress/missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"message":"progress not found"}`))
			return
		}
		require.Equal(t, "/api/v1/progress/pt-msk-001", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"progress":{"course_id":"pt-msk-001","status":"in_progress","progress_percent":80,"time_spent_seconds":900}}`))
	}))
	defer server.Close()

	transport := NewHTTPTransport(HTTPConfig{BaseURL: server.URL})

	stored, found, err := transport.LoadProgress(context.Background(), sampleJWT, "pt-msk-001")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 80, stored.ProgressPercent)

	_, found, err = transport.LoadProgress(context.Background(), sampleJWT, "missing")
	require.NoError(t, err)
	require.False(t, found)
}

func TestCompareWithServer(t *testing.T) {
	mirror := NewMirror(nil, nil)
	transport := &recordingTransport{stored: ServerProgress{CourseID: "pt-msk-001", ProgressPercent: 80}, found: true}

	_, ok, err := CompareWithServer(context.Background(), transport, mirror, zerolog.Nop())
	require.NoError(t, err)
	require.False(t, ok)

	mirror.Set("sb-auth-token", `{"access_token":"`+sampleJWT+`"}`)
	mirror.Set("pt-msk-001-progress", `{"completedModules":["a","b","c"]}`)

	result, ok, err := CompareWithServer(context.Background(), transport, mirror, zerolog.Nop())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Comparison{CourseID: "pt-msk-001", LocalPercent: 25, ServerPercent: 80, ServerAhead: true}, result)

	value, _ := mirror.Get("pt-msk-001-progress")
	require.Equal(t, `{"completedModules":["a","b","c"]}`, value)

	transport.found = false
	_, ok, err = CompareWithServer(context.Background(), transport, mirror, zerolog.Nop())
	require.NoError(t, err)
	require.False(t, ok)
}
