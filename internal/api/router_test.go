package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/user/termrec/internal/db"
	"github.com/user/termrec/internal/pty"
	"github.com/user/termrec/internal/recorder"
)

func newTestServer(t *testing.T, shell []string) *httptest.Server {
	t.Helper()
	database, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "api-test.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}

	svc := recorder.New(pty.NewRegistry(), database.SQL(), shell, t.TempDir(), nil)
	srv := httptest.NewServer(NewRouter(svc))

	t.Cleanup(func() {
		srv.Close()
		_ = svc.Close(context.Background())
		_ = database.Close()
	})
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t, []string{"sleep", "10"})

	resp := doJSON(t, srv, http.MethodPost, "/api/session", `{"cols":80,"rows":24}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status = %d, want 201", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", ct)
	}
	var started struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatalf("decode start response: %v", err)
	}
	if started.SessionID == "" {
		t.Fatal("start returned empty session_id")
	}

	if resp := doJSON(t, srv, http.MethodPost, "/api/session", `{"cols":80,"rows":24}`); resp.StatusCode != http.StatusConflict {
		t.Fatalf("second start status = %d, want 409", resp.StatusCode)
	}

	if resp := doJSON(t, srv, http.MethodDelete, "/api/session", ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("end status = %d, want 204", resp.StatusCode)
	}
	// Ending again is a no-op.
	if resp := doJSON(t, srv, http.MethodDelete, "/api/session", ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("repeated end status = %d, want 204", resp.StatusCode)
	}

	resp = doJSON(t, srv, http.MethodGet, "/api/sessions?limit=5", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sessions status = %d, want 200", resp.StatusCode)
	}
	var sessions []struct {
		ID      string    `json:"id"`
		EndedAt time.Time `json:"ended_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != started.SessionID {
		t.Fatalf("sessions = %#v", sessions)
	}
	if sessions[0].EndedAt.IsZero() {
		t.Fatal("ended session has zero ended_at")
	}
}

func TestSendInputAndReadOutputOverHTTP(t *testing.T) {
	srv := newTestServer(t, []string{"cat"})

	if resp := doJSON(t, srv, http.MethodPost, "/api/session", `{"cols":80,"rows":24}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status = %d, want 201", resp.StatusCode)
	}

	if resp := doJSON(t, srv, http.MethodPost, "/api/session/input", `{"data":"ping\n"}`); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("input status = %d, want 204", resp.StatusCode)
	}

	var output bytes.Buffer
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp := doJSON(t, srv, http.MethodGet, "/api/session/output", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("output status = %d, want 200", resp.StatusCode)
		}
		var body struct {
			Data *string `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode output: %v", err)
		}
		if body.Data != nil {
			output.WriteString(*body.Data)
			if bytes.Contains(output.Bytes(), []byte("ping")) {
				return
			}
			continue
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("never saw echoed input, got %q", output.String())
}

func TestErrorStatusMapping(t *testing.T) {
	srv := newTestServer(t, []string{"sleep", "10"})

	// No active session yet.
	if resp := doJSON(t, srv, http.MethodPost, "/api/session/input", `{"data":"x"}`); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("input without session status = %d, want 404", resp.StatusCode)
	}
	if resp := doJSON(t, srv, http.MethodGet, "/api/session/output", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("output without session status = %d, want 404", resp.StatusCode)
	}

	if resp := doJSON(t, srv, http.MethodPost, "/api/session", `{"cols":80,"rows":24}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status = %d, want 201", resp.StatusCode)
	}

	if resp := doJSON(t, srv, http.MethodPost, "/api/session/resize", `{"cols":0,"rows":24}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid resize status = %d, want 400", resp.StatusCode)
	}
	if resp := doJSON(t, srv, http.MethodPost, "/api/session/resize", `{"cols":120,"rows":40}`); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("resize status = %d, want 204", resp.StatusCode)
	}
}

func TestSessionEventsEndpoint(t *testing.T) {
	srv := newTestServer(t, []string{"cat"})

	resp := doJSON(t, srv, http.MethodPost, "/api/session", `{"cols":80,"rows":24}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status = %d, want 201", resp.StatusCode)
	}
	var started struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatalf("decode start response: %v", err)
	}

	if resp := doJSON(t, srv, http.MethodPost, "/api/session/input", `{"data":"hello\n"}`); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("input status = %d, want 204", resp.StatusCode)
	}

	resp = doJSON(t, srv, http.MethodGet, "/api/sessions/"+started.SessionID+"/events", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("events status = %d, want 200", resp.StatusCode)
	}
	var events []struct {
		Kind string `json:"kind"`
		Data string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) == 0 || events[0].Kind != "user_in" || events[0].Data != "hello\n" {
		t.Fatalf("events = %#v", events)
	}
}

func TestCommandEndpoints(t *testing.T) {
	srv := newTestServer(t, []string{"sleep", "10"})

	resp := doJSON(t, srv, http.MethodPost, "/api/session", `{"cols":80,"rows":24}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status = %d, want 201", resp.StatusCode)
	}
	var started struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatalf("decode start response: %v", err)
	}

	if resp := doJSON(t, srv, http.MethodPost, "/api/session/command", `{"input":"ls -la"}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("begin command status = %d, want 201", resp.StatusCode)
	}
	if resp := doJSON(t, srv, http.MethodPatch, "/api/session/command", `{"exit_code":0}`); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("end command status = %d, want 204", resp.StatusCode)
	}

	resp = doJSON(t, srv, http.MethodGet, "/api/sessions/"+started.SessionID+"/commands", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("commands status = %d, want 200", resp.StatusCode)
	}
	var commands []struct {
		Input    string `json:"input"`
		ExitCode *int64 `json:"exit_code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&commands); err != nil {
		t.Fatalf("decode commands: %v", err)
	}
	if len(commands) != 1 || commands[0].Input != "ls -la" || commands[0].ExitCode == nil {
		t.Fatalf("commands = %#v", commands)
	}
}
