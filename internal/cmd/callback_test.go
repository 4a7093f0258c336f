package cmd

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecideAllowsUnparseablePayload(t *testing.T) {
	decision := decide("claude", strings.NewReader("not json"), "http://127.0.0.1:1", false)
	if !decision.Allow {
		t.Error("garbage hook payload should never block the assistant")
	}
}

func TestDecideForwardsServerVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"allow": false, "reason": "Bash is restricted"}`))
	}))
	defer srv.Close()

	payload := `{"tool_name": "Bash", "session_id": "s-1"}`
	decision := decide("claude", strings.NewReader(payload), srv.URL, true)
	if decision.Allow {
		t.Error("server denial was ignored")
	}
	if decision.Reason != "Bash is restricted" {
		t.Errorf("Reason = %q", decision.Reason)
	}
}

func TestDecideNoTeamURLAllows(t *testing.T) {
	decision := decide("cursor", strings.NewReader(`{"tool_name": "Edit"}`), "", false)
	if !decision.Allow {
		t.Error("without a team URL every invocation is allowed")
	}
}

func TestStatusReportString(t *testing.T) {
	report := statusReport{
		Version:     "1.2.3",
		Executable:  "/home/u/.local/bin/railguard",
		ConfigDir:   "/home/u/.config/railguard",
		DataDir:     "/home/u/.local/share/railguard",
		Hooks:       []string{"Claude Code"},
		LastPoll:    "2026-08-28T10:00:00Z",
		LastUpgrade: "never",
	}
	text := report.String()
	for _, want := range []string{"railguard 1.2.3", "Claude Code", "Last upgrade: never"} {
		if !strings.Contains(text, want) {
			t.Errorf("status text missing %q:\n%s", want, text)
		}
	}
}

func TestStatusReportStringNoHooks(t *testing.T) {
	if !strings.Contains(statusReport{}.String(), "none installed") {
		t.Error("empty hook list should render as none installed")
	}
}
