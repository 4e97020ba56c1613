package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentDonation, Output: &buf})

	l.Info("donation recorded", NewFields().WithDonation(7, "Alice", "Student", "Themis", 5).ToSlice()...)

	out := buf.String()
	for _, want := range []string{"component=donation", "donation_id=7", "donor_name=Alice", "house=Themis"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Output: &buf})
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Component: ComponentApp, Output: &buf}).WithComponent(ComponentWorker)
	if l.Component() != ComponentWorker {
		t.Fatalf("Component() = %s", l.Component())
	}
	l.Info("x")
	if strings.Count(buf.String(), "component=") != 1 || !strings.Contains(buf.String(), "component=worker") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf})
	l.LogError(context.Background(), "insert failed", errors.New("disk full"), OpCreate, nil)
	if !strings.Contains(buf.String(), `error="disk full"`) || !strings.Contains(buf.String(), "operation=create") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestMiddlewareCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Component: ComponentHTTP, Output: &buf})

	h := Middleware(base, func(context.Context) string { return "req-1" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Errorf("expected request id in %q", buf.String())
	}
}

func TestFromContextFallsBack(t *testing.T) {
	l := FromContext(context.Background())
	if l == nil || l.Component() != ComponentApp {
		t.Errorf("unexpected fallback logger %+v", l)
	}
}
