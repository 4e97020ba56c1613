package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		TriggerDonationCreated(33.07).
		TriggerDashboardRefresh().
		TriggerFormReset().
		BodyHTML("<div>ok</div>").
		Write(w)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	var triggers map[string]json.RawMessage
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger not JSON: %v", err)
	}
	for _, name := range []string{"donation:created", "dashboard:refresh", "form:reset"} {
		if _, ok := triggers[name]; !ok {
			t.Errorf("missing trigger %s", name)
		}
	}
	if string(triggers["donation:created"]) != `{"totalAmount":33.07}` {
		t.Errorf("donation:created payload = %s", triggers["donation:created"])
	}
}

func TestHTMXResponseBuilder_NoTriggers(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Status(http.StatusNoContent).Header("HX-Redirect", "/admin").Write(w)
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should be absent")
	}
	if w.Header().Get("HX-Redirect") != "/admin" {
		t.Error("custom header not set")
	}
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d", w.Code)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		b    *HTMXResponseBuilder
		code int
	}{
		{BadRequestError("x"), http.StatusBadRequest},
		{UnprocessableEntityError("x"), http.StatusUnprocessableEntity},
		{InternalServerError("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		tt.b.Write(w)
		if w.Code != tt.code {
			t.Errorf("status = %d, want %d", w.Code, tt.code)
		}
	}

	w := httptest.NewRecorder()
	ErrorResponse(http.StatusUnprocessableEntity, `<script>alert("x")</script>`).Write(w)
	if got := w.Body.String(); got != `<div class="error" role="alert">&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;</div>` {
		t.Errorf("body not escaped: %s", got)
	}
}
