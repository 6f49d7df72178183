package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(New(KindNotFound, "missing")); got != KindNotFound {
		t.Errorf("expected not_found, got %s", got)
	}
	wrapped := fmt.Errorf("outer: %w", New(KindForbidden, "nope"))
	if got := KindOf(wrapped); got != KindForbidden {
		t.Errorf("kind must survive wrapping, got %s", got)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("untagged errors default to internal, got %s", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidInput:    http.StatusBadRequest,
		KindUnauthorized:    http.StatusUnauthorized,
		KindForbidden:       http.StatusForbidden,
		KindNotFound:        http.StatusNotFound,
		KindExternalService: http.StatusBadGateway,
		KindPartialFailure:  http.StatusInternalServerError,
		KindUnavailable:     http.StatusServiceUnavailable,
		KindInternal:        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := kind.HTTPStatus(); got != want {
			t.Errorf("%s: expected %d, got %d", kind, want, got)
		}
	}
}

func TestWriteHTTPMasksUntaggedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTP(rec, errors.New("pq: connection reset by peer"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	var body struct {
		Error struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("malformed error body: %v", err)
	}
	if body.Error.Kind != string(KindInternal) {
		t.Errorf("expected internal_error, got %q", body.Error.Kind)
	}
	if body.Error.Message != "internal error" {
		t.Errorf("raw cause must not leak: %q", body.Error.Message)
	}
}

func TestWriteHTTPCarriesRetryGuidance(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTP(rec, Partial("half landed", "repeat the request", errors.New("boom")))

	var body struct {
		Error struct {
			Kind  string `json:"kind"`
			Retry string `json:"retry"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("malformed error body: %v", err)
	}
	if body.Error.Kind != string(KindPartialFailure) || body.Error.Retry != "repeat the request" {
		t.Errorf("partial failure body wrong: %#v", body)
	}
}

func TestErrorStringAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(KindExternalService, "service failed", cause)
	if !errors.Is(err, cause) {
		t.Errorf("wrapped cause must be reachable via errors.Is")
	}
	if err.Error() != "external_service_failure: service failed: boom" {
		t.Errorf("unexpected error string: %q", err.Error())
	}
}
