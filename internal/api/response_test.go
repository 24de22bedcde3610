package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"taxharvest/pkg/harvest"
)

func TestWriteErrorResponse(t *testing.T) {
	t.Run("structured error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/capital-gains", nil)
		writeErrorResponse(rr, req, http.StatusInternalServerError, harvest.NewError(harvest.ErrCodeNotFound, "missing"))

		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rr.Code)
		}
		var resp ErrorResponse
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ErrorCode != string(harvest.ErrCodeNotFound) {
			t.Fatalf("expected error_code %q, got %q", harvest.ErrCodeNotFound, resp.ErrorCode)
		}
		if resp.Code != http.StatusNotFound {
			t.Fatalf("expected body code 404, got %d", resp.Code)
		}
	})

	t.Run("wrapped structured error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		err := fmt.Errorf("load: %w", harvest.NewError(harvest.ErrCodeDecode, "bad json"))
		writeErrorResponse(rr, req, http.StatusInternalServerError, err)
		if rr.Code != http.StatusBadGateway {
			t.Fatalf("expected status 502, got %d", rr.Code)
		}
	})

	t.Run("bare fetch error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		writeErrorResponse(rr, req, http.StatusInternalServerError, &harvest.FetchError{Feed: harvest.FeedCapitalGains, Status: 503})
		if rr.Code != http.StatusBadGateway {
			t.Fatalf("expected status 502, got %d", rr.Code)
		}
		var resp ErrorResponse
		_ = json.NewDecoder(rr.Body).Decode(&resp)
		if resp.ErrorCode != string(harvest.ErrCodeFetch) {
			t.Fatalf("expected FETCH_FAILED, got %q", resp.ErrorCode)
		}
	})

	t.Run("plain error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		writeErrorResponse(rr, req, http.StatusBadRequest, errors.New("bad input"))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestWriteErrorResponseIncludesRequestID(t *testing.T) {
	env := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/harvest?limit=x", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RequestID != "req-123" {
		t.Fatalf("expected request id echoed, got %q", resp.RequestID)
	}
}

func TestMapErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		code harvest.ErrorCode
		want int
	}{
		{name: "invalid", code: harvest.ErrCodeInvalidInput, want: http.StatusBadRequest},
		{name: "not found", code: harvest.ErrCodeNotFound, want: http.StatusNotFound},
		{name: "fetch", code: harvest.ErrCodeFetch, want: http.StatusBadGateway},
		{name: "decode", code: harvest.ErrCodeDecode, want: http.StatusBadGateway},
		{name: "database", code: harvest.ErrCodeDatabase, want: http.StatusInternalServerError},
		{name: "internal", code: harvest.ErrCodeInternal, want: http.StatusInternalServerError},
		{name: "default", code: harvest.ErrorCode("UNKNOWN"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapErrorCodeToHTTPStatus(tt.code)
			if got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
