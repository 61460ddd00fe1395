package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/mahjong-ledger/internal/logger"
)

// MockVerifier is a mock implementation of SessionVerifier for testing.
type MockVerifier struct {
	VerifyFunc func(ctx context.Context, token string) (string, error)
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (string, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, token)
	}
	return "", ErrInvalidSession
}

func ownerEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"owner": OwnerID(r.Context())})
	})
}

func TestAuth(t *testing.T) {
	tokens := StaticTokens{"good-token": "owner-1"}

	tests := []struct {
		name       string
		path       string
		header     string
		verifier   SessionVerifier
		wantStatus int
		wantOwner  string
	}{
		{"ValidToken", "/api/records", "Bearer good-token", tokens, http.StatusOK, "owner-1"},
		{"LowercaseScheme", "/api/records", "bearer good-token", tokens, http.StatusOK, "owner-1"},
		{"UnknownToken", "/api/records", "Bearer nope", tokens, http.StatusUnauthorized, ""},
		{"MissingHeader", "/api/records", "", tokens, http.StatusUnauthorized, ""},
		{"WrongScheme", "/api/records", "Basic abc", tokens, http.StatusUnauthorized, ""},
		{"NilVerifier", "/api/records", "Bearer good-token", nil, http.StatusUnauthorized, ""},
		{"HealthIsPublic", "/health", "", tokens, http.StatusOK, ""},
		{
			"VerifierError", "/api/records", "Bearer x",
			&MockVerifier{VerifyFunc: func(ctx context.Context, token string) (string, error) {
				return "", errors.New("session backend down")
			}},
			http.StatusUnauthorized, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Auth(tt.verifier, time.Second, logger.Nop())(ownerEcho())

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if !strings.Contains(rec.Body.String(), "not authenticated") {
					t.Errorf("body = %s", rec.Body.String())
				}
				return
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["owner"] != tt.wantOwner {
				t.Errorf("owner = %q, want %q", body["owner"], tt.wantOwner)
			}
		})
	}
}

func TestAuthTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	slow := &MockVerifier{VerifyFunc: func(ctx context.Context, token string) (string, error) {
		<-release
		return "owner-1", nil
	}}

	h := Auth(slow, 20*time.Millisecond, logger.Nop())(ownerEcho())
	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()

	start := time.Now()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("auth waited %s for a slow verifier", elapsed)
	}
}

func TestRequestIDAndLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.NewWithWriter(buf)

	var ctxLogged bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.FromContext(r.Context())
		reqLog.Info().Msg("inside handler")
		ctxLogged = true
		w.WriteHeader(http.StatusTeapot)
	})

	h := RequestID(Logger(log)(inner))

	req := httptest.NewRequest(http.MethodGet, "/api/circles", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") != "req-42" {
		t.Errorf("X-Request-ID = %q", rec.Header().Get("X-Request-ID"))
	}
	if !ctxLogged {
		t.Fatal("handler not called")
	}
	out := buf.String()
	for _, want := range []string{"inside handler", "req-42", "HTTP request", `"status":418`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" || rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("generated id = %q, header = %q", seen, rec.Header().Get("X-Request-ID"))
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/records", nil))

	if rec.Code != http.StatusNoContent || called {
		t.Errorf("preflight status = %d, called = %v", rec.Code, called)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}
