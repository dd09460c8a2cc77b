// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestLogger(t *testing.T) {
	t.Run("passes status through", func(t *testing.T) {
		handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/gallery/x", nil))
		if rr.Code != http.StatusNotFound {
			t.Errorf("status: got %d, want 404", rr.Code)
		}
	})

	t.Run("write without WriteHeader", func(t *testing.T) {
		handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("hello"))
		}))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusOK || rr.Body.String() != "hello" {
			t.Errorf("got %d %q", rr.Code, rr.Body.String())
		}
	})
}

func TestResponseWriter(t *testing.T) {
	rr := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusCreated)
	rw.WriteHeader(http.StatusInternalServerError)
	rw.Write([]byte("created"))

	if rw.statusCode != http.StatusCreated {
		t.Errorf("statusCode: got %d, want 201 (first call)", rw.statusCode)
	}
	if rw.bytes != len("created") {
		t.Errorf("bytes: got %d", rw.bytes)
	}
}

func TestRecoverer(t *testing.T) {
	for name, value := range map[string]any{"string": "boom", "int": 42, "error": errors.New("boom")} {
		t.Run(name, func(t *testing.T) {
			handler := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(value)
			}))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/generate-ad", nil))

			if rr.Code != http.StatusInternalServerError {
				t.Errorf("status: got %d, want 500", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), `"error"`) {
				t.Errorf("body should be a JSON error, got %q", rr.Body.String())
			}
		})
	}

	t.Run("no panic", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Recoverer(http.HandlerFunc(okHandler)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusOK {
			t.Errorf("status: got %d", rr.Code)
		}
	})
}

func TestSecureHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecureHeaders(http.HandlerFunc(okHandler)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "SAMEORIGIN",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for h, v := range want {
		if got := rr.Header().Get(h); got != v {
			t.Errorf("%s: got %q, want %q", h, got, v)
		}
	}
}

func TestPreviewHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	PreviewHeaders(http.HandlerFunc(okHandler)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	csp := rr.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "default-src 'none'") || strings.Contains(csp, "script-src") {
		t.Errorf("preview CSP must forbid scripts: %q", csp)
	}
}

func TestMaxBodySize(t *testing.T) {
	handler := MaxBodySize(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("way too long")))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status: got %d, want 413", rr.Code)
	}
}

func TestMemoryLimiter(t *testing.T) {
	rl := NewMemoryLimiter(3, time.Second)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.allow("test-ip") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("test-ip") {
		t.Error("4th request should be rate-limited")
	}
	if !rl.allow("other-ip") {
		t.Error("different IP should be allowed")
	}
}

func TestMemoryLimiterWindowExpiry(t *testing.T) {
	rl := NewMemoryLimiter(2, 100*time.Millisecond)
	defer rl.Stop()

	rl.allow("test-ip")
	rl.allow("test-ip")
	if rl.allow("test-ip") {
		t.Error("should be rate-limited")
	}

	time.Sleep(150 * time.Millisecond)

	if !rl.allow("test-ip") {
		t.Error("should be allowed after window expires")
	}
}

func TestMemoryLimiterCleanup(t *testing.T) {
	rl := NewMemoryLimiter(10, 200*time.Millisecond)
	defer rl.Stop()

	rl.allow("ip-old")
	rl.allow("ip-fresh")
	time.Sleep(250 * time.Millisecond)
	rl.allow("ip-fresh")

	rl.cleanup()

	rl.mu.RLock()
	_, oldExists := rl.clients["ip-old"]
	_, freshExists := rl.clients["ip-fresh"]
	rl.mu.RUnlock()

	if oldExists {
		t.Error("ip-old should have been cleaned up")
	}
	if !freshExists {
		t.Error("ip-fresh should still exist")
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("valkey down")
}

func TestRateLimit(t *testing.T) {
	t.Run("limits per client", func(t *testing.T) {
		rl := NewMemoryLimiter(2, time.Second)
		defer rl.Stop()
		handler := RateLimit(rl, "ai")(http.HandlerFunc(okHandler))

		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/generate-ad", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			want := http.StatusOK
			if i == 2 {
				want = http.StatusTooManyRequests
			}
			if rr.Code != want {
				t.Errorf("request %d: got %d, want %d", i+1, rr.Code, want)
			}
		}
	})

	t.Run("forwarding headers do not reset the budget", func(t *testing.T) {
		rl := NewMemoryLimiter(1, time.Second)
		defer rl.Stop()
		handler := RateLimit(rl, "ai")(http.HandlerFunc(okHandler))

		codes := make([]int, 0, 2)
		for _, fwd := range []string{"10.0.0.1", "10.0.0.2"} {
			req := httptest.NewRequest(http.MethodPost, "/api/generate-ad", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			req.Header.Set("X-Forwarded-For", fwd)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			codes = append(codes, rr.Code)
		}
		if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
			t.Errorf("got %v, want [200 429]", codes)
		}
	})

	t.Run("fails open", func(t *testing.T) {
		handler := RateLimit(failingLimiter{}, "ai")(http.HandlerFunc(okHandler))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
		if rr.Code != http.StatusOK {
			t.Errorf("status: got %d, want 200 when limiter fails", rr.Code)
		}
	})
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{name: "spoofed x-forwarded-for ignored", xff: "10.0.0.1", remoteAddr: "192.168.1.1:1234", want: "192.168.1.1"},
		{name: "spoofed x-real-ip ignored", xri: "10.0.0.2", remoteAddr: "192.168.1.1:1234", want: "192.168.1.1"},
		{name: "remote addr only", remoteAddr: "192.168.1.1:1234", want: "192.168.1.1"},
		{name: "remote addr no port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
		{name: "ipv6 remote addr", remoteAddr: "[::1]:1234", want: "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
