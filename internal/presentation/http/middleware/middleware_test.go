package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// captureLogs テスト中のslog出力をJSON行として取得する
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return buf
}

// logEntries 出力されたログを1行ずつデコード
func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to decode log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func statusHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		path        string
		wantStatus  int
		wantHandler bool
	}{
		{name: "正常系: プリフライトは204", method: http.MethodOptions, path: "/api/analyze-currency", wantStatus: http.StatusNoContent, wantHandler: false},
		{name: "正常系: GETは通過", method: http.MethodGet, path: "/api/analysis", wantStatus: http.StatusOK, wantHandler: true},
		{name: "正常系: POSTは通過", method: http.MethodPost, path: "/api/login", wantStatus: http.StatusOK, wantHandler: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Origin", "http://localhost:3000")
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != tt.wantHandler {
				t.Errorf("handler called = %v, want %v", called, tt.wantHandler)
			}

			header := rec.Header()
			if header.Get("Access-Control-Allow-Origin") != "*" {
				t.Errorf("Access-Control-Allow-Origin = %q", header.Get("Access-Control-Allow-Origin"))
			}
			if !strings.Contains(header.Get("Access-Control-Allow-Methods"), tt.method) {
				t.Errorf("Access-Control-Allow-Methods = %q does not contain %s", header.Get("Access-Control-Allow-Methods"), tt.method)
			}
			if !strings.Contains(header.Get("Access-Control-Allow-Headers"), "Authorization") {
				t.Errorf("Access-Control-Allow-Headers = %q does not allow Authorization", header.Get("Access-Control-Allow-Headers"))
			}
			if header.Get("Access-Control-Max-Age") != "3600" {
				t.Errorf("Access-Control-Max-Age = %q, want 3600", header.Get("Access-Control-Max-Age"))
			}
		})
	}
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		status    int
		body      string
		wantLevel string
	}{
		{name: "正常系: 成功はINFO", method: http.MethodPost, path: "/api/analyze-currency", status: http.StatusOK, body: `{"analysis_id":"a"}`, wantLevel: "INFO"},
		{name: "正常系: 入力エラーはINFO", method: http.MethodPost, path: "/api/register", status: http.StatusBadRequest, body: `{"success":false}`, wantLevel: "INFO"},
		{name: "異常系: 上流障害はERROR", method: http.MethodPost, path: "/api/analyze-currency", status: http.StatusBadGateway, body: `{"success":false}`, wantLevel: "ERROR"},
		{name: "境界値: 本文なし", method: http.MethodGet, path: "/api/analysis", status: http.StatusNoContent, body: "", wantLevel: "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			handler := Logger(statusHandler(tt.status, tt.body))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status code = %d, want %d", rec.Code, tt.status)
			}

			entries := logEntries(t, logs)
			if len(entries) != 1 {
				t.Fatalf("log entries = %d, want 1", len(entries))
			}
			entry := entries[0]
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["msg"] != "HTTP request" || entry["method"] != tt.method || entry["path"] != tt.path {
				t.Errorf("entry = %v", entry)
			}
			if int(entry["status"].(float64)) != tt.status {
				t.Errorf("status = %v, want %d", entry["status"], tt.status)
			}
			if int(entry["bytes"].(float64)) != len(tt.body) {
				t.Errorf("bytes = %v, want %d", entry["bytes"], len(tt.body))
			}
		})
	}
}

func TestLoggerWithHealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		status  int
		wantMsg string
	}{
		{name: "正常系: /health の成功は出力しない", path: "/health", status: http.StatusOK, wantMsg: ""},
		{name: "正常系: /api/health の成功は出力しない", path: "/api/health", status: http.StatusOK, wantMsg: ""},
		{name: "異常系: ヘルスチェック失敗は出力する", path: "/api/health", status: http.StatusServiceUnavailable, wantMsg: "Health check failed"},
		{name: "正常系: 通常のリクエストは出力する", path: "/api/analysis", status: http.StatusOK, wantMsg: "HTTP request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			handler := LoggerWithHealthCheck(statusHandler(tt.status, "{}"))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			entries := logEntries(t, logs)
			if tt.wantMsg == "" {
				if len(entries) != 0 {
					t.Errorf("log entries = %v, want none", entries)
				}
				return
			}
			if len(entries) != 1 || entries[0]["msg"] != tt.wantMsg {
				t.Errorf("log entries = %v, want %q", entries, tt.wantMsg)
			}
		})
	}
}

func TestIsHealthCheck(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "/health", want: true},
		{path: "/api/health", want: true},
		{path: "/health/", want: false},
		{path: "/api/healthz", want: false},
		{path: "/", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := isHealthCheck(tt.path); got != tt.want {
				t.Errorf("isHealthCheck(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	t.Run("正常系: WriteHeaderなしは200", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := newResponseWriter(rec)

		n, err := rw.Write([]byte("hello"))
		if err != nil || n != 5 {
			t.Fatalf("Write() = (%d, %v)", n, err)
		}
		if rw.statusCode != http.StatusOK {
			t.Errorf("statusCode = %d, want 200", rw.statusCode)
		}
		if rw.written != 5 {
			t.Errorf("written = %d, want 5", rw.written)
		}
	})

	t.Run("正常系: 書き込みバイト数を累積", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := newResponseWriter(rec)

		rw.WriteHeader(http.StatusCreated)
		_, _ = rw.Write([]byte(`{"a":`))
		_, _ = rw.Write([]byte(`1}`))

		if rw.statusCode != http.StatusCreated || rec.Code != http.StatusCreated {
			t.Errorf("statusCode = %d, recorder = %d, want 201", rw.statusCode, rec.Code)
		}
		if rw.written != 7 {
			t.Errorf("written = %d, want 7", rw.written)
		}
		if rec.Body.String() != `{"a":1}` {
			t.Errorf("body = %s", rec.Body.String())
		}
	})
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		name       string
		panicValue any
	}{
		{name: "異常系: 文字列のpanic", panicValue: "provider adapter exploded"},
		{name: "異常系: errorのpanic", panicValue: http.ErrAbortHandler},
		{name: "異常系: nilのpanic", panicValue: nil},
		{name: "異常系: 数値のpanic", panicValue: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			handler := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(tt.panicValue)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/analyze-currency", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusInternalServerError {
				t.Errorf("status code = %d, want %d", rec.Code, http.StatusInternalServerError)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %s, want application/json", ct)
			}

			var response ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if response.Success || response.Error != "Internal server error" {
				t.Errorf("response = %+v", response)
			}

			entries := logEntries(t, logs)
			if len(entries) != 1 {
				t.Fatalf("log entries = %d, want 1", len(entries))
			}
			if entries[0]["msg"] != "Panic recovered" || entries[0]["path"] != "/api/analyze-currency" {
				t.Errorf("entry = %v", entries[0])
			}
			if stack, _ := entries[0]["stack"].(string); stack == "" {
				t.Error("stack should be logged")
			}
		})
	}
}

func TestRecovery_NoPanic(t *testing.T) {
	handler := Recovery(statusHandler(http.StatusOK, "success"))

	req := httptest.NewRequest(http.MethodGet, "/api/analysis", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "success" {
		t.Errorf("response = (%d, %s)", rec.Code, rec.Body.String())
	}
}

func TestMiddlewareChain(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.Handler
		wantStatus int
		wantLevel  string
	}{
		{
			name:       "正常系: 通常応答",
			handler:    statusHandler(http.StatusOK, "ok"),
			wantStatus: http.StatusOK,
			wantLevel:  "INFO",
		},
		{
			name: "異常系: panicは500としてログに残る",
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("boom")
			}),
			wantStatus: http.StatusInternalServerError,
			wantLevel:  "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			// ミドルウェアチェーン: CORS -> LoggerWithHealthCheck -> Recovery -> Handler
			chain := CORS(LoggerWithHealthCheck(Recovery(tt.handler)))

			req := httptest.NewRequest(http.MethodGet, "/api/analysis", nil)
			rec := httptest.NewRecorder()

			chain.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
				t.Error("CORS header should be set")
			}

			var requestLog map[string]any
			for _, entry := range logEntries(t, logs) {
				if entry["msg"] == "HTTP request" {
					requestLog = entry
				}
			}
			if requestLog == nil {
				t.Fatal("request log not found")
			}
			if requestLog["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", requestLog["level"], tt.wantLevel)
			}
		})
	}
}
