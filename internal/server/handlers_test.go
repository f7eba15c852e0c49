package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mirukang/fortunecast/internal/database"
	"github.com/mirukang/fortunecast/internal/recommend"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeResponder returns a fixed reply or error and records the last call.
type fakeResponder struct {
	reply         string
	err           error
	lastReq       recommend.CanonicalRequest
	lastSessionID string
}

func (f *fakeResponder) Respond(_ context.Context, req recommend.CanonicalRequest, sessionID string) (string, error) {
	f.lastReq = req
	f.lastSessionID = sessionID
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// fakeStore only supports Ping; handlers don't touch anything else.
type fakeStore struct {
	pingErr error
}

func (f *fakeStore) Ping(_ context.Context) error { return f.pingErr }
func (f *fakeStore) GetSessionHistory(_ context.Context, _ string) ([]database.ConversationTurn, error) {
	return nil, nil
}
func (f *fakeStore) AppendUserTurn(_ context.Context, _, _ string) error      { return nil }
func (f *fakeStore) AppendAssistantTurn(_ context.Context, _, _ string) error { return nil }
func (f *fakeStore) DeleteSessionHistory(_ context.Context, _ string) error   { return nil }
func (f *fakeStore) RunSQLMaintenance(_ context.Context) error                { return nil }

func newTestEngine(svc Responder, store database.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := &handler{svc: svc, store: store, log: discardLogger()}
	h.registerRoutes(engine)
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	parsed := map[string]string{}
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("response is not a flat JSON object: %v\nbody: %s", err, rec.Body.String())
	}
	return rec, parsed
}

func TestFortuneEndpointLenient(t *testing.T) {
	t.Parallel()

	type fortuneTestCase struct {
		name        string
		body        string
		wantSession string
	}

	cases := []fortuneTestCase{
		{
			name:        "empty body defaults everything",
			body:        `{}`,
			wantSession: recommend.DefaultSessionID,
		},
		{
			name:        "missing business fields still accepted",
			body:        `{"question": "what should I wear?"}`,
			wantSession: recommend.DefaultSessionID,
		},
		{
			name:        "explicit session id",
			body:        `{"question": "what should I wear?", "session_id": "user123"}`,
			wantSession: "user123",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &fakeResponder{reply: "wear a coat"}
			engine := newTestEngine(svc, &fakeStore{})

			rec, parsed := doRequest(t, engine, http.MethodPost, "/fortune", tc.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
			}
			if parsed["response"] != "wear a coat" {
				t.Errorf("response = %q, want %q", parsed["response"], "wear a coat")
			}
			if svc.lastSessionID != tc.wantSession {
				t.Errorf("session id = %q, want %q", svc.lastSessionID, tc.wantSession)
			}
		})
	}
}

func TestFortuneEndpointNormalizes(t *testing.T) {
	t.Parallel()

	svc := &fakeResponder{reply: "ok"}
	engine := newTestEngine(svc, &fakeStore{})

	body := `{
		"question": "What should I wear tomorrow?",
		"user_info": {"birth": "1990-01-01", "gender": "female"},
		"gpt_mbti": {"MBTI": "infj"},
		"fortune": {"daily": "good", "saju": "calm"},
		"vs_data": {"coffee_vs_tea": "coffee"}
	}`

	rec, _ := doRequest(t, engine, http.MethodPost, "/fortune", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if svc.lastReq.MBTI != "INFJ" {
		t.Errorf("normalized MBTI = %q, want INFJ", svc.lastReq.MBTI)
	}
	if svc.lastReq.Question != "What should I wear tomorrow?" {
		t.Errorf("question = %q, want the literal question", svc.lastReq.Question)
	}
	if len(svc.lastReq.Preferences) != 1 || svc.lastReq.Preferences[0].Choice != "coffee" {
		t.Errorf("preferences = %+v, want the coffee pair", svc.lastReq.Preferences)
	}
}

func TestFortuneEndpointBadJSON(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(&fakeResponder{reply: "ok"}, &fakeStore{})

	rec, parsed := doRequest(t, engine, http.MethodPost, "/fortune", `{"question": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if parsed["error"] == "" {
		t.Error("expected an error message in the response")
	}
}

func TestFortuneEndpointLLMFailure(t *testing.T) {
	t.Parallel()

	svc := &fakeResponder{err: errors.New("quota exceeded")}
	engine := newTestEngine(svc, &fakeStore{})

	rec, parsed := doRequest(t, engine, http.MethodPost, "/fortune", `{}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if parsed["error"] == "" {
		t.Error("expected an error message in the response")
	}
}

func TestRecommendEndpointStrict(t *testing.T) {
	t.Parallel()

	type strictTestCase struct {
		name       string
		body       string
		wantStatus int
	}

	cases := []strictTestCase{
		{
			name:       "missing question rejected",
			body:       `{"user_info": {"birth": "1990-01-01"}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing user_info rejected",
			body:       `{"question": "what should I wear?"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty body rejected",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty user_info object rejected",
			body:       `{"question": "what should I wear?", "user_info": {}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "complete request accepted",
			body:       `{"question": "what should I wear?", "user_info": {"birth": "1990-01-01", "gender": "female"}}`,
			wantStatus: http.StatusOK,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &fakeResponder{reply: "a warm scarf"}
			engine := newTestEngine(svc, &fakeStore{})

			rec, parsed := doRequest(t, engine, http.MethodPost, "/recommend", tc.body)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if tc.wantStatus == http.StatusOK {
				if parsed["recommendation"] != "a warm scarf" {
					t.Errorf("recommendation = %q, want %q", parsed["recommendation"], "a warm scarf")
				}
			} else if parsed["error"] == "" {
				t.Error("expected an error message in the response")
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	t.Run("healthy store", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine(&fakeResponder{}, &fakeStore{})
		rec, parsed := doRequest(t, engine, http.MethodGet, "/healthz", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if parsed["status"] != "ok" {
			t.Errorf("status field = %q, want ok", parsed["status"])
		}
	})

	t.Run("unavailable store", func(t *testing.T) {
		t.Parallel()
		engine := newTestEngine(&fakeResponder{}, &fakeStore{pingErr: errors.New("down")})
		rec, parsed := doRequest(t, engine, http.MethodGet, "/healthz", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		if parsed["status"] != "unavailable" {
			t.Errorf("status field = %q, want unavailable", parsed["status"])
		}
	})
}
