package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wordrush/internal/config"
	"wordrush/internal/game"
	"wordrush/internal/words"

	"gorm.io/gorm"
)

const fixtureLetters = "ABCDEFGH"

// fixtureStore knows one word per fixture letter and category: the lower
// case letter followed by the category id, e.g. "aname".
func fixtureStore() *words.MemoryStore {
	var entries []words.Entry
	for _, letter := range fixtureLetters {
		for _, category := range game.CategoryIDs() {
			entries = append(entries, words.Entry{Category: category, Text: fixtureWord(string(letter), category)})
		}
	}
	return words.NewMemoryStore(entries)
}

func fixtureWord(letter, category string) string {
	return strings.ToLower(letter) + category
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.RateLimitPerSecond = 0
	return cfg
}

func newWordServer(t *testing.T, conn *gorm.DB, cfg config.Config) *Server {
	t.Helper()
	srv := New(conn, cfg, fixtureStore())
	if err := srv.Warm(context.Background()); err != nil {
		t.Fatalf("warm oracle: %v", err)
	}
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	body := bytes.NewReader(nil)
	if payload != nil {
		var data []byte
		if raw, ok := payload.(string); ok {
			data = []byte(raw)
		} else {
			encoded, err := json.Marshal(payload)
			if err != nil {
				t.Fatalf("marshal payload: %v", err)
			}
			data = encoded
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func expectStatus(t *testing.T, resp *http.Response, want int) map[string]any {
	t.Helper()
	body := decodeBody(t, resp)
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d: %v", want, resp.StatusCode, body)
	}
	return body
}

func expectError(t *testing.T, resp *http.Response, status int, code game.Code) string {
	t.Helper()
	body := expectStatus(t, resp, status)
	if body["error"] != string(code) {
		t.Fatalf("expected error %s, got %v", code, body["error"])
	}
	message, _ := body["message"].(string)
	return message
}

func roomOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	room, ok := body["room"].(map[string]any)
	if !ok {
		t.Fatalf("expected room object, got %#v", body["room"])
	}
	return room
}

// createRoom returns the room id and join code.
func createRoom(t *testing.T, ts *httptest.Server, host string) (string, string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms", map[string]any{"username": host})
	room := roomOf(t, expectStatus(t, resp, http.StatusCreated))
	return room["room_id"].(string), room["join_code"].(string)
}

func joinRoom(t *testing.T, ts *httptest.Server, code, username string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/join", map[string]any{
		"join_code": code,
		"username":  username,
	})
	return roomOf(t, expectStatus(t, resp, http.StatusOK))
}

// roundAnswers answers every category of the round in room. Valid answers
// come from the fixture store; invalid ones are unknown words.
func roundAnswers(t *testing.T, room map[string]any, valid bool, timeLeft int) []map[string]any {
	t.Helper()
	round, ok := room["round"].(map[string]any)
	if !ok {
		t.Fatalf("expected round in room, got %#v", room["round"])
	}
	letter := round["letter"].(string)
	var out []map[string]any
	for _, raw := range round["categories"].([]any) {
		category := raw.(map[string]any)["id"].(string)
		word := fixtureWord(letter, category)
		if !valid {
			word = strings.ToLower(letter) + "zzz"
		}
		out = append(out, map[string]any{
			"category":  category,
			"word":      word,
			"time_left": timeLeft,
		})
	}
	return out
}
