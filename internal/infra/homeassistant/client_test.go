package homeassistant_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"alexa-smart-home/internal/domain"
	"alexa-smart-home/internal/infra/homeassistant"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(url string) *homeassistant.Client {
	return homeassistant.NewClient(homeassistant.Config{
		BaseURL:   url,
		Token:     "test-token",
		VerifySSL: true,
		UserAgent: "bridge-test",
	}, testLogger())
}

func TestClient_GetState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/states/light.kitchen" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization: got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "bridge-test" {
			t.Errorf("User-Agent: got %q", got)
		}
		w.Write([]byte(`{"entity_id":"light.kitchen","state":"on","attributes":{"brightness":128}}`))
	}))
	defer server.Close()

	st, err := newClient(server.URL+"/api/").GetState(context.Background(), "light.kitchen")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if st.State != "on" {
		t.Errorf("state: got %s", st.State)
	}
	if v, err := st.Float("brightness"); err != nil || v != 128 {
		t.Errorf("brightness: got %v, %v", v, err)
	}
}

func TestClient_GetStates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/states" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{"entity_id":"switch.a","state":"off","attributes":{}},
			{"entity_id":"lock.door","state":"locked"}
		]`))
	}))
	defer server.Close()

	states, err := newClient(server.URL+"/api").GetStates(context.Background())
	if err != nil {
		t.Fatalf("GetStates: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("got %d states, want 2", len(states))
	}
	if states[1].Attributes == nil {
		t.Error("missing attributes should decode as an empty map")
	}
}

func TestClient_CallServiceWait(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/services/light/turn_on" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	err := newClient(server.URL+"/api").CallService(context.Background(), "light.turn_on",
		map[string]any{"entity_id": "light.kitchen", "brightness": 64.0}, true)
	if err != nil {
		t.Fatalf("CallService: %v", err)
	}
	if body["entity_id"] != "light.kitchen" || body["brightness"] != 64.0 {
		t.Errorf("body: got %v", body)
	}
}

func TestClient_ServerErrorIsHubFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newClient(server.URL+"/api").GetState(context.Background(), "switch.a")
	if !errors.Is(err, domain.ErrHubCommunication) {
		t.Fatalf("error should wrap ErrHubCommunication, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("5xx should be retried: got %d calls, want 3", calls.Load())
	}
}

func TestClient_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such entity", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newClient(server.URL+"/api").GetState(context.Background(), "switch.missing")
	if !errors.Is(err, domain.ErrHubCommunication) {
		t.Fatalf("error should wrap ErrHubCommunication, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("got %d calls, want 1", calls.Load())
	}
}

func TestClient_FireAndForgetDoesNotWaitForResponse(t *testing.T) {
	received := make(chan map[string]any, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		received <- body
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	err := newClient(server.URL+"/api").CallService(ctx, "switch.turn_on",
		map[string]any{"entity_id": "switch.a"}, false)
	elapsed := time.Since(start)
	cancel()

	if err != nil {
		t.Fatalf("slow response should not be an error: %v", err)
	}
	if elapsed > 300*time.Millisecond {
		t.Errorf("call blocked for %v", elapsed)
	}

	select {
	case body := <-received:
		if body["entity_id"] != "switch.a" {
			t.Errorf("body: got %v", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub never received the request")
	}
}

func TestClient_FireAndForgetUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := newClient(url+"/api").CallService(context.Background(), "switch.turn_on",
		map[string]any{"entity_id": "switch.a"}, false)
	if !errors.Is(err, domain.ErrHubCommunication) {
		t.Fatalf("error should wrap ErrHubCommunication, got %v", err)
	}
}

func TestClient_InvalidServiceName(t *testing.T) {
	err := newClient("http://127.0.0.1:1/api").CallService(context.Background(), "turn_on", nil, true)
	if err == nil {
		t.Fatal("expected error for service without domain")
	}
}
