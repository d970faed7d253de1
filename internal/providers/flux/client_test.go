package flux

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"moodshift/internal/domain"
)

func TestGenerateImageImmediatelyReady(t *testing.T) {
	var submits, polls, fetches atomic.Int32
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("POST /v1/flux-2-klein-9b", func(w http.ResponseWriter, r *http.Request) {
		submits.Add(1)
		if got := r.Header.Get("x-key"); got != "test-key" {
			t.Fatalf("unexpected x-key header: %s", got)
		}
		var payload submitRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if payload.Prompt != "apply warm filter" {
			t.Fatalf("prompt mismatch: %s", payload.Prompt)
		}
		if payload.OutputFormat != "png" {
			t.Fatalf("output_format mismatch: %s", payload.OutputFormat)
		}
		_ = json.NewEncoder(w).Encode(submitResponse{PollingURL: ts.URL + "/poll"})
	})
	mux.HandleFunc("GET /poll", func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		resp := pollResponse{Status: "Ready"}
		resp.Result.Sample = ts.URL + "/sample"
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("GET /sample", func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		_, _ = w.Write([]byte("PNGDATA"))
	})

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL, PollInterval: time.Millisecond})
	got, err := client.GenerateImage(context.Background(), "apply warm filter", "aW1n")
	if err != nil {
		t.Fatalf("GenerateImage error: %v", err)
	}
	if string(got) != "PNGDATA" {
		t.Fatalf("unexpected bytes: %q", got)
	}
	if submits.Load() != 1 || polls.Load() != 1 || fetches.Load() != 1 {
		t.Fatalf("unexpected call counts: submits=%d polls=%d fetches=%d", submits.Load(), polls.Load(), fetches.Load())
	}
}

func TestGenerateImageCreditAndRateLimitFailures(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{http.StatusPaymentRequired, "insufficient credits"},
		{http.StatusTooManyRequests, "rate limited"},
	}
	for _, tc := range cases {
		var polls atomic.Int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				polls.Add(1)
			}
			w.WriteHeader(tc.status)
		}))

		client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL, PollInterval: time.Millisecond})
		_, err := client.GenerateImage(context.Background(), "p", "i")
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("status %d: expected %q error, got %v", tc.status, tc.want, err)
		}
		if !domain.IsServiceError(err) {
			t.Fatalf("status %d: expected ServiceError, got %T", tc.status, err)
		}
		if polls.Load() != 0 {
			t.Fatalf("status %d: polled %d times after failed submit", tc.status, polls.Load())
		}
		ts.Close()
	}
}

func TestGenerateImageMissingPollingURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	_, err := client.GenerateImage(context.Background(), "p", "i")
	if err == nil || !strings.Contains(err.Error(), "polling_url") {
		t.Fatalf("expected missing polling_url error, got %v", err)
	}
}

func TestGenerateImagePendingUntilTimeout(t *testing.T) {
	var polls atomic.Int32
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("POST /v1/flux-2-klein-9b", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(submitResponse{PollingURL: ts.URL + "/poll"})
	})
	mux.HandleFunc("GET /poll", func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		_ = json.NewEncoder(w).Encode(pollResponse{Status: "Pending"})
	})

	client := NewClient(Options{
		APIKey:       "test-key",
		BaseURL:      ts.URL,
		PollInterval: time.Millisecond,
		PollTimeout:  100 * time.Millisecond,
	})
	_, err := client.GenerateImage(context.Background(), "p", "i")
	if err == nil || !strings.Contains(err.Error(), "polling timed out") {
		t.Fatalf("expected polling timeout error, got %v", err)
	}
	if polls.Load() < 10 {
		t.Fatalf("expected repeated polls before timeout, got %d", polls.Load())
	}
}

func TestGenerateImageFailedStatus(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("POST /v1/flux-2-klein-9b", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(submitResponse{PollingURL: ts.URL + "/poll"})
	})
	mux.HandleFunc("GET /poll", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"Failed","details":"nsfw filter"}`))
	})

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL, PollInterval: time.Millisecond})
	_, err := client.GenerateImage(context.Background(), "p", "i")
	if err == nil || !strings.Contains(err.Error(), "nsfw filter") {
		t.Fatalf("expected failure carrying the raw payload, got %v", err)
	}
}

func TestGenerateImageReadyWithoutSample(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("POST /v1/flux-2-klein-9b", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(submitResponse{PollingURL: ts.URL + "/poll"})
	})
	mux.HandleFunc("GET /poll", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pollResponse{Status: "Ready"})
	})

	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL, PollInterval: time.Millisecond})
	_, err := client.GenerateImage(context.Background(), "p", "i")
	if err == nil || !strings.Contains(err.Error(), "no sample url") {
		t.Fatalf("expected missing sample url error, got %v", err)
	}
}

func TestGenerateImageCanceledContext(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("POST /v1/flux-2-klein-9b", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(submitResponse{PollingURL: ts.URL + "/poll"})
	})
	mux.HandleFunc("GET /poll", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pollResponse{Status: "Pending"})
	})

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL, PollInterval: time.Hour})

	errCh := make(chan error, 1)
	go func() {
		_, err := client.GenerateImage(ctx, "p", "i")
		errCh <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err == nil || !strings.Contains(err.Error(), "canceled") {
			t.Fatalf("expected cancellation error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("polling loop did not honor context cancellation")
	}
}
