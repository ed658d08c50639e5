package discovery

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oif-labs/intentsolver/internal/solvererr"
	"github.com/oif-labs/intentsolver/internal/types"
)

func TestPollingHTTPSource_FetchOnceDecodesBase64Payloads(t *testing.T) {
	payloads := []string{
		base64.StdEncoding.EncodeToString([]byte("intent-a")),
		base64.StdEncoding.EncodeToString([]byte("intent-b")),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(payloads)
	}))
	defer srv.Close()

	src := NewPollingHTTPSource("offchain-1", srv.URL, types.StandardEIP7683Gasless, time.Minute)
	out := make(chan Event, 8)
	if err := src.fetchOnce(context.Background(), out); err != nil {
		t.Fatalf("fetchOnce: %v", err)
	}
	close(out)

	var got []RawIntent
	for ev := range out {
		got = append(got, ev.Intent)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 intents, got %d", len(got))
	}
	if string(got[0].Bytes) != "intent-a" || string(got[1].Bytes) != "intent-b" {
		t.Fatalf("got %+v", got)
	}
	if got[0].Hint != types.StandardEIP7683Gasless {
		t.Fatalf("Hint = %v, want %v", got[0].Hint, types.StandardEIP7683Gasless)
	}
}

func TestPollingHTTPSource_FetchOnceBadBase64EmitsEventErrorNotFatal(t *testing.T) {
	payloads := []string{"not-valid-base64!!", base64.StdEncoding.EncodeToString([]byte("ok"))}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(payloads)
	}))
	defer srv.Close()

	src := NewPollingHTTPSource("offchain-1", srv.URL, "", time.Minute)
	out := make(chan Event, 8)
	if err := src.fetchOnce(context.Background(), out); err != nil {
		t.Fatalf("fetchOnce: %v", err)
	}
	close(out)

	var errs, intents int
	for ev := range out {
		switch ev.Kind {
		case EventError:
			errs++
		case EventIntent:
			intents++
		}
	}
	if errs != 1 || intents != 1 {
		t.Fatalf("errs=%d intents=%d, want 1 and 1", errs, intents)
	}
}

func TestPollingHTTPSource_FetchOnceNon200IsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewPollingHTTPSource("offchain-1", srv.URL, "", time.Minute)
	err := src.fetchOnce(context.Background(), make(chan Event, 1))
	if !solvererr.IsTransient(err) {
		t.Fatalf("expected a transient error, got %v", err)
	}
}

func TestPollingHTTPSource_FetchOnceMalformedJSONIsParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	src := NewPollingHTTPSource("offchain-1", srv.URL, "", time.Minute)
	err := src.fetchOnce(context.Background(), make(chan Event, 1))
	if solvererr.KindOf(err) != solvererr.KindParse {
		t.Fatalf("KindOf(err) = %v, want KindParse", solvererr.KindOf(err))
	}
}
