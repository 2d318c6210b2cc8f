package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testGateway(t *testing.T, keys []string, handler http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g := NewGateway(keys, 90, 100*time.Second, zerolog.Nop())
	g.SetBaseURL(srv.URL)
	return g
}

func write403(w http.ResponseWriter, reason, message string) {
	w.WriteHeader(http.StatusForbidden)
	fmt.Fprintf(w, `{"error":{"code":403,"message":%q,"errors":[{"reason":%q,"message":%q}]}}`,
		message, reason, message)
}

func TestGateway_FetchChannelInfo(t *testing.T) {
	g := testGateway(t, []string{"key-a"}, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "key-a" {
			t.Errorf("key param = %q", r.URL.Query().Get("key"))
		}
		fmt.Fprint(w, `{"items":[{
			"id":"UCabcdefghij1234567890AB",
			"snippet":{"title":"Test Channel","customUrl":"@test"},
			"statistics":{"subscriberCount":"12500","videoCount":"300","viewCount":"9000000"}
		}]}`)
	})

	info, err := g.FetchChannelInfo(context.Background(), "UCabcdefghij1234567890AB", "test")
	if err != nil {
		t.Fatal(err)
	}
	if info.Title != "Test Channel" || info.SubscriberCount != 12500 || info.ViewCount != 9000000 {
		t.Errorf("info = %+v", info)
	}
	if units := g.Pool().TotalUnits(); units != 1 {
		t.Errorf("channels.list charged %d units, want 1", units)
	}
}

func TestGateway_ChannelNotFound(t *testing.T) {
	g := testGateway(t, []string{"key-a"}, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[]}`)
	})

	_, err := g.FetchChannelInfo(context.Background(), "UCmissing", "test")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGateway_QuotaExhaustionRotatesKey(t *testing.T) {
	g := testGateway(t, []string{"key-a", "key-b"}, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "key-a" {
			write403(w, "quotaExceeded", "The request cannot be completed because you have exceeded your quota.")
			return
		}
		fmt.Fprint(w, `{"items":[{"id":"UCx","snippet":{},"statistics":{"subscriberCount":"1"}}]}`)
	})

	info, err := g.FetchChannelInfo(context.Background(), "UCx", "test")
	if err != nil {
		t.Fatalf("call should succeed on the second key: %v", err)
	}
	if info.SubscriberCount != 1 {
		t.Errorf("info = %+v", info)
	}
	if g.Pool().StateOf(0) != CredentialExhausted {
		t.Error("first key should be marked exhausted")
	}
	if g.Pool().StateOf(1) != CredentialActive {
		t.Error("second key should stay active")
	}
}

func TestGateway_AllKeysExhaustedReturnsQuotaFault(t *testing.T) {
	g := testGateway(t, []string{"key-a", "key-b"}, func(w http.ResponseWriter, r *http.Request) {
		write403(w, "quotaExceeded", "quota exceeded")
	})

	_, err := g.FetchChannelInfo(context.Background(), "UCx", "test")
	if !IsQuotaExhausted(err) {
		t.Errorf("err = %v, want quota exhaustion", err)
	}
	if !g.Pool().AllUnavailable() {
		t.Error("every key should be unavailable")
	}
}

func TestGateway_SuspendedKeyFallsThrough(t *testing.T) {
	g := testGateway(t, []string{"key-a", "key-b"}, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "key-a" {
			write403(w, "accessNotConfigured", "API key not valid")
			return
		}
		fmt.Fprint(w, `{"items":[{"id":"UCx","snippet":{},"statistics":{"subscriberCount":"7"}}]}`)
	})

	info, err := g.FetchChannelInfo(context.Background(), "UCx", "test")
	if err != nil {
		t.Fatalf("call should succeed on the second key: %v", err)
	}
	if info.SubscriberCount != 7 {
		t.Errorf("info = %+v", info)
	}
	if g.Pool().StateOf(0) != CredentialSuspended {
		t.Error("first key should be suspended")
	}
}

func TestGateway_SearchCostsOneHundredUnits(t *testing.T) {
	g := testGateway(t, []string{"key-a"}, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[],"nextPageToken":""}`)
	})

	_, _, err := g.SearchRecentVideos(context.Background(), "UCx", time.Now().AddDate(0, 0, -30), "", "test")
	if err != nil {
		t.Fatal(err)
	}
	if units := g.Pool().TotalUnits(); units != 100 {
		t.Errorf("search.list charged %d units, want 100", units)
	}
}

func TestGateway_ServerErrorIsTransportFault(t *testing.T) {
	g := testGateway(t, []string{"key-a"}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":400,"message":"bad request"}}`)
	})

	_, err := g.FetchChannelInfo(context.Background(), "UCx", "test")
	kind, ok := FaultKindOf(err)
	if !ok || kind != FaultTransport {
		t.Errorf("err = %v, want transport fault", err)
	}
}

func TestGateway_NoKeysMeansNoCredential(t *testing.T) {
	g := NewGateway(nil, 90, 100*time.Second, zerolog.Nop())

	_, err := g.Call(context.Background(), EndpointChannels, nil, "test")
	kind, ok := FaultKindOf(err)
	if !ok || kind != FaultNoCredential {
		t.Errorf("err = %v, want no_credential fault", err)
	}
}
