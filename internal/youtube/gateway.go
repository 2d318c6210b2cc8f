package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ccalu/channelpulse/internal/metrics"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	requestTimeout = 60 * time.Second
	maxRetries     = 3
)

// API endpoints the gateway knows how to call.
const (
	EndpointChannels       = "channels"
	EndpointSearch         = "search"
	EndpointVideos         = "videos"
	EndpointCommentThreads = "commentThreads"
)

// requestCost returns the quota price of an endpoint per the Data API v3
// pricing table. search.list is the expensive one; unknown endpoints cost 1.
func requestCost(endpoint string) int {
	if endpoint == EndpointSearch {
		return 100
	}
	return 1
}

// Gateway is the single chokepoint for outbound YouTube calls. It selects a
// credential, awaits that credential's rate limiter, charges quota, dispatches
// the request, and classifies every failure into a Fault kind. Nothing else
// in the process performs YouTube HTTP.
type Gateway struct {
	baseURL  string
	client   *http.Client
	pool     *CredentialPool
	limiters []*RateLimiter
	log      zerolog.Logger
}

// NewGateway builds a gateway over the given API keys with one rate limiter
// per key.
func NewGateway(keys []string, maxReq int, window time.Duration, logger zerolog.Logger) *Gateway {
	limiters := make([]*RateLimiter, len(keys))
	for i := range keys {
		limiters[i] = NewRateLimiter(maxReq, window)
	}
	return &Gateway{
		baseURL:  defaultBaseURL,
		client:   &http.Client{Timeout: requestTimeout},
		pool:     NewCredentialPool(keys),
		limiters: limiters,
		log:      logger,
	}
}

// Pool exposes the credential pool for run-level rotation and accounting.
func (g *Gateway) Pool() *CredentialPool { return g.pool }

// SetBaseURL overrides the API host. Used by tests.
func (g *Gateway) SetBaseURL(u string) { g.baseURL = strings.TrimRight(u, "/") }

// Call performs one logical API request with credential rotation and bounded
// retries. channel labels the quota spend for per-channel accounting. On
// success the decoded-ready body is returned; on failure a *Fault.
func (g *Gateway) Call(ctx context.Context, endpoint string, params url.Values, channel string) ([]byte, error) {
	cost := requestCost(endpoint)

	var lastFault *Fault
	for attempt := 0; attempt <= maxRetries; attempt++ {
		cred, ok := g.pool.Current()
		if !ok {
			if lastFault != nil && lastFault.Kind == FaultQuotaExhausted {
				return nil, lastFault
			}
			return nil, &Fault{Kind: FaultNoCredential, Message: "no eligible API key"}
		}

		if err := g.limiters[cred.Index].Acquire(ctx); err != nil {
			return nil, err
		}
		g.pool.Charge(cred.Index, channel, cost)

		body, fault := g.dispatch(ctx, endpoint, params, cred.Key)
		if fault == nil {
			return body, nil
		}
		lastFault = fault
		metrics.APIFaults.WithLabelValues(fault.Kind.String()).Inc()

		switch fault.Kind {
		case FaultQuotaExhausted:
			g.log.Error().Int("key", cred.Index).Msg("quota exceeded, key exhausted until UTC midnight")
			g.pool.MarkExhausted(cred.Index, time.Now().UTC())
			g.pool.Rotate()
			if g.pool.AllUnavailable() {
				return nil, fault
			}
		case FaultRateLimited:
			wait := time.Duration(30*(1<<attempt)) * time.Second
			g.log.Warn().Int("key", cred.Index).Dur("backoff", wait).Msg("per-key rate limit hit")
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
		case FaultSuspended:
			g.log.Error().Int("key", cred.Index).Str("reason", fault.Reason).Msg("key suspended until restart")
			g.pool.MarkSuspended(cred.Index)
			g.pool.Rotate()
			if g.pool.AllUnavailable() {
				return nil, &Fault{Kind: FaultNoCredential, Message: "all keys suspended or exhausted", Err: fault}
			}
		case FaultTimeout:
			if err := sleepCtx(ctx, 5*time.Second); err != nil {
				return nil, err
			}
		case FaultTransport:
			if fault.Status > 0 {
				// Definite HTTP answer: not worth retrying blindly.
				return nil, fault
			}
			wait := time.Duration(3+2*attempt) * time.Second
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
		default:
			return nil, fault
		}
	}
	return nil, lastFault
}

// dispatch performs a single HTTP attempt and maps the outcome to a Fault.
func (g *Gateway) dispatch(ctx context.Context, endpoint string, params url.Values, key string) ([]byte, *Fault) {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("key", key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/"+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &Fault{Kind: FaultTransport, Err: err}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Fault{Kind: FaultTransport, Status: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusForbidden:
		var ae apiError
		if err := json.Unmarshal(body, &ae); err != nil {
			return nil, &Fault{Kind: FaultTransport, Status: resp.StatusCode, Message: snippet(body)}
		}
		kind := classify403(ae.reason(), ae.Error.Message)
		return nil, &Fault{Kind: kind, Status: resp.StatusCode, Reason: ae.reason(), Message: ae.Error.Message}
	default:
		return nil, &Fault{
			Kind:    FaultTransport,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, snippet(body)),
		}
	}
}

// classifyTransport maps client-side errors: deadline overruns are timeouts,
// terminated connections (HTTP/2 GOAWAY, resets) and everything else are
// transport faults retried with a growing delay.
func classifyTransport(err error) *Fault {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Fault{Kind: FaultTimeout, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Fault{Kind: FaultTimeout, Err: err}
	}
	return &Fault{Kind: FaultTransport, Err: err}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func snippet(body []byte) string {
	const max = 200
	s := string(body)
	if len(s) > max {
		return s[:max]
	}
	return s
}
