package youtube

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// IdentifierKind says how a channel URL named its channel.
type IdentifierKind int

const (
	// IdentifierChannelID is a canonical UC... channel ID.
	IdentifierChannelID IdentifierKind = iota
	// IdentifierHandle is an @handle.
	IdentifierHandle
	// IdentifierUsername is a legacy /c/ or /user/ name.
	IdentifierUsername
)

var (
	reTrailingPath = regexp.MustCompile(`/(videos|channel-analytics|about|featured|playlists|community|channels|streams|shorts).*$`)
	reChannelID    = regexp.MustCompile(`youtube\.com/channel/([a-zA-Z0-9_-]+)`)
	reHandle       = regexp.MustCompile(`youtube\.com/@([^/?&#]+)`)
	reCustom       = regexp.MustCompile(`youtube\.com/c/([^/?&#]+)`)
	reUser         = regexp.MustCompile(`youtube\.com/user/([^/?&#]+)`)
	reValidUCID    = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)
)

// ExtractIdentifier pulls the channel identifier out of a YouTube channel
// URL. Trailing section paths like /videos or /about are stripped first.
func ExtractIdentifier(rawURL string) (string, IdentifierKind, error) {
	cleaned := reTrailingPath.ReplaceAllString(strings.TrimSpace(rawURL), "")

	if m := reChannelID.FindStringSubmatch(cleaned); m != nil {
		id := m[1]
		if !reValidUCID.MatchString(id) {
			return "", 0, fmt.Errorf("malformed channel id in url %q", rawURL)
		}
		return id, IdentifierChannelID, nil
	}
	if m := reHandle.FindStringSubmatch(cleaned); m != nil {
		handle := m[1]
		if decoded, err := url.PathUnescape(handle); err == nil {
			handle = decoded
		}
		return handle, IdentifierHandle, nil
	}
	if m := reCustom.FindStringSubmatch(cleaned); m != nil {
		return m[1], IdentifierUsername, nil
	}
	if m := reUser.FindStringSubmatch(cleaned); m != nil {
		return m[1], IdentifierUsername, nil
	}
	return "", 0, fmt.Errorf("unrecognized channel url %q", rawURL)
}

// Resolver turns channel URLs into canonical channel IDs, caching results
// for the life of the process so repeated runs over the same roster spend
// no extra quota.
type Resolver struct {
	gateway *Gateway
	log     zerolog.Logger

	mu    sync.Mutex
	cache map[string]string
}

func NewResolver(gateway *Gateway, logger zerolog.Logger) *Resolver {
	return &Resolver{
		gateway: gateway,
		log:     logger,
		cache:   make(map[string]string),
	}
}

// Resolve returns the canonical channel ID for a channel URL. Handles are
// looked up with forHandle first and forUsername as a fallback, since older
// custom URLs still answer on the legacy parameter.
func (r *Resolver) Resolve(ctx context.Context, rawURL, label string) (string, error) {
	r.mu.Lock()
	if id, ok := r.cache[rawURL]; ok {
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	identifier, kind, err := ExtractIdentifier(rawURL)
	if err != nil {
		return "", err
	}

	var channelID string
	switch kind {
	case IdentifierChannelID:
		channelID = identifier
	case IdentifierHandle:
		channelID, err = r.lookup(ctx, identifier, label)
	case IdentifierUsername:
		channelID, err = r.gateway.LookupChannelID(ctx, "forUsername", identifier, label)
		if err == ErrNotFound {
			channelID, err = r.gateway.LookupChannelID(ctx, "forHandle", identifier, label)
		}
	}
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cache[rawURL] = channelID
	r.mu.Unlock()

	r.log.Debug().Str("url", rawURL).Str("channel_id", channelID).Msg("resolved channel url")
	return channelID, nil
}

func (r *Resolver) lookup(ctx context.Context, handle, label string) (string, error) {
	id, err := r.gateway.LookupChannelID(ctx, "forHandle", handle, label)
	if err == ErrNotFound {
		return r.gateway.LookupChannelID(ctx, "forUsername", handle, label)
	}
	return id, err
}

// CacheSize reports how many URLs have been resolved so far.
func (r *Resolver) CacheSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}
