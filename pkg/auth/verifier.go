package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abgdnv/gomarket/pkg/config"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"golang.org/x/sync/singleflight"
)

type Verifier interface {
	Verify(ctx context.Context, tokenString string) (jwt.Token, error)
}

// KeyFetcher loads a JWKS document.
type KeyFetcher func(ctx context.Context, url string) (jwk.Set, error)

// JWTVerifier checks signature, expiry, issuer and authorized party of bearer tokens.
// The key set is refreshed at most once per minInterval; concurrent refreshes share one fetch
// and a failed refresh keeps serving the last good set.
type JWTVerifier struct {
	jwksURL     string
	issuer      string
	clientID    string
	minInterval time.Duration
	fetch       KeyFetcher
	now         func() time.Time

	refresh singleflight.Group
	mu      sync.RWMutex
	keys    jwk.Set
	fetched time.Time
}

// NewJWTVerifier creates a verifier and fetches the key set once, failing fast on a bad JWKS URL.
func NewJWTVerifier(ctx context.Context, cfg config.IdP) (*JWTVerifier, error) {
	return newJWTVerifier(ctx, cfg, func(ctx context.Context, url string) (jwk.Set, error) {
		return jwk.Fetch(ctx, url)
	})
}

func newJWTVerifier(ctx context.Context, cfg config.IdP, fetch KeyFetcher) (*JWTVerifier, error) {
	v := &JWTVerifier{
		jwksURL:     cfg.JwksURL,
		issuer:      cfg.Issuer,
		clientID:    cfg.ClientID,
		minInterval: cfg.MinInterval,
		fetch:       fetch,
		now:         time.Now,
	}
	if _, err := v.keySet(ctx); err != nil {
		return nil, fmt.Errorf("initial JWKS fetch failed: %w", err)
	}
	return v, nil
}

func (v *JWTVerifier) cached() (jwk.Set, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.keys, v.keys != nil && v.now().Sub(v.fetched) < v.minInterval
}

func (v *JWTVerifier) keySet(ctx context.Context) (jwk.Set, error) {
	if set, fresh := v.cached(); fresh {
		return set, nil
	}
	set, err, _ := v.refresh.Do(v.jwksURL, func() (any, error) {
		fetched, err := v.fetch(ctx, v.jwksURL)
		if err != nil {
			if stale, _ := v.cached(); stale != nil {
				return stale, nil
			}
			return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", v.jwksURL, err)
		}
		v.mu.Lock()
		v.keys, v.fetched = fetched, v.now()
		v.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return set.(jwk.Set), nil
}

func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (jwt.Token, error) {
	set, err := v.keySet(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get keyset for verification: %w", err)
	}
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithClaimValue("azp", v.clientID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	return token, nil
}
