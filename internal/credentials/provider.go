// Package credentials resolves the Firebase service account and exchanges it
// for bearer tokens accepted by the FCM v1 API.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	apperrors "github.com/eternisai/push-panel/internal/errors"
	"github.com/eternisai/push-panel/internal/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"golang.org/x/sync/singleflight"
)

// DefaultScope is the scope the desktop sender has always requested.
const DefaultScope = "https://www.googleapis.com/auth/cloud-platform"

// Options configures a Provider.
type Options struct {
	Scopes []string
	// RefreshMargin is how long before expiry a cached token is replaced.
	RefreshMargin time.Duration
	// HTTPClient is used for the token exchange. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// serviceAccount holds the fields of the key document checked at load time.
type serviceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
}

// Provider owns the service-account credential and a cached access token.
type Provider struct {
	projectID string
	credJSON  []byte
	jwtConfig *jwt.Config

	refreshMargin time.Duration
	httpClient    *http.Client
	logger        *logger.Logger
	now           func() time.Time

	mu     sync.RWMutex
	cached *oauth2.Token
	group  singleflight.Group
}

// LoadFile reads the service-account key document at path.
func LoadFile(path string, opts Options, log *logger.Logger) (*Provider, error) {
	credJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, &apperrors.ConfigurationError{Resource: path, Err: err}
	}

	p, err := New(credJSON, opts, log)
	if err != nil {
		if cfgErr, ok := err.(*apperrors.ConfigurationError); ok {
			cfgErr.Resource = path
		}
		return nil, err
	}

	return p, nil
}

// New parses a service-account key document. Any problem with the document is
// reported as a *errors.ConfigurationError.
func New(credJSON []byte, opts Options, log *logger.Logger) (*Provider, error) {
	var sa serviceAccount
	if err := json.Unmarshal(credJSON, &sa); err != nil {
		return nil, &apperrors.ConfigurationError{Resource: "service account", Err: fmt.Errorf("malformed JSON: %w", err)}
	}

	switch {
	case sa.ProjectID == "":
		return nil, &apperrors.ConfigurationError{Resource: "service account", Err: fmt.Errorf("project_id is missing")}
	case sa.PrivateKey == "":
		return nil, &apperrors.ConfigurationError{Resource: "service account", Err: fmt.Errorf("private_key is missing")}
	case sa.ClientEmail == "":
		return nil, &apperrors.ConfigurationError{Resource: "service account", Err: fmt.Errorf("client_email is missing")}
	}

	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = []string{DefaultScope}
	}

	jwtConfig, err := google.JWTConfigFromJSON(credJSON, scopes...)
	if err != nil {
		return nil, &apperrors.ConfigurationError{Resource: "service account", Err: err}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Provider{
		projectID:     sa.ProjectID,
		credJSON:      credJSON,
		jwtConfig:     jwtConfig,
		refreshMargin: opts.RefreshMargin,
		httpClient:    httpClient,
		logger:        log,
		now:           time.Now,
	}, nil
}

// ProjectID returns the Google Cloud project the credential belongs to.
func (p *Provider) ProjectID() string {
	return p.projectID
}

// CredentialsJSON returns the raw key document.
func (p *Provider) CredentialsJSON() []byte {
	return p.credJSON
}

// AccessToken returns a bearer token for the messaging API. A cached token is
// reused until it is within the refresh margin of its expiry. Concurrent
// callers share a single exchange. Exchange failures are *errors.AuthError.
func (p *Provider) AccessToken(ctx context.Context) (*oauth2.Token, error) {
	if tok := p.validCached(); tok != nil {
		return tok, nil
	}

	ch := p.group.DoChan("token", func() (interface{}, error) {
		// Another caller may have refreshed while we waited for the group.
		if tok := p.validCached(); tok != nil {
			return tok, nil
		}
		return p.refresh(ctx)
	})

	select {
	case <-ctx.Done():
		return nil, &apperrors.AuthError{Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*oauth2.Token), nil
	}
}

// Invalidate drops the cached token so the next call performs an exchange.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = nil
}

func (p *Provider) validCached() *oauth2.Token {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.cached == nil || p.cached.AccessToken == "" {
		return nil
	}
	// Tokens without an expiry are treated as expired: the exchange always
	// returns expires_in, so a missing one means something is off.
	if p.cached.Expiry.IsZero() || !p.now().Add(p.refreshMargin).Before(p.cached.Expiry) {
		return nil
	}
	return p.cached
}

func (p *Provider) refresh(ctx context.Context) (*oauth2.Token, error) {
	log := p.logger.WithContext(ctx).WithComponent("credentials")
	start := time.Now()

	// The exchange must outlive a single caller's cancellation since other
	// callers may be waiting on it; the HTTP client carries its own timeout.
	exchangeCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, p.httpClient)

	// A fresh TokenSource each time: jwt.Config.TokenSource caches internally,
	// and the expiry policy lives here.
	tok, err := p.jwtConfig.TokenSource(exchangeCtx).Token()
	if err != nil {
		log.Error("access token exchange failed",
			slog.String("project_id", p.projectID),
			slog.String("error", err.Error()))
		return nil, &apperrors.AuthError{Err: err}
	}

	p.mu.Lock()
	p.cached = tok
	p.mu.Unlock()

	log.Info("access token refreshed",
		slog.String("project_id", p.projectID),
		slog.Time("expires_at", tok.Expiry),
		slog.Duration("duration", time.Since(start)))

	return tok, nil
}
