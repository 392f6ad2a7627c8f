package identity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"taskticker-api/domain"
)

const (
	registerPath = "/v1/accounts/register"
	loginPath    = "/v1/accounts/login"
	logoutPath   = "/v1/accounts/logout"
	lookupPath   = "/v1/accounts/me"

	maxProviderResponseSize = 64 * 1024
)

// ProviderError carries a failure reported by the identity provider. The
// message is surfaced to the user verbatim.
type ProviderError struct {
	Status  int
	Message string
}

func (e ProviderError) Error() string { return e.Message }

// Client talks to the hosted identity provider over HTTP. When a session is
// bound, every successful register, login, logout and lookup feeds the auth
// state stream.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	logger  *log.Logger

	mu    sync.Mutex
	token string
}

// NewClient creates a provider client. session may be nil for callers that
// thread their own request-scoped sessions.
func NewClient(baseURL string, session *Session, logger *log.Logger) *Client {
	if logger == nil {
		panic("identity.NewClient: logger is required")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		session: session,
		logger:  logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountResponse struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
}

type providerErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Register creates an account. The password confirmation is checked locally
// before any provider call. Returns the identity and its ID token.
func (c *Client) Register(ctx context.Context, email, password, confirmPassword string) (domain.Identity, string, error) {
	if err := domain.ValidateRegistration(email, password, confirmPassword); err != nil {
		return domain.Identity{}, "", err
	}
	return c.authenticate(ctx, registerPath, email, password)
}

// Login signs an existing account in and returns the identity and its ID token.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Identity, string, error) {
	if err := domain.ValidateLogin(email, password); err != nil {
		return domain.Identity{}, "", err
	}
	return c.authenticate(ctx, loginPath, email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (domain.Identity, string, error) {
	body, err := sonic.Marshal(credentialsRequest{Email: email, Password: password})
	if err != nil {
		return domain.Identity{}, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return domain.Identity{}, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Identity{}, "", fmt.Errorf("identity provider: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderResponseSize))
	if err != nil {
		return domain.Identity{}, "", fmt.Errorf("identity provider: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Identity{}, "", providerFailure(resp.StatusCode, data)
	}

	var acct accountResponse
	if err := sonic.Unmarshal(data, &acct); err != nil {
		return domain.Identity{}, "", fmt.Errorf("identity provider: decode response: %w", err)
	}
	id := domain.Identity{ID: acct.UserID, Email: acct.Email, DisplayName: acct.DisplayName}

	c.mu.Lock()
	c.token = acct.IDToken
	c.mu.Unlock()
	if c.session != nil {
		c.session.Set(&id)
	}
	return id, acct.IDToken, nil
}

// Logout invalidates the given token with the provider. A bound session is
// cleared even when the provider call fails; the caller is logged out locally
// either way.
func (c *Client) Logout(ctx context.Context, token string) error {
	c.mu.Lock()
	if token == "" {
		token = c.token
	}
	c.token = ""
	c.mu.Unlock()
	if c.session != nil {
		c.session.Set(nil)
	}
	if token == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+logoutPath, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxProviderResponseSize))
		return providerFailure(resp.StatusCode, data)
	}
	return nil
}

// Lookup resolves the identity behind the given token.
func (c *Client) Lookup(ctx context.Context, token string) (domain.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+lookupPath, nil)
	if err != nil {
		return domain.Identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("identity provider: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderResponseSize))
	if err != nil {
		return domain.Identity{}, fmt.Errorf("identity provider: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Identity{}, providerFailure(resp.StatusCode, data)
	}

	var acct accountResponse
	if err := sonic.Unmarshal(data, &acct); err != nil {
		return domain.Identity{}, fmt.Errorf("identity provider: decode response: %w", err)
	}
	return domain.Identity{ID: acct.UserID, Email: acct.Email, DisplayName: acct.DisplayName}, nil
}

// CurrentIdentity resolves the stored token to an identity, feeding a bound
// session. A missing or rejected token resolves to logged out, not an error.
func (c *Client) CurrentIdentity(ctx context.Context) (*domain.Identity, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token == "" {
		if c.session != nil {
			c.session.Set(nil)
		}
		return nil, nil
	}

	id, err := c.Lookup(ctx, token)
	if err != nil {
		var perr ProviderError
		if errors.As(err, &perr) && perr.Status == http.StatusUnauthorized {
			c.mu.Lock()
			c.token = ""
			c.mu.Unlock()
			if c.session != nil {
				c.session.Set(nil)
			}
			return nil, nil
		}
		return nil, err
	}
	if c.session != nil {
		c.session.Set(&id)
	}
	return &id, nil
}

func providerFailure(status int, data []byte) error {
	var parsed providerErrorResponse
	msg := ""
	if err := sonic.Unmarshal(data, &parsed); err == nil {
		msg = parsed.Error.Message
	}
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return ProviderError{Status: status, Message: msg}
}
