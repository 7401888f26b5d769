package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/logger"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/services/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const maxAuthResponseBytes = 64 * 1024

// Manager implements Accessor on top of the auth service and a TokenStore
type Manager struct {
	client     *oidc.Client
	store      TokenStore
	authURL    string
	httpClient *http.Client
	logger     *zap.Logger

	// refreshMu keeps concurrent Session calls from spending the same refresh token twice
	refreshMu sync.Mutex
}

// NewManager creates a session manager for the auth service at authURL
func NewManager(client *oidc.Client, store TokenStore, authURL string, httpClient *http.Client, log *zap.Logger) *Manager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		client:     client,
		store:      store,
		authURL:    authURL,
		httpClient: httpClient,
		logger:     log,
	}
}

// SignInWithPassword exchanges credentials for a token and persists it
func (m *Manager) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	tok, err := m.client.PasswordToken(ctx, email, password)
	if err != nil {
		return nil, asAuthError(err)
	}

	if err := m.store.Save(ctx, tok); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	sess := m.sessionFromToken(tok)
	m.logger.Info("signed_in",
		zap.String("user_id", sess.UserID),
		zap.String("email", logger.MaskEmail(email)),
	)
	return sess, nil
}

// Session returns the current session, refreshing the stored token when it has expired
func (m *Manager) Session(ctx context.Context) (*models.Session, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	tok, err := m.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if tok == nil {
		return nil, nil
	}
	if tok.Valid() {
		return m.sessionFromToken(tok), nil
	}
	if tok.RefreshToken == "" {
		m.logger.Debug("session_expired_without_refresh_token")
		return nil, m.clear(ctx)
	}

	fresh, err := m.client.TokenSource(ctx, tok).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil &&
			retrieveErr.Response.StatusCode >= 400 && retrieveErr.Response.StatusCode < 500 {
			m.logger.Info("session_refresh_rejected", zap.Int("status_code", retrieveErr.Response.StatusCode))
			return nil, m.clear(ctx)
		}
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	if fresh.AccessToken != tok.AccessToken {
		if err := m.store.Save(ctx, fresh); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed session: %w", err)
		}
		m.logger.Debug("session_refreshed")
	}
	return m.sessionFromToken(fresh), nil
}

// RequireSession is Session for callers that cannot continue without a signed-in user
func (m *Manager) RequireSession(ctx context.Context) (*models.Session, error) {
	sess, err := m.Session(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

// SignOut revokes the session at the auth service when possible and forgets it locally.
// Only a failure to clear the local store is returned.
func (m *Manager) SignOut(ctx context.Context) error {
	tok, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("sign_out_load_failed", zap.String("error", logger.SanitizeError(err)))
	}

	if tok != nil && tok.AccessToken != "" {
		if err := m.revoke(ctx, tok.AccessToken); err != nil {
			m.logger.Warn("sign_out_remote_failed", zap.String("error", logger.SanitizeError(err)))
		}
	}

	if err := m.clear(ctx); err != nil {
		return err
	}
	m.logger.Info("signed_out")
	return nil
}

// RequestPasswordReset asks the auth service to e-mail a password reset link
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) error {
	body, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return fmt.Errorf("failed to encode reset request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.authURL+"/recover", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create reset request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := m.do(req); err != nil {
		return err
	}
	m.logger.Info("password_reset_requested", zap.String("email", logger.MaskEmail(email)))
	return nil
}

func (m *Manager) revoke(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.authURL+"/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to create logout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return m.do(req)
}

func (m *Manager) do(req *http.Request) error {
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth service request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxAuthResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return authErrorFromBody(resp.StatusCode, body)
	}
	return nil
}

func (m *Manager) clear(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (m *Manager) sessionFromToken(tok *oauth2.Token) *models.Session {
	sess := &models.Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		Expiry:       tok.Expiry,
	}

	// Opaque tokens are allowed; the user id is then only known to the API
	claims, err := oidc.ParseClaims(tok.AccessToken)
	if err != nil {
		m.logger.Debug("access_token_claims_unavailable", zap.String("error", logger.SanitizeError(err)))
		return sess
	}
	sess.UserID = claims.Sub
	sess.Email = claims.Email
	return sess
}

func asAuthError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return fmt.Errorf("sign in request failed: %w", err)
	}

	statusCode := 0
	if retrieveErr.Response != nil {
		statusCode = retrieveErr.Response.StatusCode
	}
	if retrieveErr.ErrorDescription != "" {
		return &AuthError{StatusCode: statusCode, Message: retrieveErr.ErrorDescription}
	}
	return authErrorFromBody(statusCode, retrieveErr.Body)
}
