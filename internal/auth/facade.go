// Package auth exposes login, logout and password reset to the rest of the
// client and keeps the user cache in step with the session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/logger"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/session"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/usercache"
	"go.uber.org/zap"
)

const (
	msgNoSession     = "No session created"
	msgLoginFailed   = "Login failed"
	msgLogoutFailed  = "Logout failed"
	msgResetFailed   = "Password reset failed"
	msgMissingFields = "Email and password are required"
	msgMissingEmail  = "Email is required"
)

// Result is the outcome of a facade operation. Error is only set on failure.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func ok() Result { return Result{Success: true} }
func failed(msg string) Result { return Result{Success: false, Error: msg} }

// Authenticator is the auth service as the facade sees it
type Authenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) error
}

// Navigator moves the user interface to a route
type Navigator interface {
	Redirect(route string)
}

// Cache is the part of the user cache the facade drives
type Cache interface {
	Read() *models.UserProfile
	Load(ctx context.Context) (*models.UserProfile, error)
	Refresh(ctx context.Context) usercache.RefreshResult
	Invalidate()
	Subscribe(cb usercache.Callback) *usercache.Subscription
}

// Facade ties the authenticator, the user cache and navigation together
type Facade struct {
	authn      Authenticator
	cache      Cache
	navigator  Navigator
	entryRoute string
	logger     *zap.Logger
}

// NewFacade creates a facade. After logout the navigator is sent to entryRoute.
func NewFacade(authn Authenticator, cache Cache, navigator Navigator, entryRoute string, log *zap.Logger) *Facade {
	if log == nil {
		log = zap.NewNop()
	}
	if entryRoute == "" {
		entryRoute = "/"
	}
	return &Facade{
		authn:      authn,
		cache:      cache,
		navigator:  navigator,
		entryRoute: entryRoute,
		logger:     log,
	}
}

// Login signs in and loads the user's profile into the cache
func (f *Facade) Login(ctx context.Context, email, password string) (result Result) {
	defer f.recoverInto(&result, "login", msgLoginFailed)

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return failed(msgMissingFields)
	}

	sess, err := f.authn.SignInWithPassword(ctx, email, password)
	if err != nil {
		f.logger.Info("login_failed",
			zap.String("email", logger.MaskEmail(email)),
			zap.String("error", logger.SanitizeError(err)),
		)
		return failed(messageFor(err, msgLoginFailed))
	}
	if sess == nil {
		return failed(msgNoSession)
	}

	// A failed profile load does not undo a successful sign in
	refresh := f.cache.Refresh(ctx)
	if refresh.Err != nil {
		f.logger.Warn("login_profile_refresh_failed",
			zap.String("status", refresh.Status.String()),
			zap.String("error", logger.SanitizeError(refresh.Err)),
		)
	}
	return ok()
}

// Logout signs out, sends the user to the entry route and clears the cache, in that order.
// The redirect and the cache clear happen even when sign out fails.
func (f *Facade) Logout(ctx context.Context) (result Result) {
	result = ok()

	func() {
		defer f.recoverInto(&result, "logout", msgLogoutFailed)
		if err := f.authn.SignOut(ctx); err != nil {
			f.logger.Warn("logout_sign_out_failed", zap.String("error", logger.SanitizeError(err)))
			result = failed(messageFor(err, msgLogoutFailed))
		}
	}()

	if f.navigator != nil {
		func() {
			defer f.recoverInto(&result, "logout_redirect", msgLogoutFailed)
			f.navigator.Redirect(f.entryRoute)
		}()
	}

	f.cache.Invalidate()
	return result
}

// RequestPasswordReset asks the auth service to send a reset e-mail
func (f *Facade) RequestPasswordReset(ctx context.Context, email string) (result Result) {
	defer f.recoverInto(&result, "password_reset", msgResetFailed)

	email = strings.TrimSpace(email)
	if email == "" {
		return failed(msgMissingEmail)
	}

	if err := f.authn.RequestPasswordReset(ctx, email); err != nil {
		f.logger.Info("password_reset_failed",
			zap.String("email", logger.MaskEmail(email)),
			zap.String("error", logger.SanitizeError(err)),
		)
		return failed(messageFor(err, msgResetFailed))
	}
	return ok()
}

// RefreshUser re-fetches the profile
func (f *Facade) RefreshUser(ctx context.Context) usercache.RefreshResult {
	return f.cache.Refresh(ctx)
}

// CurrentUser returns the cached profile, fetching it when the cache is empty
func (f *Facade) CurrentUser(ctx context.Context) (*models.UserProfile, error) {
	return f.cache.Load(ctx)
}

// User returns the cached profile without I/O
func (f *Facade) User() *models.UserProfile {
	return f.cache.Read()
}

// Subscribe registers cb for profile changes
func (f *Facade) Subscribe(cb usercache.Callback) *usercache.Subscription {
	return f.cache.Subscribe(cb)
}

func (f *Facade) recoverInto(result *Result, op, msg string) {
	if rec := recover(); rec != nil {
		f.logger.Error("auth_operation_panicked",
			zap.String("operation", op),
			zap.String("panic", fmt.Sprint(rec)),
		)
		*result = failed(msg)
	}
}

// messageFor returns the auth service's own text when there is one.
// Transport and storage errors carry URLs and paths, so they only reach the log.
func messageFor(err error, fallback string) string {
	var authErr *session.AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	return fallback
}
