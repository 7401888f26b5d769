package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nickym11111/forge-fall-25-project-sub000/internal/models"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/session"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/usercache"
)

// journal records the order in which collaborators were called
type journal struct {
	mu    sync.Mutex
	steps []string
}

func (j *journal) add(step string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.steps = append(j.steps, step)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.steps...)
}

type fakeAuthenticator struct {
	j          *journal
	sess       *models.Session
	signInErr  error
	signOutErr error
	resetErr   error
	panicOn    string
}

func (a *fakeAuthenticator) SignInWithPassword(_ context.Context, email, _ string) (*models.Session, error) {
	a.j.add("sign_in:" + email)
	if a.panicOn == "sign_in" {
		panic("unexpected")
	}
	return a.sess, a.signInErr
}

func (a *fakeAuthenticator) SignOut(context.Context) error {
	a.j.add("sign_out")
	if a.panicOn == "sign_out" {
		panic("unexpected")
	}
	return a.signOutErr
}

func (a *fakeAuthenticator) RequestPasswordReset(_ context.Context, email string) error {
	a.j.add("reset:" + email)
	return a.resetErr
}

type fakeNavigator struct{ j *journal }

func (n *fakeNavigator) Redirect(route string) { n.j.add("redirect:" + route) }

type fakeCache struct {
	j       *journal
	current *models.UserProfile
	result  usercache.RefreshResult
}

func (c *fakeCache) Read() *models.UserProfile { return c.current }

func (c *fakeCache) Load(context.Context) (*models.UserProfile, error) {
	c.j.add("load")
	return c.current, nil
}

func (c *fakeCache) Refresh(context.Context) usercache.RefreshResult {
	c.j.add("refresh")
	if c.result.Status == usercache.RefreshOK && c.result.Profile != nil {
		c.current = c.result.Profile
	}
	return c.result
}

func (c *fakeCache) Invalidate() {
	c.j.add("invalidate")
	c.current = nil
}

func (c *fakeCache) Subscribe(usercache.Callback) *usercache.Subscription {
	c.j.add("subscribe")
	return &usercache.Subscription{}
}

func newFixture() (*Facade, *fakeAuthenticator, *fakeCache, *journal) {
	j := &journal{}
	authn := &fakeAuthenticator{j: j, sess: &models.Session{AccessToken: "tok"}}
	cache := &fakeCache{j: j, result: usercache.RefreshResult{Status: usercache.RefreshOK, Profile: &models.UserProfile{ID: "u1"}}}
	return NewFacade(authn, cache, &fakeNavigator{j: j}, "/login", nil), authn, cache, j
}

func equalSteps(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestFacade_Login(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		email     string
		password  string
		setup     func(*fakeAuthenticator, *fakeCache)
		want      Result
		wantSteps []string
	}{
		{
			name:      "success refreshes the cache",
			email:     "u1@x.com",
			password:  "pw",
			want:      Result{Success: true},
			wantSteps: []string{"sign_in:u1@x.com", "refresh"},
		},
		{
			name:     "service message is returned verbatim",
			email:    "u1@x.com",
			password: "bad",
			setup: func(a *fakeAuthenticator, _ *fakeCache) {
				a.signInErr = &session.AuthError{StatusCode: 400, Message: "Invalid login credentials"}
			},
			want:      Result{Success: false, Error: "Invalid login credentials"},
			wantSteps: []string{"sign_in:u1@x.com"},
		},
		{
			name:     "transport errors use the generic message",
			email:    "u1@x.com",
			password: "pw",
			setup: func(a *fakeAuthenticator, _ *fakeCache) {
				a.signInErr = fmt.Errorf("sign in request failed: %w",
					errors.New(`Post "http://auth.internal:9999/token": dial tcp 10.0.0.7:9999: connect: connection refused`))
			},
			want:      Result{Success: false, Error: "Login failed"},
			wantSteps: []string{"sign_in:u1@x.com"},
		},
		{
			name:     "no session",
			email:    "u1@x.com",
			password: "pw",
			setup: func(a *fakeAuthenticator, _ *fakeCache) {
				a.sess = nil
			},
			want:      Result{Success: false, Error: "No session created"},
			wantSteps: []string{"sign_in:u1@x.com"},
		},
		{
			name:     "panic becomes Login failed",
			email:    "u1@x.com",
			password: "pw",
			setup: func(a *fakeAuthenticator, _ *fakeCache) {
				a.panicOn = "sign_in"
			},
			want:      Result{Success: false, Error: "Login failed"},
			wantSteps: []string{"sign_in:u1@x.com"},
		},
		{
			name:     "profile refresh failure still logs in",
			email:    "u1@x.com",
			password: "pw",
			setup: func(_ *fakeAuthenticator, c *fakeCache) {
				c.result = usercache.RefreshResult{Status: usercache.RefreshStale, Err: errors.New("502")}
			},
			want:      Result{Success: true},
			wantSteps: []string{"sign_in:u1@x.com", "refresh"},
		},
		{
			name:      "blank email rejected locally",
			email:     "  ",
			password:  "pw",
			want:      Result{Success: false, Error: "Email and password are required"},
			wantSteps: nil,
		},
		{
			name:      "blank password rejected locally",
			email:     "u1@x.com",
			password:  "",
			want:      Result{Success: false, Error: "Email and password are required"},
			wantSteps: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			facade, authn, cache, j := newFixture()
			if tt.setup != nil {
				tt.setup(authn, cache)
			}

			got := facade.Login(context.Background(), tt.email, tt.password)
			if got != tt.want {
				t.Errorf("Login() = %+v, want %+v", got, tt.want)
			}
			if steps := j.all(); !equalSteps(steps, tt.wantSteps) {
				t.Errorf("steps = %v, want %v", steps, tt.wantSteps)
			}
		})
	}
}

func TestFacade_Logout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(*fakeAuthenticator)
		want  Result
	}{
		{name: "success", want: Result{Success: true}},
		{
			name:  "sign out failure is reported",
			setup: func(a *fakeAuthenticator) { a.signOutErr = errors.New("failed to clear session: disk full") },
			want:  Result{Success: false, Error: "Logout failed"},
		},
		{
			name:  "sign out panic is reported",
			setup: func(a *fakeAuthenticator) { a.panicOn = "sign_out" },
			want:  Result{Success: false, Error: "Logout failed"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			facade, authn, cache, j := newFixture()
			cache.current = &models.UserProfile{ID: "u1"}
			if tt.setup != nil {
				tt.setup(authn)
			}

			got := facade.Logout(context.Background())
			if got != tt.want {
				t.Errorf("Logout() = %+v, want %+v", got, tt.want)
			}

			want := []string{"sign_out", "redirect:/login", "invalidate"}
			if steps := j.all(); !equalSteps(steps, want) {
				t.Errorf("steps = %v, want %v", steps, want)
			}
			if facade.User() != nil {
				t.Error("User() should be nil after logout")
			}
		})
	}
}

func TestFacade_LogoutWithoutNavigator(t *testing.T) {
	t.Parallel()

	j := &journal{}
	cache := &fakeCache{j: j}
	facade := NewFacade(&fakeAuthenticator{j: j}, cache, nil, "", nil)

	if got := facade.Logout(context.Background()); !got.Success {
		t.Errorf("Logout() = %+v", got)
	}
	if steps := j.all(); !equalSteps(steps, []string{"sign_out", "invalidate"}) {
		t.Errorf("steps = %v", steps)
	}
}

func TestFacade_RequestPasswordReset(t *testing.T) {
	t.Parallel()

	facade, authn, _, j := newFixture()

	if got := facade.RequestPasswordReset(context.Background(), ""); got.Success || got.Error != "Email is required" {
		t.Errorf("blank email = %+v", got)
	}
	if got := facade.RequestPasswordReset(context.Background(), " u1@x.com "); !got.Success {
		t.Errorf("RequestPasswordReset() = %+v", got)
	}

	authn.resetErr = &session.AuthError{Message: "For security purposes, you can only request this once every 60 seconds"}
	got := facade.RequestPasswordReset(context.Background(), "u1@x.com")
	if got.Success || got.Error != authn.resetErr.(*session.AuthError).Message {
		t.Errorf("rate limited reset = %+v", got)
	}

	authn.resetErr = errors.New(`recover request failed: Post "http://auth.internal:9999/recover": EOF`)
	got = facade.RequestPasswordReset(context.Background(), "u1@x.com")
	if got.Success || got.Error != "Password reset failed" {
		t.Errorf("transport failure = %+v, want the generic message", got)
	}

	if steps := j.all(); !equalSteps(steps, []string{"reset:u1@x.com", "reset:u1@x.com", "reset:u1@x.com"}) {
		t.Errorf("steps = %v", steps)
	}
}

func TestFacade_PassThroughs(t *testing.T) {
	t.Parallel()

	facade, _, cache, j := newFixture()
	cache.current = &models.UserProfile{ID: "u1"}

	if facade.User() != cache.current {
		t.Error("User() should read the cache")
	}
	if p, err := facade.CurrentUser(context.Background()); err != nil || p != cache.current {
		t.Errorf("CurrentUser() = %+v, %v", p, err)
	}
	if r := facade.RefreshUser(context.Background()); r.Status != usercache.RefreshOK {
		t.Errorf("RefreshUser() = %+v", r)
	}
	facade.Subscribe(func(*models.UserProfile) {})

	if steps := j.all(); !equalSteps(steps, []string{"load", "refresh", "subscribe"}) {
		t.Errorf("steps = %v", steps)
	}
}
