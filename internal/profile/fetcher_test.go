package profile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fetchRecord struct {
	status int
}

type recordingRecorder struct {
	mu      sync.Mutex
	fetches []fetchRecord
}

func (r *recordingRecorder) RecordRefresh(string)         {}
func (r *recordingRecorder) RecordSubscriberFault()       {}
func (r *recordingRecorder) RecordInviteDelivered(string) {}
func (r *recordingRecorder) RecordInviteFailed(string)    {}
func (r *recordingRecorder) RecordProfileFetch(status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches = append(r.fetches, fetchRecord{status: status})
}

const fullProfile = `{
	"id": "u1",
	"email": "u1@x.com",
	"first_name": "Uma",
	"last_name": "One",
	"fridge_id": "f-legacy",
	"active_fridge_id": "f1",
	"fridge": {"id": "f1", "name": "Apartment 4B", "emails": ["u1@x.com", "u2@x.com"]},
	"fridge_count": 2,
	"fridgeMates": [
		{"id": "u2", "email": "u2@x.com", "first_name": "Two"},
		{"id": "u3", "email": "u3@x.com"},
		{"id": "u2", "email": "u2@x.com", "first_name": "Two"}
	],
	"profile_photo": "https://store.test/storage/v1/object/profile-photos/u1.png"
}`

func TestFetcher_FetchProfile(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userInfo" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q, want Bearer tok-1", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fullProfile))
	}))
	defer server.Close()

	recorder := &recordingRecorder{}
	fetcher := NewFetcher(server.URL+"/", WithHTTPClient(server.Client()), WithRecorder(recorder))

	p, err := fetcher.FetchProfile(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("FetchProfile() error = %v", err)
	}

	if p.ID != "u1" || p.Email != "u1@x.com" {
		t.Errorf("identity = %q/%q", p.ID, p.Email)
	}
	if p.ActiveFridgeID == nil || *p.ActiveFridgeID != "f1" {
		t.Errorf("ActiveFridgeID = %v, want f1", p.ActiveFridgeID)
	}
	if p.Fridge == nil || p.Fridge.Name != "Apartment 4B" || len(p.Fridge.Emails) != 2 {
		t.Errorf("Fridge = %+v", p.Fridge)
	}
	if p.FridgeCount != 2 {
		t.Errorf("FridgeCount = %d, want 2", p.FridgeCount)
	}
	if len(p.FridgeMates) != 3 || p.FridgeMates[0].ID != "u2" || p.FridgeMates[1].ID != "u3" || p.FridgeMates[2].ID != "u2" {
		t.Errorf("FridgeMates order or duplicates not preserved: %+v", p.FridgeMates)
	}
	if p.FridgeMates[1].FirstName != nil {
		t.Error("missing first_name should stay nil")
	}
	if p.ProfilePhoto != "https://store.test/storage/v1/object/public/profile-photos/u1.png" {
		t.Errorf("ProfilePhoto = %q", p.ProfilePhoto)
	}
	if p.DisplayName() != "Uma One" {
		t.Errorf("DisplayName() = %q", p.DisplayName())
	}

	if len(recorder.fetches) != 1 || recorder.fetches[0].status != http.StatusOK {
		t.Errorf("recorded fetches = %+v", recorder.fetches)
	}
}

func TestFetcher_FetchProfile_LegacyFridgeID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"u1","email":"u1@x.com","fridge_id":"f1","fridgeMates":[]}`))
	}))
	defer server.Close()

	p, err := NewFetcher(server.URL, WithHTTPClient(server.Client())).FetchProfile(context.Background(), "tok")
	if err != nil {
		t.Fatalf("FetchProfile() error = %v", err)
	}
	if p.ActiveFridgeID == nil || *p.ActiveFridgeID != "f1" {
		t.Errorf("ActiveFridgeID = %v, want fallback to fridge_id f1", p.ActiveFridgeID)
	}
	if p.FridgeMates == nil || len(p.FridgeMates) != 0 {
		t.Errorf("FridgeMates = %#v, want empty slice", p.FridgeMates)
	}
}

func TestFetcher_FetchProfile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		timeout    time.Duration
		wantStatus int
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"detail":"Invalid token"}`))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"id":`))
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			timeout: 50 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			fetcher := NewFetcher(server.URL, WithHTTPClient(server.Client()), WithTimeout(tt.timeout))
			p, err := fetcher.FetchProfile(context.Background(), "tok")
			if err == nil {
				t.Fatalf("FetchProfile() = %+v, want error", p)
			}

			var statusErr *StatusError
			if tt.wantStatus != 0 {
				if !errors.As(err, &statusErr) || statusErr.StatusCode != tt.wantStatus {
					t.Errorf("error = %v, want StatusError %d", err, tt.wantStatus)
				}
			} else if errors.As(err, &statusErr) {
				t.Errorf("error = %v, should not be a StatusError", err)
			}
		})
	}
}

func TestNormalizePhotoURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"https://cdn.test/a.png", "https://cdn.test/a.png"},
		{"https://s.test/storage/v1/object/bucket/a.png", "https://s.test/storage/v1/object/public/bucket/a.png"},
		{"https://s.test/storage/v1/object/public/bucket/a.png", "https://s.test/storage/v1/object/public/bucket/a.png"},
	}

	for _, tt := range tests {
		if got := NormalizePhotoURL(tt.in); got != tt.want {
			t.Errorf("NormalizePhotoURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
