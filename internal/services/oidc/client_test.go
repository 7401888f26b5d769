package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		clientSecret string
		wantStyle    oauth2.AuthStyle
	}{
		{name: "confidential client", clientSecret: "secret", wantStyle: oauth2.AuthStyleInHeader},
		{name: "public client", clientSecret: "", wantStyle: oauth2.AuthStyleInParams},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := NewClient("http://auth.test", "fridge-app", tt.clientSecret, nil)
			if client.TokenURL() != "http://auth.test/token" {
				t.Errorf("TokenURL() = %q, want http://auth.test/token", client.TokenURL())
			}
			if client.config.Endpoint.AuthStyle != tt.wantStyle {
				t.Errorf("AuthStyle = %v, want %v", client.config.Endpoint.AuthStyle, tt.wantStyle)
			}
			if client.httpClient == nil {
				t.Error("httpClient should default to http.DefaultClient")
			}
		})
	}
}

func TestClient_PasswordToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		if r.Form.Get("grant_type") != "password" {
			t.Errorf("grant_type = %q, want password", r.Form.Get("grant_type"))
		}
		if r.Form.Get("username") != "alice@example.com" || r.Form.Get("password") != "hunter2" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":             "invalid_grant",
				"error_description": "Invalid login credentials",
			})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"token_type":    "bearer",
			"expires_in":    3600,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "fridge-app", "", server.Client())

	tok, err := client.PasswordToken(context.Background(), "alice@example.com", "hunter2")
	if err != nil {
		t.Fatalf("PasswordToken() error = %v", err)
	}
	if tok.AccessToken != "access-1" || tok.RefreshToken != "refresh-1" {
		t.Errorf("unexpected token %+v", tok)
	}

	_, err = client.PasswordToken(context.Background(), "alice@example.com", "wrong")
	if err == nil {
		t.Fatal("PasswordToken() with bad password should fail")
	}
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		t.Fatalf("error %v is not a *oauth2.RetrieveError", err)
	}
	if retrieveErr.ErrorDescription != "Invalid login credentials" {
		t.Errorf("ErrorDescription = %q", retrieveErr.ErrorDescription)
	}
}
