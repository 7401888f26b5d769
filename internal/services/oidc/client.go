package oidc

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// Client wraps the OAuth2 token endpoint of the auth service.
// The service issues tokens through the resource-owner password grant and
// rotates them through the refresh grant.
type Client struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewClient creates a client for the auth service rooted at authURL
func NewClient(authURL, clientID, clientSecret string, httpClient *http.Client) *Client {
	style := oauth2.AuthStyleInHeader
	if clientSecret == "" {
		// Public clients send the client id in the form body
		style = oauth2.AuthStyleInParams
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  authURL + "/token",
			AuthStyle: style,
		},
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{config: config, httpClient: httpClient}
}

// PasswordToken exchanges an e-mail and password for a token
func (c *Client) PasswordToken(ctx context.Context, email, password string) (*oauth2.Token, error) {
	return c.config.PasswordCredentialsToken(c.withHTTPClient(ctx), email, password)
}

// TokenSource returns a source that refreshes tok through the refresh grant when it expires
func (c *Client) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return c.config.TokenSource(c.withHTTPClient(ctx), tok)
}

// TokenURL returns the token endpoint
func (c *Client) TokenURL() string {
	return c.config.Endpoint.TokenURL
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}
