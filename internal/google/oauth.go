package google

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

const cacheDirName = "mcp-google-calendar"

// tokenFileForAccount returns the path of the stored token for an account.
// The "default" account keeps the legacy file name for backward compatibility.
func tokenFileForAccount(account string) string {
	name := "google.token"
	if account != "" && account != "default" {
		name = fmt.Sprintf("google-%s.token", account)
	}
	return filepath.Join(userCacheDir(), cacheDirName, name)
}

// HasTokenForAccount checks if a stored OAuth token exists for the account.
func HasTokenForAccount(account string) bool {
	_, err := os.ReadFile(tokenFileForAccount(account))
	return err == nil
}

// HasToken checks if a stored OAuth token exists for the default account.
func HasToken() bool {
	return HasTokenForAccount("default")
}

// GetOAuthConfig returns the OAuth2 configuration for the Calendar scopes.
// Client credentials come from the environment; the external authorization
// flow is expected to use the same client.
func GetOAuthConfig() *oauth2.Config {
	const oob = "urn:ietf:wg:oauth:2.0:oob"
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		Endpoint:     googleoauth.Endpoint,
		RedirectURL:  oob,
		Scopes:       DefaultOAuthScopes,
	}
}

// GetAuthURLForAccount returns the OAuth URL for user authorization.
func GetAuthURLForAccount(account string) string {
	conf := GetOAuthConfig()
	return conf.AuthCodeURL("state-" + account)
}

// SaveTokenForAccount exchanges an authorization code for tokens and saves
// them for the given account.
func SaveTokenForAccount(ctx context.Context, account, authCode string) error {
	conf := GetOAuthConfig()

	t, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	tokenFile := tokenFileForAccount(account)
	if err := os.MkdirAll(filepath.Dir(tokenFile), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tokenData := t.AccessToken + " " + t.RefreshToken
	if err := os.WriteFile(tokenFile, []byte(tokenData), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// GetTokenSourceForAccount returns an OAuth2 token source backed by the
// stored token for the account. The source refreshes the access token
// automatically using the refresh token.
func GetTokenSourceForAccount(ctx context.Context, account string) (oauth2.TokenSource, error) {
	conf := GetOAuthConfig()

	slurp, err := os.ReadFile(tokenFileForAccount(account))
	if err != nil {
		return nil, fmt.Errorf("no Google OAuth token found for account %q", account)
	}

	f := strings.Fields(strings.TrimSpace(string(slurp)))
	if len(f) != 2 {
		return nil, fmt.Errorf("invalid token format for account %q", account)
	}

	// Expiry in the past forces a refresh on first use, validating the
	// refresh token early.
	ts := conf.TokenSource(ctx, &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		Expiry:       time.Unix(1, 0),
	})

	return ts, nil
}

func userCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return os.TempDir()
}
