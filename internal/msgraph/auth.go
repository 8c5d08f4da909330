package msgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

var requiredScopes = []string{
	"https://graph.microsoft.com/Calendars.Read",
	"offline_access",
}

func msEndpoint(tenantID, path string) string {
	return "https://login.microsoftonline.com/" + tenantID + "/oauth2/v2.0/" + path
}

// TokenPath is where the Graph token is kept under the architrack base dir.
func TokenPath(base string) string {
	return filepath.Join(base, "auth", "msgraph_tokens.json")
}

// Authenticator signs in to Microsoft Graph with the device code flow and
// keeps the resulting token on disk.
type Authenticator struct {
	TenantID string
	ClientID string
	// TokenFile is normally TokenPath(config.BaseDir()).
	TokenFile string
	// Prompt receives the sign-in instructions.
	Prompt io.Writer
	Logger *slog.Logger
}

func (a *Authenticator) config() *oauth2.Config {
	return &oauth2.Config{
		ClientID: a.ClientID,
		Scopes:   requiredScopes,
		Endpoint: oauth2.Endpoint{
			DeviceAuthURL: msEndpoint(a.TenantID, "devicecode"),
			TokenURL:      msEndpoint(a.TenantID, "token"),
			AuthStyle:     oauth2.AuthStyleInParams,
		},
	}
}

func (a *Authenticator) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// loadToken returns nil, nil when no token was saved yet.
func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", path, err)
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}

// Token returns a usable token: the saved one if still valid, a refreshed
// one, or a new one from the device code flow.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	cfg := a.config()
	log := a.logger()

	tok, err := loadToken(a.TokenFile)
	if err != nil {
		log.Warn("ignoring saved token", "error", err)
		tok = nil
	}
	if tok != nil && tok.Valid() {
		return tok, nil
	}

	if tok != nil && tok.RefreshToken != "" {
		refreshed, err := cfg.TokenSource(ctx, tok).Token()
		if err == nil {
			if err := saveToken(a.TokenFile, refreshed); err != nil {
				log.Warn("could not save refreshed token", "error", err)
			}
			return refreshed, nil
		}
		log.Warn("token refresh failed, re-authenticating", "error", err)
	}

	resp, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device auth request failed: %w", err)
	}
	if a.Prompt != nil {
		fmt.Fprintln(a.Prompt)
		fmt.Fprintln(a.Prompt, "To sign in, use a web browser to open the page:")
		fmt.Fprintf(a.Prompt, "  %s\n", resp.VerificationURI)
		fmt.Fprintf(a.Prompt, "Enter the code: %s\n", resp.UserCode)
		fmt.Fprintln(a.Prompt)
	}

	newTok, err := cfg.DeviceAccessToken(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("device authentication failed: %w", err)
	}
	if err := saveToken(a.TokenFile, newTok); err != nil {
		log.Warn("could not save token", "error", err)
	}
	return newTok, nil
}

// HTTPClient returns a client that sends the token with every request and
// saves it again whenever it gets refreshed. The transport comes from ctx
// (oauth2.HTTPClient) when set.
func (a *Authenticator) HTTPClient(ctx context.Context) (*http.Client, error) {
	tok, err := a.Token(ctx)
	if err != nil {
		return nil, err
	}
	ts := &savingTokenSource{ts: a.config().TokenSource(ctx, tok), path: a.TokenFile}
	return oauth2.NewClient(ctx, ts), nil
}

// savingTokenSource wraps a TokenSource and persists refreshed tokens.
type savingTokenSource struct {
	ts   oauth2.TokenSource
	path string
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		// Best-effort save; ignore errors.
		_ = saveToken(s.path, tok)
		s.last = tok.AccessToken
	}
	return tok, nil
}
