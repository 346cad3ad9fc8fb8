package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrNoToken means neither GOOGLE_TOKEN_JSON nor GOOGLE_TOKEN_FILE was usable.
var ErrNoToken = errors.New("auth: no google token configured")

// DefaultScopes cover appending sheet rows and creating Drive files.
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive.file",
}

// AuthorizedUser is the token.json written by Google's installed-app OAuth flow.
type AuthorizedUser struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
	Expiry       string   `json:"expiry"`
}

// LoadTokenJSON prefers the inline JSON and falls back to reading file.
func LoadTokenJSON(inline, file string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if strings.TrimSpace(file) == "" {
		return nil, ErrNoToken
	}
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrNoToken, file)
		}
		return nil, fmt.Errorf("auth: read token file: %w", err)
	}
	return data, nil
}

func ParseAuthorizedUser(data []byte) (*AuthorizedUser, error) {
	var au AuthorizedUser
	if err := json.Unmarshal(data, &au); err != nil {
		return nil, fmt.Errorf("auth: decode token json: %w", err)
	}
	if au.RefreshToken == "" && au.Token == "" {
		return nil, fmt.Errorf("%w: token json has neither token nor refresh_token", ErrNoToken)
	}
	if au.RefreshToken != "" && (au.ClientID == "" || au.ClientSecret == "") {
		return nil, errors.New("auth: token json needs client_id and client_secret to refresh")
	}
	return &au, nil
}

func (au *AuthorizedUser) oauthToken() (*oauth2.Token, error) {
	tok := &oauth2.Token{
		AccessToken:  au.Token,
		RefreshToken: au.RefreshToken,
		TokenType:    "Bearer",
	}
	if au.Expiry != "" {
		expiry, err := parseExpiry(au.Expiry)
		if err != nil {
			return nil, err
		}
		tok.Expiry = expiry
	}
	return tok, nil
}

func parseExpiry(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("auth: unrecognised expiry %q", s)
}

// TokenSource builds a refreshing token source. Google's endpoint is used
// unless token_uri says otherwise.
func (au *AuthorizedUser) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := au.oauthToken()
	if err != nil {
		return nil, err
	}
	endpoint := google.Endpoint
	if au.TokenURI != "" {
		endpoint.TokenURL = au.TokenURI
	}
	scopes := au.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	cfg := &oauth2.Config{
		ClientID:     au.ClientID,
		ClientSecret: au.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
	return cfg.TokenSource(ctx, tok), nil
}

// GoogleTokenSource loads the stored credentials and forces one Token() call,
// refreshing if needed, so bad credentials fail at startup rather than on the
// first logged message.
func GoogleTokenSource(ctx context.Context, inline, file string) (oauth2.TokenSource, error) {
	data, err := LoadTokenJSON(inline, file)
	if err != nil {
		return nil, err
	}
	au, err := ParseAuthorizedUser(data)
	if err != nil {
		return nil, err
	}
	ts, err := au.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("auth: refresh google token: %w", err)
	}
	if !tok.Valid() {
		return nil, errors.New("auth: google token is not valid after refresh")
	}
	return ts, nil
}
