// Package auth handles the Google OAuth2 flow and token caching.
//
// Client credentials (credentials.json, downloaded from the Google Cloud
// console) and the obtained token live under ~/.config/taskrules/. When no
// cached token exists, a local redirect server captures the browser flow.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	// ClientSecretsFile holds the OAuth client id/secret from the Google
	// Cloud console.
	ClientSecretsFile = "credentials.json"

	// TokenFile caches the user's access and refresh tokens.
	TokenFile = "token.json"

	// localAuthPort is where the local redirect server listens during the
	// browser flow.
	localAuthPort = "6789"

	xdgAppName = "taskrules"
)

// GetXdgHome returns the app's config directory.
func GetXdgHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

// GetConfig builds an oauth2.Config from the client secrets file.
func GetConfig(scopes []string) (*oauth2.Config, error) {
	xdgHome, err := GetXdgHome()
	if err != nil {
		return nil, err
	}
	secretsPath := filepath.Join(xdgHome, ClientSecretsFile)
	b, err := os.ReadFile(secretsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", secretsPath, err)
	}

	cfg, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file: %w", err)
	}
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%s/", localAuthPort)
	return cfg, nil
}

// GetClient returns an authenticated HTTP client, running the browser flow
// when no cached token exists.
func GetClient(ctx context.Context, scopes []string) (*http.Client, error) {
	cfg, err := GetConfig(scopes)
	if err != nil {
		return nil, err
	}

	xdgHome, err := GetXdgHome()
	if err != nil {
		return nil, err
	}
	tokenPath := filepath.Join(xdgHome, TokenFile)

	token, err := tokenFromFile(tokenPath)
	if err != nil {
		token, err = tokenFromWeb(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenPath, token); err != nil {
			log.Warn("could not cache oauth token", "path", tokenPath, "err", err)
		}
	}
	return cfg.Client(ctx, token), nil
}

// GetCalendarService returns an authenticated Calendar service. Used by the
// auth command to validate the flow end to end.
func GetCalendarService(ctx context.Context) (*calendar.Service, error) {
	client, err := GetClient(ctx, []string{calendar.CalendarEventsScope, calendar.CalendarReadonlyScope})
	if err != nil {
		return nil, err
	}
	return calendar.NewService(ctx, option.WithHTTPClient(client))
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode cached token: %w", err)
	}
	return &token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// tokenFromWeb runs the browser consent flow, capturing the authorization
// code on a local redirect server.
func tokenFromWeb(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "localhost:"+localAuthPort)
	if err != nil {
		return nil, fmt.Errorf("could not listen on auth port %s: %w", localAuthPort, err)
	}
	defer listener.Close()

	codeCh := make(chan string, 1)
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "missing authorization code", http.StatusBadRequest)
				return
			}
			fmt.Fprintln(w, "Authentication complete. You can close this window.")
			codeCh <- code
		}),
	}
	go srv.Serve(listener)
	defer srv.Close()

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	log.Info("opening browser for Google authorization", "url", authURL)
	if err := openBrowser(authURL); err != nil {
		log.Warn("could not open browser, visit the URL manually", "err", err)
	}

	select {
	case code := <-codeCh:
		token, err := cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("token exchange failed: %w", err)
		}
		return token, nil
	case <-time.After(5 * time.Minute):
		return nil, fmt.Errorf("timed out waiting for authorization")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
