package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"courtbook/utils"
)

// CredentialOptions drives the calendar credential bootstrap.
type CredentialOptions struct {
	CredentialsFile string // OAuth client secret JSON
	TokenFile       string // cached user token, created by the local flow
	ListenAddr      string // local redirect listener, e.g. ":8080"
	ServerMode      bool   // server mode requires TokenFile to already exist
	// AnnounceAuthURL delivers the authorization URL to an operator
	// (e.g. posted to the ops channel). Only used by the local flow.
	AnnounceAuthURL func(url string)
}

// NewService bootstraps an authorized Google Calendar service. In server
// mode the cached token must already exist (generated once locally and
// uploaded); in local mode a missing or unrefreshable token triggers the
// browser authorization flow.
func NewService(ctx context.Context, opts CredentialOptions) (*gcal.Service, error) {
	logger := utils.GetLogger()

	secret, err := os.ReadFile(opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read client secret: %w", err)
	}
	conf, err := google.ConfigFromJSON(secret, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secret: %w", err)
	}

	token, err := tokenFromFile(opts.TokenFile)
	if err != nil {
		if opts.ServerMode {
			return nil, fmt.Errorf("token %s not found; in server mode it must be generated locally and uploaded: %w",
				opts.TokenFile, err)
		}
		token, err = runLocalFlow(ctx, conf, opts)
		if err != nil {
			return nil, err
		}
		if err := saveToken(opts.TokenFile, token); err != nil {
			return nil, err
		}
		logger.Info("new calendar token generated", zap.String("file", opts.TokenFile))
	}

	// TokenSource refreshes expired tokens transparently as long as a
	// refresh token is present.
	src := conf.TokenSource(ctx, token)
	if _, err := src.Token(); err != nil {
		if opts.ServerMode {
			return nil, fmt.Errorf("invalid token in %s; regenerate locally and upload again: %w",
				opts.TokenFile, err)
		}
		token, err = runLocalFlow(ctx, conf, opts)
		if err != nil {
			return nil, err
		}
		if err := saveToken(opts.TokenFile, token); err != nil {
			return nil, err
		}
		src = conf.TokenSource(ctx, token)
	}

	svc, err := gcal.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("init calendar service: %w", err)
	}
	logger.Info("Google Calendar service initialized successfully")
	return svc, nil
}

// runLocalFlow performs the installed-app authorization dance: announce the
// URL, catch the redirect on the local listener, exchange the code.
func runLocalFlow(ctx context.Context, conf *oauth2.Config, opts CredentialOptions) (*oauth2.Token, error) {
	conf.RedirectURL = fmt.Sprintf("http://localhost%s/", opts.ListenAddr)
	authURL := conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline)

	if opts.AnnounceAuthURL != nil {
		opts.AnnounceAuthURL(authURL)
	}
	fmt.Printf("Authorize this app by visiting:\n%s\n", authURL)

	codeCh := make(chan string, 1)
	srv := &http.Server{Addr: opts.ListenAddr}
	srv.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorization received, you can close this tab.")
		codeCh <- code
	})
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.GetLogger().Error("oauth listener failed", zap.Error(err))
		}
	}()
	defer srv.Shutdown(context.Background())

	var code string
	select {
	case code = <-codeCh:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return token, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
