package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/guilherme-santos/calkit/internal"
)

const (
	Platform = "google"

	// deniedAuth is stored in place of a token once the user refused access.
	deniedAuth = "denied"
)

var errAccessDenied = errors.New("google: access denied by the user")

// TokenStore persists the OAuth token of the account.
type TokenStore interface {
	Account(_ context.Context, platform, name string) (*internal.Account, error)
	AddAccount(context.Context, *internal.Account) error
}

type Client struct {
	oauthCfg *oauth2.Config
	tokens   TokenStore
	account  string
	svcOpts  []option.ClientOption

	// loginMu makes sure a single login runs at a time.
	loginMu sync.Mutex

	Verbose bool
	Output  io.Writer
	// Addr is where the login redirect is served.
	Addr string
	// ShowAuthURL tells the user where to log in, it defaults to printing
	// the link to Output.
	ShowAuthURL func(authURL string)
}

// NewClient creates a client for the account name, whose token is kept in
// tokens. The service options are appended to the ones built from the token.
func NewClient(credJSON []byte, tokens TokenStore, account string, opts ...option.ClientOption) (*Client, error) {
	oauthCfg, err := google.ConfigFromJSON(credJSON, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("google: parsing credentials file: %v", err)
	}
	if account == "" {
		account = "default"
	}

	return &Client{
		oauthCfg: oauthCfg,
		tokens:   tokens,
		account:  account,
		svcOpts:  opts,
		Output:   os.Stdout,
		Addr:     ":8080",
	}, nil
}

func (c *Client) Status(ctx context.Context) internal.AuthorizationStatus {
	acc, err := c.tokens.Account(ctx, Platform, c.account)
	if err != nil {
		c.logf(nil, "unable to load token: %v", err)
		return internal.Unknown
	}
	if acc == nil {
		return internal.NotDetermined
	}
	if acc.Auth == deniedAuth {
		return internal.Denied
	}
	if _, err := decodeToken(acc.Auth); err != nil {
		return internal.Unknown
	}
	return internal.Authorized
}

// RequestAccess runs the OAuth login unless the user already decided.
func (c *Client) RequestAccess(ctx context.Context, done func(bool, error)) {
	if status := c.Status(ctx); status != internal.NotDetermined {
		done(status == internal.Authorized, nil)
		return
	}

	go func() {
		c.loginMu.Lock()
		defer c.loginMu.Unlock()

		// someone else may have logged in while we waited
		if status := c.Status(ctx); status != internal.NotDetermined {
			done(status == internal.Authorized, nil)
			return
		}

		token, err := c.Login(ctx)
		if errors.Is(err, errAccessDenied) {
			err = c.tokens.AddAccount(ctx, &internal.Account{Platform: Platform, Name: c.account, Auth: deniedAuth})
			done(false, err)
			return
		}
		if err != nil {
			done(false, err)
			return
		}

		auth, err := json.Marshal(token)
		if err != nil {
			done(false, err)
			return
		}
		err = c.tokens.AddAccount(ctx, &internal.Account{Platform: Platform, Name: c.account, Auth: string(auth)})
		if err != nil {
			done(false, err)
			return
		}
		done(true, nil)
	}()
}

func (c *Client) Login(ctx context.Context) (*oauth2.Token, error) {
	state := fmt.Sprintf("calkit-%d", time.Now().UTC().Nanosecond())
	authURL := c.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if c.ShowAuthURL != nil {
		c.ShowAuthURL(authURL)
	} else {
		fmt.Fprintf(c.Output, "\nGo to the following link in your browser\n%s\n", authURL)
	}

	mux := http.NewServeMux()
	server := &http.Server{
		Addr:    c.Addr,
		Handler: mux,
	}

	var (
		token   *oauth2.Token
		authErr error
	)

	mux.HandleFunc("/calkit", func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			go server.Shutdown(context.Background())
		}()

		query := req.URL.Query()
		if query.Get("state") != state {
			authErr = errors.New("oauth link is not valid")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if query.Get("error") == "access_denied" {
			authErr = errAccessDenied
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "Access denied, you can close this window!")
			return
		}

		token, authErr = c.oauthCfg.Exchange(ctx, query.Get("code"))
		if authErr != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintln(w, "Unable to retrieve token:", authErr)
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "All good, you can close this window!")
	})

	serverCh := make(chan struct{})
	var svrErr error
	go func() {
		svrErr = server.ListenAndServe()
		close(serverCh)
	}()

	select {
	case <-serverCh:
	case <-ctx.Done():
		server.Close()
		<-serverCh
		return nil, ctx.Err()
	}

	if svrErr != nil && svrErr != http.ErrServerClosed {
		return nil, svrErr
	}
	if authErr != nil {
		return nil, authErr
	}
	return token, nil
}

func (c *Client) calendarSvc(ctx context.Context) (*calendar.Service, error) {
	acc, err := c.tokens.Account(ctx, Platform, c.account)
	if err != nil {
		return nil, err
	}
	if acc == nil || acc.Auth == deniedAuth {
		return nil, fmt.Errorf("google: account %q is not authorized", c.account)
	}
	tok, err := decodeToken(acc.Auth)
	if err != nil {
		return nil, err
	}
	opts := append([]option.ClientOption{
		option.WithHTTPClient(c.oauthCfg.Client(ctx, tok)),
	}, c.svcOpts...)
	return calendar.NewService(ctx, opts...)
}

func decodeToken(auth string) (*oauth2.Token, error) {
	var tok *oauth2.Token
	err := json.Unmarshal([]byte(auth), &tok)
	if err != nil {
		return nil, fmt.Errorf("google: decoding token: %v", err)
	}
	return tok, nil
}

func (c *Client) logf(cal *internal.Calendar, format string, a ...any) {
	if c.Verbose {
		internal.Logf(c.Output, "google:", cal, format, a...)
	}
}

func notFound(err error) bool {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return false
	}
	return gErr.Code == http.StatusNotFound || gErr.Code == http.StatusGone
}

func alreadyDeleted(err error) bool {
	return notFound(err) || errIsReason(err, "deleted")
}

func errIsReason(err error, reason string) bool {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return false
	}

	for _, err := range gErr.Errors {
		switch err.Reason {
		case reason:
			return true
		}
	}
	return false
}
