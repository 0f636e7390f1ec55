package tricount

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/tricountapi/go-tricount/bunq"
	"github.com/tricountapi/go-tricount/internal/session"
	"github.com/tricountapi/go-tricount/internal/transport"
)

// DefaultBaseURL is the production endpoint of the Tricount API.
const DefaultBaseURL = "https://api.tricount.bunq.com"

// balanceTransaction marks settle-up transfers, which are not expenses.
const balanceTransaction = "BALANCE"

// Client reads one tricount, identified by the share key from an invite
// link. The zero value is not usable; construct with New.
//
// A Client performs no internal locking: Refresh must not run concurrently
// with the accessors. The usual sequence is New, Refresh, then any number
// of accessor calls, repeating Refresh whenever fresh data is wanted.
type Client struct {
	tricountKey string
	appID       string
	baseURL     string
	httpClient  *http.Client
	logger      *slog.Logger
	creds       *session.Provider

	// doc is the last successfully fetched document and reg the registry
	// inside it. Both are replaced together by Refresh and stay nil until
	// the first successful fetch.
	doc *bunq.Envelope
	reg *bunq.Registry
}

// Option configures a Client.
type Option func(*Client)

// WithAppID pins the app installation id. Without it every Client registers
// a throwaway device identity on its first Refresh.
func WithAppID(appID string) Option {
	return func(c *Client) { c.appID = appID }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the default HTTP client, bypassing the built-in
// transport instrumentation.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New builds a Client for the tricount identified by tricountKey, the token
// from a share link (the part after /t/). A device identity is generated up
// front; a *CredentialError reports failures doing so. No network traffic
// happens until Refresh.
func New(tricountKey string, opts ...Option) (*Client, error) {
	if tricountKey == "" {
		return nil, errors.New("tricount: tricount key must not be empty")
	}

	c := &Client{
		tricountKey: tricountKey,
		baseURL:     DefaultBaseURL,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = transport.NewClient(c.logger)
	}

	creds, err := session.New(c.appID, c.logger)
	if err != nil {
		return nil, &CredentialError{Err: err}
	}
	c.creds = creds
	return c, nil
}

// Refresh fetches the tricount document and replaces the cached one. Each
// call performs the full exchange: the handshake that registers the device
// and yields a session token, then the registry download.
//
// On failure a *FetchError is returned and the previously cached document,
// if any, remains available through the accessors.
func (c *Client) Refresh(ctx context.Context) error {
	token, userID, err := c.authenticate(ctx)
	if err != nil {
		return err
	}

	doc, reg, err := c.fetchRegistry(ctx, token, userID)
	if err != nil {
		return err
	}

	c.doc = doc
	c.reg = reg
	c.logger.Debug("registry refreshed",
		"members", len(reg.Memberships),
		"entries", len(reg.AllEntries),
	)
	return nil
}

// Data returns the raw cached document exactly as last fetched, or
// ErrNotFetched before the first successful Refresh. The returned envelope
// is shared with the Client and must not be modified.
func (c *Client) Data() (*bunq.Envelope, error) {
	if c.doc == nil {
		return nil, ErrNotFetched
	}
	return c.doc, nil
}

// Users returns the tricount members as a map from member id to member
// name, as shown in the app's member list.
func (c *Client) Users() (map[string]string, error) {
	if c.reg == nil {
		return nil, ErrNotFetched
	}
	users := make(map[string]string, len(c.reg.Memberships))
	for _, m := range c.reg.Memberships {
		if m.NonUser == nil {
			continue
		}
		users[m.NonUser.Key()] = m.NonUser.Name()
	}
	return users, nil
}

// Expenses returns every expense amount in document order. Balance
// transfers are excluded. Amounts carry the sign the service uses: spending
// is negative, money received positive.
func (c *Client) Expenses() ([]float64, error) {
	if c.reg == nil {
		return nil, ErrNotFetched
	}
	var amounts []float64
	for _, item := range c.reg.AllEntries {
		e := item.Entry
		if e == nil || e.TypeTransaction == balanceTransaction {
			continue
		}
		v, err := e.Amount.Float64()
		if err != nil {
			continue
		}
		amounts = append(amounts, v)
	}
	return amounts, nil
}

// ExpensesFor returns, in document order, the share allocated to the member
// with the given id for each expense that member participates in. userID is
// the decimal id used as the key in the Users map; an unknown id yields an
// empty result.
func (c *Client) ExpensesFor(userID string) ([]float64, error) {
	if c.reg == nil {
		return nil, ErrNotFetched
	}
	var amounts []float64
	for _, item := range c.reg.AllEntries {
		e := item.Entry
		if e == nil || e.TypeTransaction == balanceTransaction {
			continue
		}
		var share float64
		found := false
		for _, alloc := range e.Allocations {
			nu := alloc.Membership.NonUser
			if nu == nil || nu.Key() != userID {
				continue
			}
			if v, err := alloc.Amount.Float64(); err == nil {
				share, found = v, true
			}
		}
		if found {
			amounts = append(amounts, share)
		}
	}
	return amounts, nil
}

// authenticate runs the handshake: it registers the installation id and
// public key, and returns the session token plus the server-side user id
// the registry URL needs.
func (c *Client) authenticate(ctx context.Context) (string, int64, error) {
	body := bunq.InstallationRequest{
		AppInstallationUUID: c.creds.InstallationID(),
		ClientPublicKey:     c.creds.PublicKeyPEM(),
		DeviceDescription:   session.DeviceDescription,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", 0, &FetchError{Op: "authenticate", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/session-registry-installation", bytes.NewReader(payload))
	if err != nil {
		return "", 0, &FetchError{Op: "authenticate", Err: err}
	}
	req.Header = c.creds.Headers("")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, &FetchError{Op: "authenticate", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, &FetchError{Op: "authenticate", StatusCode: resp.StatusCode, Err: statusError(resp)}
	}

	var env bunq.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", 0, &FetchError{Op: "authenticate", Err: fmt.Errorf("decode response: %w", err)}
	}

	token, ok := env.SessionToken()
	if !ok {
		return "", 0, &FetchError{Op: "authenticate", Err: errors.New("no session token in response")}
	}
	userID, ok := env.UserID()
	if !ok {
		return "", 0, &FetchError{Op: "authenticate", Err: errors.New("no user id in response")}
	}
	return token, userID, nil
}

// fetchRegistry downloads and validates the tricount document.
func (c *Client) fetchRegistry(ctx context.Context, token string, userID int64) (*bunq.Envelope, *bunq.Registry, error) {
	endpoint := fmt.Sprintf("%s/v1/user/%d/registry?public_identifier_token=%s",
		c.baseURL, userID, url.QueryEscape(c.tricountKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, &FetchError{Op: "fetch", Err: err}
	}
	req.Header = c.creds.Headers(token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &FetchError{Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &FetchError{Op: "fetch", StatusCode: resp.StatusCode, Err: statusError(resp)}
	}

	var env bunq.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, nil, &FetchError{Op: "fetch", Err: fmt.Errorf("decode document: %w", err)}
	}

	reg, ok := env.Registry()
	if !ok {
		return nil, nil, &FetchError{Op: "fetch", Err: errors.New("no registry in response")}
	}
	if err := validateRegistry(reg); err != nil {
		return nil, nil, &FetchError{Op: "fetch", Err: err}
	}
	return &env, reg, nil
}

// validateRegistry rejects documents whose expense amounts would not be
// representable through the accessors, so Refresh fails as a whole instead
// of the accessors returning partial data later.
func validateRegistry(reg *bunq.Registry) error {
	for _, item := range reg.AllEntries {
		e := item.Entry
		if e == nil || e.TypeTransaction == balanceTransaction {
			continue
		}
		if _, err := e.Amount.Float64(); err != nil {
			return fmt.Errorf("entry %d: malformed amount: %w", e.ID, err)
		}
		for _, alloc := range e.Allocations {
			if _, err := alloc.Amount.Float64(); err != nil {
				return fmt.Errorf("entry %d: malformed allocation amount: %w", e.ID, err)
			}
		}
	}
	return nil
}

// statusError summarizes a non-200 response, including a snippet of the
// body when the service sent one.
func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if msg := strings.TrimSpace(string(snippet)); msg != "" {
		return fmt.Errorf("unexpected HTTP status %s: %s", resp.Status, msg)
	}
	return fmt.Errorf("unexpected HTTP status %s", resp.Status)
}
