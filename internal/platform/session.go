package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eWloYW8/ZJUMilCubesHelper/internal/shared"
	"github.com/go-resty/resty/v2"
)

const (
	// DefaultBaseURL is the production MilCubes instance.
	DefaultBaseURL = "https://milcubes.zju.edu.cn"

	loginPath = "/login"
	authPath  = "/login/admin"
	apiPrefix = "/api/admin"

	// The platform rejects requests without a browser-looking User-Agent.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"

	defaultTimeout    = 15 * time.Second
	defaultMaxRetries = 2
	defaultRetryWait  = 500 * time.Millisecond
)

// SessionOpts contains optional settings for [Login].
type SessionOpts struct {
	Timeout    time.Duration // Per-request timeout (default 15s)
	MaxRetries int           // Extra attempts for idempotent reads (default 2)
	RetryWait  time.Duration // Base wait between retries (default 500ms)
	HTTPClient *http.Client  // Underlying client override, used by tests
	Logger     *log.Logger
}

// Session is an authenticated handle on the MilCubes backend. All project and
// file operations go through it.
//
// Session is not safe for concurrent mutation; create one per goroutine.
type Session struct {
	client     *resty.Client
	baseURL    string
	token      string
	maxRetries int
	retryWait  time.Duration
	logger     *log.Logger
}

// Login produces an authenticated [Session] from the given credentials.
//
// The [PasswordLogin] path performs the platform's login handshake (CSRF
// fetch, form login, token exchange) and fails fast with
// [shared.ErrInvalidCredentials] or [shared.ErrProtocolChanged]. The
// [CookieImport] path wraps the cookie set without contacting the server;
// bad cookies surface as [shared.ErrSessionExpired] on first use.
func Login(ctx context.Context, baseURL string, creds Credentials, opts SessionOpts) (*Session, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = defaultRetryWait
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	var client *resty.Client
	if opts.HTTPClient != nil {
		client = resty.NewWithClient(opts.HTTPClient)
	} else {
		client = resty.New()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	client.
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", userAgent).
		SetCookieJar(jar).
		SetRedirectPolicy(resty.NoRedirectPolicy())

	s := &Session{
		client:     client,
		baseURL:    baseURL,
		maxRetries: opts.MaxRetries,
		retryWait:  opts.RetryWait,
		logger:     shared.WithLogger(opts.Logger, "component", "platform"),
	}

	switch c := creds.(type) {
	case PasswordLogin:
		if c.Username == "" || c.Password == "" {
			return nil, shared.ErrMissingCredentials
		}
		if err := s.passwordLogin(ctx, c); err != nil {
			return nil, err
		}
	case CookieImport:
		if len(c.Cookies) == 0 {
			return nil, shared.ErrMissingCredentials
		}
		cookies := make([]*http.Cookie, 0, len(c.Cookies))
		for name, value := range c.Cookies {
			cookies = append(cookies, &http.Cookie{Name: name, Value: value})
		}
		s.client.SetCookies(cookies)
	default:
		return nil, fmt.Errorf("%w: unknown credential type %T", shared.ErrInvalidArgument, creds)
	}

	return s, nil
}

// BaseURL returns the platform base URL this session talks to.
func (s *Session) BaseURL() string {
	return s.baseURL
}

// Token returns the bearer token currently held by the session, or an empty
// string if it has not been acquired yet (cookie sessions acquire it lazily).
func (s *Session) Token() string {
	return s.token
}

// ExportCookies returns the session's cookies for the platform host as a
// name -> value mapping, so a caller can persist them for later import.
func (s *Session) ExportCookies() map[string]string {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil
	}

	out := make(map[string]string)
	for _, c := range s.client.Cookies {
		out[c.Name] = c.Value
	}
	if jar := s.client.GetClient().Jar; jar != nil {
		for _, c := range jar.Cookies(u) {
			out[c.Name] = c.Value
		}
	}
	return out
}

// passwordLogin runs the observed three-step handshake: fetch the CSRF token
// from the index page, submit the login form, then exchange the session
// cookie for a bearer token.
func (s *Session) passwordLogin(ctx context.Context, creds PasswordLogin) error {
	resp, err := s.client.R().SetContext(ctx).Get("/")
	if err != nil && !errors.Is(err, resty.ErrAutoRedirectDisabled) {
		return transportError(err)
	}

	csrf, ok := extractCSRFToken(resp.String())
	if !ok {
		return fmt.Errorf("%w: csrf token not found on index page", shared.ErrProtocolChanged)
	}

	resp, err = s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"email":    creds.Username,
			"password": creds.Password,
			"_token":   csrf,
		}).
		Post(loginPath)
	if err != nil && !errors.Is(err, resty.ErrAutoRedirectDisabled) {
		return transportError(err)
	}

	// A successful form login answers with a redirect; anything else means
	// the credentials were rejected.
	if resp.StatusCode() != http.StatusFound {
		return shared.ErrInvalidCredentials
	}

	return s.exchangeToken(ctx, false)
}

// exchangeToken turns the platform session cookie into a bearer token by
// following the admin auth endpoint's redirect. lazy marks the cookie-import
// path, where a failed exchange means the imported session has expired rather
// than that the protocol moved underneath us.
func (s *Session) exchangeToken(ctx context.Context, lazy bool) error {
	resp, err := s.client.R().SetContext(ctx).Get(authPath)
	if err != nil && !errors.Is(err, resty.ErrAutoRedirectDisabled) {
		return transportError(err)
	}

	location := resp.Header().Get("Location")
	if location == "" {
		if lazy {
			return shared.ErrSessionExpired
		}
		return fmt.Errorf("%w: auth endpoint returned no redirect", shared.ErrProtocolChanged)
	}

	token := tokenFromLocation(location)
	if token == "" {
		if strings.Contains(location, loginPath) {
			return shared.ErrSessionExpired
		}
		if lazy {
			return shared.ErrSessionExpired
		}
		return fmt.Errorf("%w: no token in auth redirect", shared.ErrProtocolChanged)
	}

	s.token = token
	s.client.SetHeader("Authorization", "Bearer "+token)
	return nil
}

// ensureToken acquires the bearer token on first use for cookie sessions.
func (s *Session) ensureToken(ctx context.Context) error {
	if s.token != "" {
		return nil
	}
	return s.exchangeToken(ctx, true)
}

// getJSON performs an idempotent GET against the admin API, retrying
// transient transport failures up to the configured bound, and returns the
// payload of the {"data": ...} envelope.
func (s *Session) getJSON(ctx context.Context, endpoint string, query map[string]string) (json.RawMessage, error) {
	if err := s.ensureToken(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Debug("retrying request", "endpoint", endpoint, "attempt", attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.retryWait * time.Duration(attempt)):
			}
		}

		resp, err := s.client.R().
			SetContext(ctx).
			SetQueryParams(query).
			Get(apiPrefix + "/" + endpoint)
		if err != nil && !errors.Is(err, resty.ErrAutoRedirectDisabled) {
			lastErr = transportError(err)
			continue
		}

		if err := s.apiError(resp); err != nil {
			return nil, err
		}

		return decodeEnvelope(resp.Body())
	}

	return nil, lastErr
}

// sendJSON performs a non-idempotent write against the admin API. Writes are
// never retried; a transport failure surfaces immediately.
func (s *Session) sendJSON(ctx context.Context, method, endpoint string, configure func(*resty.Request)) (json.RawMessage, error) {
	if err := s.ensureToken(ctx); err != nil {
		return nil, err
	}

	req := s.client.R().SetContext(ctx)
	if configure != nil {
		configure(req)
	}

	resp, err := req.Execute(method, apiPrefix+"/"+endpoint)
	if err != nil && !errors.Is(err, resty.ErrAutoRedirectDisabled) {
		return nil, transportError(err)
	}

	if err := s.apiError(resp); err != nil {
		return nil, err
	}

	return decodeEnvelope(resp.Body())
}

// apiError maps a platform response to the error taxonomy: nil for 2xx,
// [shared.ErrSessionExpired] for auth failures, [*RemoteError] otherwise.
func (s *Session) apiError(resp *resty.Response) error {
	status := resp.StatusCode()

	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return nil
	}

	if status == http.StatusUnauthorized || status == 419 {
		return shared.ErrSessionExpired
	}
	if status == http.StatusFound && strings.Contains(resp.Header().Get("Location"), loginPath) {
		return shared.ErrSessionExpired
	}

	return &RemoteError{Status: status, Message: remoteMessage(resp.Body())}
}

// decodeEnvelope unwraps the platform's {"data": ...} response envelope.
// A response without the data key is treated as a protocol change.
func decodeEnvelope(body []byte) (json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: response is not a JSON object", shared.ErrProtocolChanged)
	}

	data, ok := envelope["data"]
	if !ok {
		return nil, fmt.Errorf("%w: response has no data field", shared.ErrProtocolChanged)
	}

	return data, nil
}

// remoteMessage pulls a human-readable message out of a platform error
// payload, tolerating either a message or an error field.
func remoteMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// transportError classifies a network-level failure as a timeout or a
// connection failure.
func transportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", shared.ErrConnectionFailed, err)
}

// extractCSRFToken finds the csrf-token meta value on the platform's index
// page without a full HTML parse; the marker is stable across platform
// versions observed so far.
func extractCSRFToken(page string) (string, bool) {
	const marker = `csrf-token" content="`
	start := strings.Index(page, marker)
	if start < 0 {
		return "", false
	}
	rest := page[start+len(marker):]
	end := strings.Index(rest, `"`)
	if end <= 0 {
		return "", false
	}
	return rest[:end], true
}

// tokenFromLocation extracts the bearer token from an auth redirect location
// like https://host/?token=XYZZY.
func tokenFromLocation(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	return u.Query().Get("token")
}
