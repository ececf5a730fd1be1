package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

const defaultTimeout = 10 * time.Second

// TooManyRequestsError represents a rate limiting signal from the remote API.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Options tunes transport behaviour of HTTPClient.
type Options struct {
	Timeout   time.Duration
	RateLimit float64
	Burst     int
}

// HTTPClient talks to the remote logistics REST API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewHTTPClient creates a client for the API rooted at baseURL.
func NewHTTPClient(baseURL string, opts Options, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("api url must be absolute")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return &HTTPClient{
		baseURL: parsed,
		limiter: limiter,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type tokenKey struct{}

// WithToken attaches the user's bearer token to calls made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// endpoint appends elems to the base path. Each element is one path segment
// and is percent-encoded; callers pass caller-supplied keys through
// checkSegment first.
func (c *HTTPClient) endpoint(query url.Values, elems ...string) string {
	u := *c.baseURL
	raw := []string{strings.TrimSuffix(u.EscapedPath(), "/")}
	plain := []string{strings.TrimSuffix(u.Path, "/")}
	for _, elem := range elems {
		raw = append(raw, url.PathEscape(elem))
		plain = append(plain, elem)
	}
	u.Path = strings.Join(plain, "/") + "/"
	u.RawPath = strings.Join(raw, "/") + "/"
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// checkSegment rejects keys that would change the shape of a resource path.
func checkSegment(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q", domainErrors.ErrInvalidKey, key)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Response, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := tokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, data, nil
}

// doJSON sends in as JSON and decodes a 2xx body into out.
func (c *HTTPClient) doJSON(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	resp, data, err := c.do(ctx, method, endpoint, body, contentType)
	if err != nil {
		return err
	}
	if err := c.check(method, endpoint, resp, data); err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// check converts non-2xx responses into errors.
func (c *HTTPClient) check(method, endpoint string, resp *http.Response, body []byte) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return TooManyRequestsError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	default:
		return c.apiError(method, endpoint, resp.StatusCode, body)
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}

type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Error   string `json:"error"`
}

func (c *HTTPClient) apiError(method, endpoint string, status int, body []byte) *domainErrors.APIError {
	c.logger.Error("remote api request failed",
		slog.String("method", method),
		slog.String("endpoint", endpoint),
		slog.Int("status", status),
		slog.String("body", string(body)),
	)
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)
	message := parsed.Message
	if message == "" {
		message = parsed.Detail
	}
	if message == "" {
		message = parsed.Error
	}
	return &domainErrors.APIError{Status: status, Message: message}
}

// multipartForm accumulates text fields and files into a multipart body.
type multipartForm struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	err    error
}

func newMultipartForm() *multipartForm {
	f := &multipartForm{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

func (f *multipartForm) field(name, value string) {
	if f.err != nil || value == "" {
		return
	}
	f.err = f.writer.WriteField(name, value)
}

func (f *multipartForm) file(name string, upload *model.Upload) {
	if f.err != nil || upload == nil {
		return
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, upload.Name))
	header.Set("Content-Type", upload.Type)
	part, err := f.writer.CreatePart(header)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = part.Write(upload.Data)
}

func (f *multipartForm) finish() (io.Reader, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.writer.Close(); err != nil {
		return nil, "", err
	}
	return &f.buf, f.writer.FormDataContentType(), nil
}

// dataEnvelope unwraps responses shaped as {"data": ...}.
type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

// decodeList accepts either a bare JSON array or {"data": [...]}.
func decodeList[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []T
		err := json.Unmarshal(trimmed, &items)
		return items, err
	}
	var env dataEnvelope[[]T]
	err := json.Unmarshal(trimmed, &env)
	return env.Data, err
}
