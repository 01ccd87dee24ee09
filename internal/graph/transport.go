package graph

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
	"github.com/nhankey2000/auto-post/internal/metrics"
	"go.uber.org/zap"
)

// DefaultBaseURL is the versioned Graph API root.
const DefaultBaseURL = "https://graph.facebook.com/v20.0/"

// Config configures a Transport
type Config struct {
	BaseURL     string
	Timeout     time.Duration // per attempt
	MaxRetries  int
	BackoffBase time.Duration
	UserAgent   string
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "autopost/1.0"
	}
	return c
}

// Option customizes a Transport
type Option func(*Transport)

// WithHTTPClient sets the underlying http.Client (e.g. one instrumented for tracing).
func WithHTTPClient(hc *http.Client) Option {
	return func(t *Transport) { t.httpClient = hc }
}

// WithLogger sets the logger used for retry and failure logging.
func WithLogger(l *zap.Logger) Option {
	return func(t *Transport) { t.log = l }
}

// WithMetrics enables Prometheus counters for attempts and retries.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Transport) { t.metrics = m }
}

// Doer is what the Graph-facing components depend on. *Transport implements it.
type Doer interface {
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// Request describes a single Graph call. Path is relative to the base URL
// unless it is an absolute URL. Files maps multipart field names to local
// paths; when Files is set, Form is sent as the other multipart fields.
type Request struct {
	Name   string // metrics/log label, e.g. "page.photos"
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
	Files  map[string]string
	JSON   interface{}
}

// Response is a fully buffered Graph response.
type Response struct {
	StatusCode int
	Body       []byte
	Attempts   int
	Duration   time.Duration
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &TransportError{Kind: KindMalformed, StatusCode: r.StatusCode, Attempts: r.Attempts, Err: err}
	}
	return nil
}

// RemoteError returns the error object embedded in a successful response, if any.
func (r *Response) RemoteError() *RemoteError {
	return ParseRemoteError(r.Body)
}

// Transport sends Graph requests with bounded retries and exponential backoff.
// It is safe for concurrent use; retry state lives on each request.
type Transport struct {
	client     *resty.Client
	httpClient *http.Client
	policy     RetryPolicy
	log        *zap.Logger
	metrics    *metrics.Metrics
}

// New builds a Transport
func New(cfg Config, opts ...Option) *Transport {
	cfg = cfg.withDefaults()

	t := &Transport{
		policy: RetryPolicy{MaxRetries: cfg.MaxRetries, BaseDelay: cfg.BackoffBase},
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.httpClient != nil {
		// resty writes Timeout (and Transport when nil) on the client it
		// wraps; the caller's client may be shared.
		hc := *t.httpClient
		t.client = resty.NewWithClient(&hc)
	} else {
		t.client = resty.New()
	}

	t.client.
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetLogger(t.log.Sugar()).
		SetRetryCount(t.policy.MaxRetries).
		SetRetryWaitTime(t.policy.BaseDelay).
		SetRetryMaxWaitTime(t.policy.MaxDelay()).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return t.decide(resp, err).Retry
		}).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp == nil || resp.Request == nil {
				return t.policy.Backoff(0), nil
			}
			return t.policy.Backoff(resp.Request.Attempt - 1), nil
		}).
		AddRetryHook(t.onRetry)

	t.client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		t.observe(resp.Request, resp.StatusCode())
		return nil
	})
	t.client.OnError(func(req *resty.Request, _ error) {
		t.observe(req, 0)
	})

	return t
}

// Policy returns the retry policy in use.
func (t *Transport) Policy() RetryPolicy {
	return t.policy
}

// Execute sends req, retrying transient failures. A non-2xx final response
// or an exhausted connection failure is returned as *TransportError. 2xx
// responses are returned as-is even when they carry an error object.
func (t *Transport) Execute(ctx context.Context, req *Request) (*Response, error) {
	name := req.Name
	if name == "" {
		name = req.Method + " " + req.Path
	}

	r := t.client.R().SetContext(context.WithValue(ctx, endpointKey{}, name))
	r.SetQueryParamsFromValues(req.Query)
	switch {
	case len(req.Files) > 0:
		r.SetFiles(req.Files)
		if req.Form != nil {
			r.SetFormDataFromValues(req.Form)
		}
	case req.Form != nil:
		r.SetFormDataFromValues(req.Form)
	case req.JSON != nil:
		r.SetHeader("Content-Type", "application/json").SetBody(req.JSON)
	}

	start := time.Now()
	resp, err := r.Execute(req.Method, req.Path)
	elapsed := time.Since(start)
	if t.metrics != nil {
		t.metrics.GraphRequestDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	}

	attempts := r.Attempt
	if err != nil {
		t.log.Warn("Graph request failed",
			zap.String("endpoint", name),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return nil, &TransportError{Kind: KindConnectionFailure, Endpoint: name, Attempts: attempts, Err: err}
	}

	out := &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Attempts:   attempts,
		Duration:   elapsed,
	}
	if resp.IsSuccess() {
		return out, nil
	}

	te := &TransportError{
		Kind:       classifyStatus(out.StatusCode, out.Body),
		Endpoint:   name,
		StatusCode: out.StatusCode,
		Attempts:   attempts,
		Remote:     ParseRemoteError(out.Body),
	}
	t.log.Warn("Graph request rejected",
		zap.String("endpoint", name),
		zap.Int("status", out.StatusCode),
		zap.Int("attempts", attempts),
		zap.String("kind", string(te.Kind)),
		zap.String("message", Message(te)),
	)
	return out, te
}

func (t *Transport) decide(resp *resty.Response, err error) RetryDecision {
	if resp == nil || resp.Request == nil {
		return t.policy.Decide(0, 0, nil, err)
	}
	status := 0
	if resp.RawResponse != nil {
		status = resp.StatusCode()
	}
	return t.policy.Decide(resp.Request.Attempt-1, status, resp.Body(), err)
}

func (t *Transport) onRetry(resp *resty.Response, err error) {
	d := t.decide(resp, err)
	attempt := 0
	if resp != nil && resp.Request != nil {
		attempt = resp.Request.Attempt
	}
	if t.metrics != nil {
		t.metrics.GraphRetriesTotal.WithLabelValues(d.Reason).Inc()
	}
	fields := []zap.Field{
		zap.Int("attempt", attempt),
		zap.String("reason", d.Reason),
		zap.Duration("delay", d.Delay),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	t.log.Warn("Retrying Graph request", fields...)
}

type endpointKey struct{}

func (t *Transport) observe(req *resty.Request, status int) {
	if t.metrics == nil || req == nil {
		return
	}
	name, _ := req.Context().Value(endpointKey{}).(string)
	t.metrics.GraphRequestsTotal.WithLabelValues(name, strconv.Itoa(status)).Inc()
}
