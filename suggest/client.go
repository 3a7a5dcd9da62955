// Package suggest looks up suggestions for the live search text of a formula
// editor.
//
// A Client fetches suggestions from an HTTP endpoint. Failures of any kind
// produce an empty list; the only error a caller sees is a missing endpoint
// when the client is created. A Tracker runs lookups in the background for
// an editor and keeps only the newest query's results on display.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/denysmiand/formula"
)

// ErrNoEndpoint is the error creating a client without an endpoint.
var ErrNoEndpoint = errors.New("suggest: no endpoint configured")

// maxBody is the largest response body the client reads.
const maxBody = 1 << 20

// Config describes the suggestion endpoint.
type Config struct {
	// Endpoint is the URL to request. The search term is added as a query
	// parameter.
	Endpoint string
	// Param is the name of the query parameter. Default is "search".
	Param string
	// Timeout bounds each request. Default is five seconds.
	Timeout time.Duration
	// Rate is the number of lookups per second the client allows. Zero
	// means no limit.
	Rate float64
	// Burst is the number of lookups allowed at once above Rate.
	Burst int
}

// Lookuper finds suggestions for a search term.
type Lookuper interface {
	Lookup(ctx context.Context, term string) []formula.Suggestion
}

// Client looks up suggestions over HTTP. It is safe for concurrent use.
type Client struct {
	endpoint *url.URL
	param    string
	http     *http.Client
	limiter  *rate.Limiter
	group    singleflight.Group
	log      *zap.Logger
	metrics  *metrics
}

var _ Lookuper = (*Client)(nil)

// Option is an option used when creating a client.
type Option interface {
	clientOption()
}

type (
	httpopt   struct{ c *http.Client }
	loggeropt struct{ log *zap.Logger }
	regopt    struct{ reg prometheus.Registerer }
)

func (httpopt) clientOption()   {}
func (loggeropt) clientOption() {}
func (regopt) clientOption()    {}

// HTTPClient sets the HTTP client used for requests. The client's timeout
// is replaced by the configured one if it has none.
func HTTPClient(c *http.Client) Option {
	return httpopt{c}
}

// Logger sets the logger for failed lookups.
func Logger(log *zap.Logger) Option {
	return loggeropt{log}
}

// Registerer sets where the client registers its metrics.
func Registerer(reg prometheus.Registerer) Option {
	return regopt{reg}
}

// New creates a client. It returns ErrNoEndpoint if cfg has no endpoint.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, ErrNoEndpoint
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("suggest: invalid endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("suggest: endpoint %q is not an absolute URL", cfg.Endpoint)
	}
	if cfg.Param == "" {
		cfg.Param = "search"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	c := Client{
		endpoint: u,
		param:    cfg.Param,
		log:      zap.NewNop(),
	}
	if cfg.Rate > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}
	var reg prometheus.Registerer
	for _, opt := range opts {
		switch opt := opt.(type) {
		case httpopt:
			c.http = opt.c
		case loggeropt:
			if opt.log != nil {
				c.log = opt.log
			}
		case regopt:
			reg = opt.reg
		case nil: // do nothing
		default:
			panic("suggest: unknown option type")
		}
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.http.Timeout == 0 {
		hc := *c.http
		hc.Timeout = cfg.Timeout
		c.http = &hc
	}
	c.metrics = newMetrics(reg)
	return &c, nil
}

// Lookup returns suggestions for a term. Concurrent lookups of the same term
// share one request. Any failure, including an empty term, gives an empty
// list.
func (c *Client) Lookup(ctx context.Context, term string) []formula.Suggestion {
	if term == "" {
		return nil
	}
	v, _, shared := c.group.Do(term, func() (any, error) {
		return c.fetch(ctx, term), nil
	})
	if shared {
		c.metrics.shared.Inc()
	}
	r, _ := v.([]formula.Suggestion)
	return r
}

// fetch performs one request. It never fails; problems are logged and
// counted.
func (c *Client) fetch(ctx context.Context, term string) []formula.Suggestion {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.metrics.lookups.WithLabelValues(outcomeLimited).Inc()
			c.log.Debug("suggestion lookup not allowed", zap.String("term", term), zap.Error(err))
			return nil
		}
	}
	start := time.Now()
	r, err := c.get(ctx, term)
	c.metrics.latency.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.lookups.WithLabelValues(outcomeError).Inc()
		c.log.Warn("suggestion lookup failed", zap.String("term", term), zap.Error(err))
		return nil
	}
	if len(r) == 0 {
		c.metrics.lookups.WithLabelValues(outcomeEmpty).Inc()
		return nil
	}
	c.metrics.lookups.WithLabelValues(outcomeOK).Inc()
	return r
}

func (c *Client) get(ctx context.Context, term string) ([]formula.Suggestion, error) {
	u := *c.endpoint
	q := u.Query()
	q.Set(c.param, term)
	u.RawQuery = q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, &StatusError{Code: resp.StatusCode}
	}
	var r []formula.Suggestion
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding suggestions: %w", err)
	}
	return r, nil
}

// StatusError is an unexpected HTTP status from the endpoint.
type StatusError struct {
	Code int
}

func (err *StatusError) Error() string {
	return "unexpected status " + http.StatusText(err.Code) + fmt.Sprintf(" (%d)", err.Code)
}
