package suggest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/denysmiand/formula"
)

// Idle keep-alive connections outlive the test servers briefly.
var leakOpts = []goleak.Option{
	goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
	goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, leakOpts...)
}

// server serves body with status code and counts requests.
func server(t *testing.T, code int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestNew(t *testing.T) {
	cases := []struct {
		name     string
		endpoint string
		err      bool
	}{
		{"ok", "http://localhost:8080/api/suggestions", false},
		{"empty", "", true},
		{"relative", "/api/suggestions", true},
		{"no-scheme", "localhost:8080", true},
		{"malformed", "http://[::1", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cl, err := New(Config{Endpoint: c.endpoint})
			if c.err {
				assert.Error(t, err)
				assert.Nil(t, cl)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "search", cl.param)
			assert.Equal(t, 5*time.Second, cl.http.Timeout)
			assert.Nil(t, cl.limiter)
		})
	}
	_, err := New(Config{})
	assert.True(t, errors.Is(err, ErrNoEndpoint))
}

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "1", r.URL.Query().Get("v"))
		fmt.Fprintf(w, `[{"id": "a", "name": %q, "category": "constant", "value": 2.5}]`, r.URL.Query().Get("q"))
	}))
	defer srv.Close()

	reg := prometheus.NewPedanticRegistry()
	cl, err := New(Config{Endpoint: srv.URL + "/find?v=1", Param: "q"}, HTTPClient(srv.Client()), Registerer(reg))
	require.NoError(t, err)

	got := cl.Lookup(context.Background(), "half of five")
	want := []formula.Suggestion{{ID: "a", Name: "half of five", Category: "constant", Value: "2.5"}}
	assert.Equal(t, want, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(cl.metrics.lookups.WithLabelValues(outcomeOK)))
	assert.Equal(t, 1, testutil.CollectAndCount(cl.metrics.latency))
	n, err := testutil.GatherAndCount(reg, "formula_suggest_lookups_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLookupEmptyTerm(t *testing.T) {
	srv, hits := server(t, http.StatusOK, `[{"name": "x"}]`)
	cl, err := New(Config{Endpoint: srv.URL}, HTTPClient(srv.Client()))
	require.NoError(t, err)
	assert.Nil(t, cl.Lookup(context.Background(), ""))
	assert.EqualValues(t, 0, hits.Load())
}

func TestLookupFailures(t *testing.T) {
	cases := []struct {
		name    string
		code    int
		body    string
		outcome string
		warned  bool
	}{
		{"status", http.StatusInternalServerError, `oops`, outcomeError, true},
		{"not-found", http.StatusNotFound, `[]`, outcomeError, true},
		{"bad-json", http.StatusOK, `{"name": "x"}`, outcomeError, true},
		{"bad-value", http.StatusOK, `[{"value": {}}]`, outcomeError, true},
		{"empty", http.StatusOK, `[]`, outcomeEmpty, false},
		{"null", http.StatusOK, `null`, outcomeEmpty, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv, hits := server(t, c.code, c.body)
			core, logs := observer.New(zapcore.WarnLevel)
			cl, err := New(Config{Endpoint: srv.URL}, HTTPClient(srv.Client()), Logger(zap.New(core)))
			require.NoError(t, err)

			assert.Empty(t, cl.Lookup(context.Background(), "pi"))
			assert.EqualValues(t, 1, hits.Load())
			assert.Equal(t, 1.0, testutil.ToFloat64(cl.metrics.lookups.WithLabelValues(c.outcome)))
			assert.Equal(t, c.warned, logs.FilterMessage("suggestion lookup failed").Len() == 1)
		})
	}
}

func TestStatusError(t *testing.T) {
	srv, _ := server(t, http.StatusTeapot, "")
	cl, err := New(Config{Endpoint: srv.URL}, HTTPClient(srv.Client()))
	require.NoError(t, err)
	_, err = cl.get(context.Background(), "x")
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusTeapot, serr.Code)
	assert.Equal(t, "unexpected status I'm a teapot (418)", serr.Error())
}

func TestLookupTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	cl, err := New(Config{Endpoint: srv.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)
	start := time.Now()
	assert.Nil(t, cl.Lookup(context.Background(), "slow"))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(cl.metrics.lookups.WithLabelValues(outcomeError)))
	cl.http.CloseIdleConnections()
}

func TestLookupRateLimited(t *testing.T) {
	srv, hits := server(t, http.StatusOK, `[{"name": "x", "value": 1}]`)
	cl, err := New(Config{Endpoint: srv.URL, Rate: 0.001, Burst: 1}, HTTPClient(srv.Client()))
	require.NoError(t, err)

	assert.Len(t, cl.Lookup(context.Background(), "a"), 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Nil(t, cl.Lookup(ctx, "b"))
	assert.EqualValues(t, 1, hits.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(cl.metrics.lookups.WithLabelValues(outcomeLimited)))
}

func TestRegistererConflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(Config{Endpoint: "http://localhost"}, Registerer(reg))
	require.NoError(t, err)
	assert.Panics(t, func() {
		New(Config{Endpoint: "http://localhost"}, Registerer(reg))
	})
}
