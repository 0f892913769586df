package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/roster-crawler/internal/roster"
)

const listingURL = "https://www.baseball-reference.com/players/a/"

func TestFetchReturnsBodyAndSendsBrowserHeaders(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, listingURL, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, DefaultUserAgent, req.Header.Get("User-Agent"))
		assert.Equal(t, "en-US,en;q=0.9", req.Header.Get("Accept-Language"))
		resp := httpmock.NewStringResponse(http.StatusOK, `<p><a href="/players/a/aaronha01.shtml">Hank Aaron+</a></p>`)
		resp.Header.Set("Content-Type", "text/html; charset=utf-8")
		return resp, nil
	})

	f := New(Config{
		Headers:   http.Header{"Accept-Language": {"en-US,en;q=0.9"}},
		Transport: transport,
	})

	page, err := f.Fetch(context.Background(), listingURL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, listingURL, page.URL)
	assert.Contains(t, string(page.Body), "aaronha01.shtml")
	assert.Equal(t, "text/html; charset=utf-8", page.Headers.Get("Content-Type"))
	assert.Equal(t, 1, transport.GetCallCountInfo()["GET "+listingURL])
}

func TestFetchClassifiesHTTPStatus(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, listingURL, httpmock.NewStringResponder(http.StatusNotFound, "missing"))

	f := New(Config{Transport: transport})
	_, err := f.Fetch(context.Background(), listingURL)

	var ff *roster.FetchFailure
	require.ErrorAs(t, err, &ff)
	assert.Equal(t, http.StatusNotFound, ff.Status)
	assert.Equal(t, listingURL, ff.URL)
}

func TestFetchClassifiesTransportFault(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, listingURL, httpmock.NewErrorResponder(errors.New("connection reset by peer")))

	f := New(Config{Transport: transport})
	_, err := f.Fetch(context.Background(), listingURL)

	var nf *roster.NetworkFailure
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, nf.Error(), "connection reset by peer")
}

func TestFetchCanRevisitURL(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, listingURL, httpmock.NewStringResponder(http.StatusOK, "<p></p>"))

	f := New(Config{Transport: transport})
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), listingURL)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, transport.GetCallCountInfo()["GET "+listingURL])
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, listingURL, httpmock.NewStringResponder(http.StatusOK, "<p></p>"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New(Config{Transport: transport})
	_, err := f.Fetch(ctx, listingURL)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	assert.Equal(t, DefaultUserAgent, f.cfg.UserAgent)
	assert.Equal(t, defaultTimeout, f.cfg.Timeout)

	collector := f.buildCollector(context.Background(), time.Unix(0, 0), &roster.Page{}, new(error))
	assert.True(t, collector.IgnoreRobotsTxt)
	assert.True(t, collector.ParseHTTPErrorResponse)
	assert.True(t, collector.AllowURLRevisit)
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{Headers: http.Header{"X-Trace": {"yes"}}})
	var result roster.Page
	var fetchErr error

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, time.Unix(0, 0), &result, &fetchErr)
	require.NotNil(t, hooks.onRequest)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	collyReq := &colly.Request{Headers: &http.Header{}}
	hooks.onRequest(collyReq)
	assert.Equal(t, "yes", collyReq.Headers.Get("X-Trace"))

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusCreated,
		Body:       []byte("body"),
		Headers:    &http.Header{"X-Resp": {"ok"}},
		Request:    &colly.Request{URL: mustParseURL(t, "https://example.com")},
	})
	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.Equal(t, "body", string(result.Body))
	assert.Equal(t, "ok", result.Headers.Get("X-Resp"))
	assert.Equal(t, "https://example.com", result.URL)

	hooks.onError(nil, errors.New("boom"))
	assert.EqualError(t, fetchErr, "boom")
}

func TestCopyHeadersHandlesNil(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	collyReq := &colly.Request{Headers: &http.Header{}}
	f.copyHeaders(collyReq)
	assert.Empty(t, *collyReq.Headers)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

type stubHooks struct {
	onRequest  colly.RequestCallback
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnRequest(cb colly.RequestCallback) {
	s.onRequest = cb
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
