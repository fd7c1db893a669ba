package scanner

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/JohnWoodman/fes/internal/config"
)

// Requester is the shared probe client. It is configured once and only read
// afterwards, so one instance serves all workers.
type Requester struct {
	client    *http.Client
	dialer    *net.Dialer
	tlsConfig *tls.Config
	userAgent string
	maxBody   int64
}

// NewRequester creates a Requester from the provided options.
func NewRequester(opts *config.Options) (*Requester, error) {
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("invalid timeout %s", opts.Timeout)
	}

	r := &Requester{
		dialer: &net.Dialer{
			Timeout:   opts.Timeout,
			KeepAlive: 30 * time.Second,
		},
		// Platform-default verification; HTTP/1.1 only so the header
		// block can be read off the connection.
		tlsConfig: &tls.Config{NextProtos: []string{"http/1.1"}},
		userAgent: config.UserAgent,
		maxBody:   opts.MaxBody,
	}

	threads := opts.Concurrency
	if threads < 1 {
		threads = config.DefaultConcurrency
	}

	transport := &http.Transport{
		DialContext:           r.dial,
		DialTLSContext:        r.dialTLS,
		ForceAttemptHTTP2:     false,
		TLSNextProto:          map[string]func(string, *tls.Conn) http.RoundTripper{},
		DisableCompression:    true,
		MaxIdleConns:          threads,
		MaxIdleConnsPerHost:   threads,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	r.client = &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return r, nil
}

func (r *Requester) dial(ctx context.Context, network, addr string) (net.Conn, error) {
	conn, err := r.dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	return &recordingConn{Conn: conn}, nil
}

func (r *Requester) dialTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	raw, err := r.dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	cfg := r.tlsConfig.Clone()
	if cfg.ServerName == "" {
		cfg.ServerName = host
	}
	tc := tls.Client(raw, cfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		raw.Close()
		return nil, err
	}
	return &recordingConn{Conn: tc}, nil
}

// Do sends a GET for item and returns the parsed response. Any response
// that arrives, whatever its status, is a success; only transport and
// decoding problems are returned as errors.
func (r *Requester) Do(ctx context.Context, item WorkItem) (*Response, error) {
	target := item.FullURL()

	var capture *headerCapture
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			if rc, ok := info.Conn.(*recordingConn); ok {
				capture = rc.reset()
			}
		},
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	headers := wireHeaders(capture, resp)

	var body io.Reader = resp.Body
	if r.maxBody > 0 {
		body = io.LimitReader(resp.Body, r.maxBody+1)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading response body for %s: %w", target, err)
	}
	truncated := false
	if r.maxBody > 0 && int64(len(raw)) > r.maxBody {
		raw = raw[:r.maxBody]
		truncated = true
	}
	elapsed := time.Since(start)

	text, err := decodeBody(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	return &Response{
		RequestURL: target,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Reason:     http.StatusText(resp.StatusCode),
		Headers:    headers,
		Body:       text,
		Truncated:  truncated,
		Duration:   elapsed,
	}, nil
}

// wireHeaders prefers the headers as captured off the connection and falls
// back to the parsed header map when the capture does not match resp.
func wireHeaders(capture *headerCapture, resp *http.Response) []Header {
	if capture != nil {
		if block, ok := capture.headerBlock(); ok {
			if code, ok := statusCode(block); ok && code == resp.StatusCode {
				return parseHeaderBlock(block)
			}
		}
	}
	return sortedHeaders(resp.Header)
}
