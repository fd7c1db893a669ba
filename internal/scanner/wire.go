package scanner

import (
	"bytes"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// maxHeaderCapture bounds how much of a response is kept while looking for
// the end of its header block.
const maxHeaderCapture = 256 * 1024

// recordingConn copies the bytes read from the underlying connection into
// the capture of the request currently using it. net/http keeps headers in
// a map, so this is the only place the wire order survives.
type recordingConn struct {
	net.Conn

	mu  sync.Mutex
	cur *headerCapture
}

func (c *recordingConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if n > 0 {
		c.mu.Lock()
		cur := c.cur
		c.mu.Unlock()
		if cur != nil {
			cur.write(p[:n])
		}
	}
	return n, err
}

// reset starts a new capture for the request the transport just handed the
// connection to. Earlier captures are left untouched, so a request that
// lost the connection to the idle pool can still read its own headers.
func (c *recordingConn) reset() *headerCapture {
	hc := &headerCapture{}
	c.mu.Lock()
	c.cur = hc
	c.mu.Unlock()
	return hc
}

// headerCapture holds the response bytes seen by one request, up to the end
// of its final (non-1xx) header block.
type headerCapture struct {
	mu   sync.Mutex
	buf  []byte
	done bool
}

func (h *headerCapture) write(p []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return
	}
	h.buf = append(h.buf, p...)
	if _, ok := finalHeaderBlock(h.buf); ok || len(h.buf) >= maxHeaderCapture {
		h.done = true
	}
}

// headerBlock returns a copy of the captured final header block.
func (h *headerCapture) headerBlock() ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	block, ok := finalHeaderBlock(h.buf)
	if !ok {
		return nil, false
	}
	return bytes.Clone(block), true
}

// finalHeaderBlock finds the first complete header block in buf whose
// status is not informational (1xx), skipping any interim responses.
func finalHeaderBlock(buf []byte) ([]byte, bool) {
	for len(buf) > 0 {
		end := headerEnd(buf)
		if end < 0 {
			return nil, false
		}
		block := buf[:end]
		if code, ok := statusCode(block); ok && code >= 100 && code < 200 && code != 101 {
			buf = buf[end:]
			continue
		}
		return block, true
	}
	return nil, false
}

// headerEnd returns the offset just past the blank line terminating the
// header block, or -1.
func headerEnd(buf []byte) int {
	if i := bytes.Index(buf, []byte("\r\n\r\n")); i >= 0 {
		return i + 4
	}
	if i := bytes.Index(buf, []byte("\n\n")); i >= 0 {
		return i + 2
	}
	return -1
}

func statusCode(block []byte) (int, bool) {
	line := block
	if i := bytes.IndexByte(block, '\n'); i >= 0 {
		line = block[:i]
	}
	fields := strings.Fields(string(line))
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") {
		return 0, false
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return code, true
}

// parseHeaderBlock turns a raw header block into ordered header lines.
// The status line is skipped. Obsolete line folding is joined with a space.
func parseHeaderBlock(block []byte) []Header {
	lines := strings.Split(string(block), "\n")
	if len(lines) < 2 {
		return nil
	}
	var headers []Header
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			break
		}
		if (line[0] == ' ' || line[0] == '\t') && len(headers) > 0 {
			last := &headers[len(headers)-1]
			last.Value = strings.TrimSpace(last.Value + " " + strings.TrimSpace(line))
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers = append(headers, Header{Name: name, Value: strings.TrimSpace(value)})
	}
	return headers
}

// sortedHeaders flattens an http.Header with keys in sorted order. Used
// when the raw header block is unavailable.
func sortedHeaders(h http.Header) []Header {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var headers []Header
	for _, k := range keys {
		for _, v := range h[k] {
			headers = append(headers, Header{Name: k, Value: v})
		}
	}
	return headers
}
