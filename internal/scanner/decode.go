package scanner

import (
	"fmt"
	"mime"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// decodeBody converts body to UTF-8 using the charset declared in
// contentType, defaulting to UTF-8. Invalid sequences become U+FFFD and an
// unrecognised label falls back to UTF-8. Only a decoder that gives up
// entirely returns an error.
func decodeBody(body []byte, contentType string) ([]byte, error) {
	label := "utf-8"
	if contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil && params["charset"] != "" {
			label = params["charset"]
		}
	}

	var enc encoding.Encoding = unicode.UTF8
	name := "utf-8"
	if e, n := charset.Lookup(label); e != nil {
		enc, name = e, n
	}

	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("%w (%s): %v", ErrDecode, name, err)
	}
	return out, nil
}
