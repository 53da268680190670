// Package sharelink encodes diagram source into a URL query parameter and back.
//
// The token is standard base64 over the UTF-8 bytes of the source, so any
// Unicode text (emoji, CJK, RTL scripts) survives the round trip. This is the
// same byte stream a browser produces with
// btoa(unescape(encodeURIComponent(text))), so links are interchangeable with
// a JavaScript client.
//
//	link, _ := sharelink.BuildURL("https://dotlive.dev", src)
//	// https://dotlive.dev/?code=ZGlncmFwaCB7IGEgLT4gYiB9
//	back, found, err := sharelink.FromURL(link)
package sharelink

import (
	"encoding/base64"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/dotlive/pkg/errors"
)

// Param is the query parameter carrying the encoded source.
const Param = "code"

// decoders are tried in order; links produced elsewhere may be URL-safe or unpadded.
var decoders = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// Encode returns the share token for source. Invalid UTF-8 sequences are
// replaced with U+FFFD first, so every token decodes.
func Encode(source string) string {
	if !utf8.ValidString(source) {
		source = strings.ToValidUTF8(source, "\uFFFD")
	}
	return base64.StdEncoding.EncodeToString([]byte(source))
}

// Decode reverses Encode. It fails with INVALID_SHARE_LINK when the token is
// not base64 or does not carry UTF-8 text.
func Decode(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New(errors.ErrCodeInvalidShareLink, "empty share token")
	}
	// an unescaped '+' arrives as ' ' after query parsing
	token = strings.ReplaceAll(token, " ", "+")

	var lastErr error
	for _, enc := range decoders {
		b, err := enc.DecodeString(token)
		if err != nil {
			lastErr = err
			continue
		}
		if !utf8.Valid(b) {
			return "", errors.New(errors.ErrCodeInvalidShareLink, "share token is not UTF-8 text")
		}
		return string(b), nil
	}
	return "", errors.Wrap(errors.ErrCodeInvalidShareLink, lastErr, "malformed share token")
}

// BuildURL returns origin with the encoded source as the only query parameter.
// The origin's scheme, host and path are kept; query and fragment are dropped.
func BuildURL(origin, source string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid origin %q", origin)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New(errors.ErrCodeInvalidInput, "origin must use http or https: %q", origin)
	}
	if u.Host == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "origin has no host: %q", origin)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.RawQuery = url.Values{Param: {Encode(source)}}.Encode()
	u.Fragment = ""
	return u.String(), nil
}

// FromQuery extracts and decodes the share parameter.
// found is false when the parameter is absent.
func FromQuery(q url.Values) (source string, found bool, err error) {
	if !q.Has(Param) {
		return "", false, nil
	}
	source, err = Decode(q.Get(Param))
	return source, true, err
}

// FromURL parses raw as a URL and extracts the share parameter.
// A bare token (no '?' and no scheme) is decoded directly.
func FromURL(raw string) (source string, found bool, err error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "?") && !strings.Contains(raw, "://") {
		source, err = Decode(raw)
		return source, true, err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeInvalidShareLink, err, "invalid share URL")
	}
	return FromQuery(u.Query())
}
