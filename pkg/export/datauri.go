package export

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/dotlive/pkg/errors"
)

// Media types used in data URIs.
const (
	MediaSVG = "image/svg+xml"
	MediaPNG = "image/png"
)

// SVGDataURI embeds a vector document in a data URI. The text is taken as
// UTF-8 bytes before base64 so that any Unicode label survives.
func SVGDataURI(svg []byte) string {
	if !utf8.Valid(svg) {
		svg = []byte(strings.ToValidUTF8(string(svg), "\uFFFD"))
	}
	return DataURI(MediaSVG, svg)
}

// DataURI returns a base64 data URI for data.
func DataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI returns the media type and payload of a base64 data URI.
func ParseDataURI(uri string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.New(errors.ErrCodeInvalidInput, "not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New(errors.ErrCodeInvalidInput, "data URI has no payload")
	}
	mediaType, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, errors.New(errors.ErrCodeInvalidInput, "only base64 data URIs are supported")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad data URI payload")
	}
	return mediaType, data, nil
}
