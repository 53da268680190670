package sharelink

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/matzehuels/dotlive/pkg/errors"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty", ""},
		{"ascii", "digraph { a -> b }"},
		{"multiline", "digraph G {\n  rankdir=LR;\n  a -> b;\n}\n"},
		{"emoji", `digraph { "🚀" -> "🌕" }`},
		{"cjk", `digraph { 开始 -> 结束 }`},
		{"arabic", `digraph { "مرحبا" -> "عالم" }`},
		{"mixed", "graph { \"naïve café\" -- \"日本語 ✓\" -- \"𝄞\" }"},
		{"url metacharacters", `digraph { "a?b=c&d" -> "e+f/g%20" }`},
		{"nul and control", "a\x00b\x01c\td"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(Encode(tt.source))
			if tt.source == "" {
				if err == nil {
					t.Error("empty token should not decode")
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got != tt.source {
				t.Errorf("round trip = %q, want %q", got, tt.source)
			}
		})
	}
}

func TestEncodeMatchesBrowserEncoding(t *testing.T) {
	// btoa(unescape(encodeURIComponent("héllo ✓")))
	if got, want := Encode("héllo ✓"), "aMOpbGxvIOKckw=="; got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}
}

func TestEncodeReplacesInvalidUTF8(t *testing.T) {
	got, err := Decode(Encode("a\xffb"))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != "a\uFFFDb" {
		t.Errorf("got %q", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base64", "!!!not-base64!!!"},
		{"invalid utf8 payload", "/w=="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.token)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidShareLink) {
				t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidShareLink)
			}
		})
	}
}

func TestDecodeTolerantVariants(t *testing.T) {
	src := "digraph { a -> b }??>>"
	std := Encode(src)
	variants := map[string]string{
		"unpadded":      strings.TrimRight(std, "="),
		"url-safe":      strings.NewReplacer("+", "-", "/", "_").Replace(std),
		"plus as space": strings.ReplaceAll(std, "+", " "),
	}
	for name, tok := range variants {
		t.Run(name, func(t *testing.T) {
			got, err := Decode(tok)
			if err != nil {
				t.Fatalf("Decode(%q): %v", tok, err)
			}
			if got != src {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestBuildURLRoundTrip(t *testing.T) {
	src := "digraph { \"✓\" -> \"日本\" }"
	link, err := BuildURL("https://dotlive.dev/editor?old=1#frag", src)
	if err != nil {
		t.Fatalf("BuildURL: %v", err)
	}
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Host != "dotlive.dev" || u.Path != "/editor" || u.Fragment != "" {
		t.Errorf("unexpected URL %s", link)
	}
	if u.Query().Has("old") {
		t.Errorf("old query params should be dropped: %s", link)
	}

	got, found, err := FromURL(link)
	if err != nil || !found {
		t.Fatalf("FromURL: found=%v err=%v", found, err)
	}
	if got != src {
		t.Errorf("FromURL = %q, want %q", got, src)
	}
}

func TestBuildURLRejectsBadOrigins(t *testing.T) {
	for _, origin := range []string{"", "ftp://x", "not a url", "http://"} {
		if _, err := BuildURL(origin, "a"); err == nil {
			t.Errorf("BuildURL(%q) should fail", origin)
		}
	}
}

func TestFromQuery(t *testing.T) {
	_, found, err := FromQuery(url.Values{})
	if found || err != nil {
		t.Errorf("absent param: found=%v err=%v", found, err)
	}

	_, found, err = FromQuery(url.Values{Param: {"%%%"}})
	if !found || err == nil {
		t.Errorf("malformed param: found=%v err=%v", found, err)
	}
}

func TestFromURLBareToken(t *testing.T) {
	got, found, err := FromURL(Encode("a -> b"))
	if err != nil || !found || got != "a -> b" {
		t.Errorf("FromURL(token) = %q, %v, %v", got, found, err)
	}
}

func TestClipboardFunc(t *testing.T) {
	var got string
	c := ClipboardFunc(func(_ context.Context, text string) error {
		got = text
		return nil
	})
	if err := c.WriteText(context.Background(), "https://x/?code=YQ=="); err != nil {
		t.Fatal(err)
	}
	if got != "https://x/?code=YQ==" {
		t.Errorf("got %q", got)
	}
}
