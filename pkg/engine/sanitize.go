package engine

import "regexp"

var (
	scriptRe     = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	eventAttrRe  = regexp.MustCompile(`(?i)\son[a-z]+\s*=\s*("[^"]*"|'[^']*')`)
	hrefAttrRe   = regexp.MustCompile(`(?i)\s(?:xlink:)?href\s*=\s*("[^"]*"|'[^']*')`)
	jsHrefAttrRe = regexp.MustCompile(`(?i)\s(?:xlink:)?href\s*=\s*("\s*javascript:[^"]*"|'\s*javascript:[^']*')`)
)

// sanitize strips active content from svg according to the security level.
//
//	loose:      unchanged
//	antiscript: scripts, event handlers and javascript: links removed
//	strict, sandbox: additionally every link target removed
func sanitize(svg []byte, level string) []byte {
	switch level {
	case SecurityLoose, "":
		return svg
	case SecurityAntiscript:
		svg = scriptRe.ReplaceAll(svg, nil)
		svg = eventAttrRe.ReplaceAll(svg, nil)
		return jsHrefAttrRe.ReplaceAll(svg, nil)
	default:
		svg = scriptRe.ReplaceAll(svg, nil)
		svg = eventAttrRe.ReplaceAll(svg, nil)
		return hrefAttrRe.ReplaceAll(svg, nil)
	}
}
