// Package text turns tweet bodies into plain terminal lines.
package text

import (
	"regexp"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	nethtml "golang.org/x/net/html"
)

var (
	reHTTPURL  = regexp.MustCompile(`https?://[^\s)]+`)
	reKnownTag = regexp.MustCompile(`(?i)^</?(a|b|i|em|strong|span|br|p|div|li|script|style)(\s[^<>]*)?/?>`)
	reEntity   = regexp.MustCompile(`&(#[0-9]+|#[xX][0-9a-fA-F]+|[a-zA-Z][a-zA-Z0-9]*);`)
)

// Flatten strips markup and decodes entities. Line breaks survive, runs of
// spaces inside a line collapse to one. A '<' that does not open a known tag
// is kept as text.
func Flatten(raw string) string {
	if !hasKnownTag(raw) {
		if reEntity.MatchString(raw) {
			return normalize(nethtml.UnescapeString(raw))
		}
		return normalize(raw)
	}

	z := nethtml.NewTokenizer(strings.NewReader(escapeStrayLT(raw)))
	var b strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case nethtml.ErrorToken:
			return normalize(b.String())
		case nethtml.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "br":
				b.WriteByte('\n')
			case "p", "div", "li":
				if b.Len() > 0 {
					b.WriteByte('\n')
				}
			case "script", "style":
				if tt == nethtml.StartTagToken {
					skip++
				}
			}
		case nethtml.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				if skip > 0 {
					skip--
				}
			}
		}
	}
}

func hasKnownTag(s string) bool {
	for i := strings.IndexByte(s, '<'); i >= 0; {
		if reKnownTag.MatchString(s[i:]) {
			return true
		}
		next := strings.IndexByte(s[i+1:], '<')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return false
}

// escapeStrayLT turns every '<' that does not start a known tag into an
// entity so the tokenizer reads it as text.
func escapeStrayLT(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '<' && !reKnownTag.MatchString(s[i:]) {
			b.WriteString("&lt;")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Lines wraps text to width. Width below one disables wrapping.
func Lines(s string, width int) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if width > 0 {
		s = wordwrap.String(s, width)
	}
	return trimBlankLines(strings.Split(s, "\n"))
}

// Links returns the http(s) URLs in s, first occurrence order.
func Links(s string) []string {
	matches := reHTTPURL.FindAllString(s, -1)
	out := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;:!?")
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

func normalize(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(trimBlankLines(lines), "\n")
}

func trimBlankLines(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines) - 1
	for end >= start && strings.TrimSpace(lines[end]) == "" {
		end--
	}
	if end < start {
		return nil
	}
	out := make([]string, 0, end-start+1)
	prevBlank := false
	for i := start; i <= end; i++ {
		blank := strings.TrimSpace(lines[i]) == ""
		if blank && prevBlank {
			continue
		}
		out = append(out, lines[i])
		prevBlank = blank
	}
	return out
}
