package diagnostics

import (
	"strings"

	"golang.org/x/net/html"
)

type CleanConfig struct {
	TagsToRemove  []string
	AttrsToRemove []string
	// KeepAttrPrefixes survive even though other data-/on* attributes are dropped.
	KeepAttrPrefixes []string
	MaxOutputSize    int
}

var DefaultCleanConfig = CleanConfig{
	TagsToRemove: []string{
		"script", "style", "noscript", "svg", "link", "meta", "head",
	},
	AttrsToRemove: []string{
		"style", "srcset", "sizes", "loading", "decoding", "fetchpriority",
	},
	KeepAttrPrefixes: []string{"data-testid", "data-test", "aria-"},
	MaxOutputSize:    200_000,
}

// CleanDOM strips markup that does not help when reading a failure snapshot:
// comments, scripts, styles and presentational attributes. Iframes are kept
// so nested frame targets stay visible. On parse failure the input is
// returned unchanged.
func CleanDOM(rawHTML string, cfg *CleanConfig) string {
	if cfg == nil {
		cfg = &DefaultCleanConfig
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return truncate(rawHTML, cfg.MaxOutputSize)
	}

	root := findNode(doc, "body")
	if root == nil {
		root = doc
	}
	cleanNode(root, cfg)

	var sb strings.Builder
	if err := html.Render(&sb, root); err != nil {
		return truncate(rawHTML, cfg.MaxOutputSize)
	}
	return truncate(sb.String(), cfg.MaxOutputSize)
}

func findNode(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func cleanNode(n *html.Node, cfg *CleanConfig) {
	if n.Type == html.CommentNode {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}
	if n.Type == html.ElementNode {
		if oneOf(n.Data, cfg.TagsToRemove) {
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
			}
			return
		}
		n.Attr = filterAttributes(n.Attr, cfg)
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		cleanNode(c, cfg)
		c = next
	}
}

func filterAttributes(attrs []html.Attribute, cfg *CleanConfig) []html.Attribute {
	var kept []html.Attribute
	for _, attr := range attrs {
		if removeAttr(attr.Key, cfg) {
			continue
		}
		kept = append(kept, attr)
	}
	return kept
}

func removeAttr(key string, cfg *CleanConfig) bool {
	for _, prefix := range cfg.KeepAttrPrefixes {
		if strings.HasPrefix(key, prefix) {
			return false
		}
	}
	if oneOf(key, cfg.AttrsToRemove) {
		return true
	}
	return strings.HasPrefix(key, "data-") || strings.HasPrefix(key, "on")
}

func truncate(s string, max int) string {
	if max > 0 && len(s) > max {
		return s[:max] + "\n<!-- truncated -->"
	}
	return s
}

func oneOf(s string, candidates []string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}
