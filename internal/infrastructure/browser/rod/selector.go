package rod

import (
	"fmt"
	"strings"
)

// parseSelector turns a harness selector into a CSS or XPath query.
//
//	xpath=<expr>  XPath
//	text=<text>   innermost elements whose text contains <text>, ignoring case; quote it for an exact match
//	css=<sel>     CSS
//
// Bare selectors starting with "/" or "(" are XPath, anything else is CSS.
func parseSelector(selector string) (query string, isXPath bool) {
	switch {
	case strings.HasPrefix(selector, "xpath="):
		return strings.TrimPrefix(selector, "xpath="), true
	case strings.HasPrefix(selector, "text="):
		return textXPath(strings.TrimPrefix(selector, "text=")), true
	case strings.HasPrefix(selector, "css="):
		return strings.TrimPrefix(selector, "css="), false
	case strings.HasPrefix(selector, "/"), strings.HasPrefix(selector, "("):
		return selector, true
	}
	return selector, false
}

const textCandidates = `//*[not(self::script or self::style or self::head or self::title or self::noscript)]`

// XPath 1.0 has no lower-case(); translate folds ASCII and the Latin-1 letters
// used in Portuguese UI copy.
const (
	upperLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZÀÁÂÃÄÇÈÉÊËÌÍÎÏÑÒÓÔÕÖÙÚÛÜÝ"
	lowerLetters = "abcdefghijklmnopqrstuvwxyzàáâãäçèéêëìíîïñòóôõöùúûüý"
)

var foldCase = func() *strings.Replacer {
	upper, lower := []rune(upperLetters), []rune(lowerLetters)
	pairs := make([]string, 0, len(upper)*2)
	for i := range upper {
		pairs = append(pairs, string(upper[i]), string(lower[i]))
	}
	return strings.NewReplacer(pairs...)
}()

// textXPath matches the innermost elements whose whitespace-normalized text
// content, children included, contains text ignoring case. A quoted value
// must equal the normalized text content exactly, case included.
func textXPath(text string) string {
	var match string
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		exact := strings.Join(strings.Fields(text[1:len(text)-1]), " ")
		match = fmt.Sprintf(`normalize-space(string(.))=%s`, xpathLiteral(exact))
	} else {
		needle := foldCase.Replace(strings.Join(strings.Fields(text), " "))
		match = fmt.Sprintf(`contains(translate(normalize-space(string(.)), '%s', '%s'), %s)`,
			upperLetters, lowerLetters, xpathLiteral(needle))
	}
	return fmt.Sprintf(`%s[%s][not(descendant::*[not(self::script or self::style)][%s])]`, textCandidates, match, match)
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
