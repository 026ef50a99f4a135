// Package i18n defines the message rendering port used by the audit
// pipeline's log destination, plus a small in-memory catalog implementation.
package i18n

import "strings"

// Translator renders a localized, parameterized message for a key.
type Translator interface {
	Render(language, key string, params map[string]string) string
}

// Catalog is a map-backed Translator. Messages are keyed by language then by
// message key; `{name}` placeholders are substituted from params. Missing
// languages fall back to the default language; missing keys render the key
// itself so an incomplete catalog never hides an audit line.
type Catalog struct {
	defaultLanguage string
	messages        map[string]map[string]string
}

// NewCatalog creates a catalog with the given default language.
func NewCatalog(defaultLanguage string, messages map[string]map[string]string) *Catalog {
	if messages == nil {
		messages = make(map[string]map[string]string)
	}
	return &Catalog{
		defaultLanguage: defaultLanguage,
		messages:        messages,
	}
}

// Render implements Translator.
func (c *Catalog) Render(language, key string, params map[string]string) string {
	tmpl, ok := c.lookup(language, key)
	if !ok {
		tmpl, ok = c.lookup(c.defaultLanguage, key)
	}
	if !ok {
		tmpl = key
	}

	for name, value := range params {
		tmpl = strings.ReplaceAll(tmpl, "{"+name+"}", value)
	}
	return tmpl
}

func (c *Catalog) lookup(language, key string) (string, bool) {
	msgs, ok := c.messages[language]
	if !ok {
		return "", false
	}
	tmpl, ok := msgs[key]
	return tmpl, ok
}
