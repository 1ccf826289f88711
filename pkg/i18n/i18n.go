// Package i18n provides the localized strings of the simulator user interface.
package i18n

import (
	"fmt"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"golang.org/x/text/number"
)

var matcher = language.NewMatcher(Supported)

// Translator looks up interface strings in the current language. It is safe
// for concurrent use; SetLanguage takes effect for every later lookup.
type Translator struct {
	mu      sync.RWMutex
	tag     language.Tag
	printer *message.Printer
	cat     catalog.Catalog
}

// New creates a translator for the best supported match of locale.
func New(locale string) (*Translator, error) {
	cat, err := buildCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to build message catalog: %w", err)
	}
	t := &Translator{cat: cat}
	t.SetLanguage(locale)
	return t, nil
}

// Match returns the supported language closest to locale. Unknown or
// malformed locales match English.
func Match(locale string) language.Tag {
	requested, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	_, index, confidence := matcher.Match(requested)
	if confidence == language.No {
		return language.English
	}
	return Supported[index]
}

// SetLanguage switches to the closest supported language and returns it.
func (t *Translator) SetLanguage(locale string) language.Tag {
	tag := Match(locale)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tag = tag
	t.printer = message.NewPrinter(tag, message.Catalog(t.cat))
	return tag
}

// Next cycles to the next supported language.
func (t *Translator) Next() language.Tag {
	current := t.Language()
	for i, tag := range Supported {
		if tag == current {
			return t.SetLanguage(Supported[(i+1)%len(Supported)].String())
		}
	}
	return t.SetLanguage(language.English.String())
}

// Language returns the current language.
func (t *Translator) Language() language.Tag {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tag
}

// T returns the translation of key.
func (t *Translator) T(key Key) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.printer.Sprintf(string(key))
}

// Decimal formats v with at most the given number of fraction digits, using
// the separators of the current language.
func (t *Translator) Decimal(v float64, maxFraction int) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(maxFraction)))
}

// Integer formats n with the grouping of the current language.
func (t *Translator) Integer(n int64) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.printer.Sprintf("%d", n)
}

// Label renders a "label: value" status line.
func (t *Translator) Label(key Key, value string) string {
	return t.T(key) + ": " + value
}
