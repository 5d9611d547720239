package calendar

import (
	"strings"
	"time"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/es"
)

const (
	LocaleEnglish = "en"
	LocaleSpanish = "es"
)

var translators = map[string]locales.Translator{
	LocaleEnglish: en.New(),
	LocaleSpanish: es.New(),
}

// Format renders d in the long form used for display: "August 15, 2024" in
// English and "15 de agosto de 2024" in Spanish. Unknown locales use English.
func Format(d Date, locale string) string {
	if d.IsZero() {
		return ""
	}
	return translators[normalizeLocale(locale)].FmtDateLong(d.Midnight(time.UTC))
}

func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		locale = locale[:i]
	}
	if _, ok := translators[locale]; ok {
		return locale
	}
	return LocaleEnglish
}
