// Package i18n provides message translation for the bot gateway. The
// displayed language is chosen per message from the system settings, so an
// admin language change takes effect on the next send.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed locales/*.json
var localesFS embed.FS

// DefaultLanguage is the fallback for unknown or missing language codes.
const DefaultLanguage = "en"

// Localizer handles translation for different languages.
type Localizer struct {
	translations map[string]map[string]string
	mu           sync.RWMutex
}

// NewLocalizer creates a new Localizer instance and loads all translations.
func NewLocalizer() (*Localizer, error) {
	locale := &Localizer{
		translations: make(map[string]map[string]string),
	}

	languages := []string{"en", "ar"}
	for _, lang := range languages {
		if err := locale.loadLanguage(lang); err != nil {
			return nil, fmt.Errorf("failed to load language %s: %w", lang, err)
		}
	}

	return locale, nil
}

// loadLanguage loads translations for a specific language from embedded JSON files.
func (l *Localizer) loadLanguage(lang string) error {
	filename := fmt.Sprintf("locales/%s.json", lang)
	data, err := localesFS.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read locale file %s: %w", filename, err)
	}

	var translations map[string]string
	if err = json.Unmarshal(data, &translations); err != nil {
		return fmt.Errorf("failed to unmarshal locale file %s: %w", filename, err)
	}

	l.mu.Lock()
	l.translations[lang] = translations
	l.mu.Unlock()

	return nil
}

// Get returns the translation for the given key in the specified language.
// Unknown languages fall back to English; an unknown key is returned as-is.
func (l *Localizer) Get(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if langTranslations, ok := l.translations[lang]; ok {
		if translation, exists := langTranslations[key]; exists {
			return translation
		}
	}

	if lang != DefaultLanguage {
		if enTranslations, ok := l.translations[DefaultLanguage]; ok {
			if translation, exists := enTranslations[key]; exists {
				return translation
			}
		}
	}

	return key
}

// GetWithData returns the translation for the given key with placeholder
// replacement. Placeholders use the {name} form.
func (l *Localizer) GetWithData(lang, key string, data map[string]interface{}) string {
	translation := l.Get(lang, key)

	for k, v := range data {
		placeholder := fmt.Sprintf("{%s}", k)
		translation = strings.ReplaceAll(translation, placeholder, fmt.Sprintf("%v", v))
	}

	return translation
}

// NormalizeLanguageCode normalizes a stored or Telegram-provided language code
// to one of the supported languages.
func NormalizeLanguageCode(code string) string {
	const langCodeShortLength = 2
	if len(code) < langCodeShortLength {
		return DefaultLanguage
	}

	switch code[:langCodeShortLength] {
	case "ar":
		return "ar"
	case "en":
		return "en"
	default:
		return DefaultLanguage
	}
}
