package i18n

import (
	"embed"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

//go:embed active.*.toml
var localeFS embed.FS

// DefaultLanguage is used when no UI language is configured
const DefaultLanguage = "en"

// Language is a supported UI language
type Language struct {
	Code string
	Name string
	Tag  language.Tag
	file string
}

// Languages lists the supported UI languages in display order
var Languages = []Language{
	{Code: "en", Name: "English", Tag: language.English, file: "active.en.toml"},
	{Code: "es", Name: "Español", Tag: language.Spanish, file: "active.es.toml"},
	{Code: "fr", Name: "Français", Tag: language.French, file: "active.fr.toml"},
	{Code: "it", Name: "Italiano", Tag: language.Italian, file: "active.it.toml"},
	{Code: "pt_BR", Name: "Português (Brasil)", Tag: language.BrazilianPortuguese, file: "active.pt-BR.toml"},
}

var (
	bundleOnce sync.Once
	bundle     *i18n.Bundle
	matcher    language.Matcher
)

func loadBundle() {
	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	tags := make([]language.Tag, len(Languages))
	for i, lang := range Languages {
		tags[i] = lang.Tag
		if _, err := bundle.LoadMessageFileFS(localeFS, lang.file); err != nil {
			log.Error().Err(err).Str("file", lang.file).Msg("Failed to load message catalog")
		}
	}
	matcher = language.NewMatcher(tags)
}

// Normalize maps a language tag such as "pt-BR", "pt_br" or "fr-CA" to the
// code of a supported language. It returns "" when nothing matches.
func Normalize(code string) string {
	code = strings.TrimSpace(strings.ReplaceAll(code, "_", "-"))
	if code == "" {
		return ""
	}

	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}

	bundleOnce.Do(loadBundle)
	_, idx, confidence := matcher.Match(tag)
	if confidence == language.No {
		return ""
	}
	return Languages[idx].Code
}

// Lookup returns the supported language with the given code
func Lookup(code string) (Language, bool) {
	code = Normalize(code)
	for _, lang := range Languages {
		if lang.Code == code {
			return lang, true
		}
	}
	return Language{}, false
}

// Localizer renders messages in one language, falling back to English
type Localizer struct {
	lang      Language
	localizer *i18n.Localizer
}

// New creates a localizer for code. Unsupported codes get English.
func New(code string) *Localizer {
	bundleOnce.Do(loadBundle)

	lang, ok := Lookup(code)
	if !ok {
		lang = Languages[0]
	}

	return &Localizer{
		lang:      lang,
		localizer: i18n.NewLocalizer(bundle, lang.Tag.String(), DefaultLanguage),
	}
}

// Code returns the language code of the localizer
func (l *Localizer) Code() string {
	return l.lang.Code
}

// T renders the message key with data. Unknown keys render as the key itself.
func (l *Localizer) T(key string, data map[string]any) string {
	return l.localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
}

// N renders a message that has plural forms; count is also passed as .Count
func (l *Localizer) N(key string, count int, data map[string]any) string {
	if data == nil {
		data = make(map[string]any)
	}
	data["Count"] = count

	return l.localize(&i18n.LocalizeConfig{
		MessageID:    key,
		PluralCount:  count,
		TemplateData: data,
	})
}

func (l *Localizer) localize(cfg *i18n.LocalizeConfig) string {
	if cfg.MessageID == "" {
		return ""
	}

	msg, err := l.localizer.Localize(cfg)
	if err != nil {
		log.Debug().Err(err).Str("key", cfg.MessageID).Str("language", l.lang.Code).Msg("Message not localized")
		return cfg.MessageID
	}
	return msg
}

// IDFileName returns the default name of a cleaned lint file
func (l *Localizer) IDFileName() string {
	return l.T("IDFileName", nil)
}
