package phrasebook

import (
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// LanguageNames maps provider language codes to human-readable names for AI prompts.
var LanguageNames = map[string]string{
	"AR":    "Arabic",
	"BG":    "Bulgarian",
	"CS":    "Czech",
	"DA":    "Danish",
	"DE":    "German",
	"EL":    "Greek",
	"EN":    "English",
	"EN-GB": "English (United Kingdom)",
	"EN-US": "English (United States)",
	"ES":    "Spanish",
	"ET":    "Estonian",
	"FI":    "Finnish",
	"FR":    "French",
	"HU":    "Hungarian",
	"ID":    "Indonesian",
	"IT":    "Italian",
	"JA":    "Japanese",
	"KO":    "Korean",
	"LT":    "Lithuanian",
	"LV":    "Latvian",
	"NB":    "Norwegian Bokmål",
	"NL":    "Dutch",
	"PL":    "Polish",
	"PT":    "Portuguese",
	"PT-BR": "Portuguese (Brazil)",
	"PT-PT": "Portuguese (Portugal)",
	"RO":    "Romanian",
	"RU":    "Russian",
	"SK":    "Slovak",
	"SL":    "Slovenian",
	"SV":    "Swedish",
	"TR":    "Turkish",
	"UK":    "Ukrainian",
	"ZH":    "Chinese",
}

// defaultTargetVariants are used when a target language needs a regional variant.
var defaultTargetVariants = map[string]string{
	"EN": "EN-US",
	"PT": "PT-BR",
}

// GetLanguageName returns the human-readable name for a provider language code.
// Falls back to the code itself if not found.
func GetLanguageName(code string) string {
	if name, ok := LanguageNames[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}

// NormalizeLocale converts a locale code to BCP 47 separators (e.g., "ja_JP" → "ja-JP").
func NormalizeLocale(code string) string {
	return strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
}

// SourceCode converts a language code ("en", "en_US", "EN") to a provider source code ("EN").
// Source codes never carry a regional variant.
func SourceCode(code string) (string, error) {
	tag, err := parseTag(code)
	if err != nil {
		return "", err
	}
	base, _ := tag.Base()
	return strings.ToUpper(base.String()), nil
}

// TargetCode converts a language code to a provider target code.
// English and Portuguese always carry a regional variant ("EN-US", "PT-BR").
func TargetCode(code string) (string, error) {
	tag, err := parseTag(code)
	if err != nil {
		return "", err
	}

	base, _ := tag.Base()
	b := strings.ToUpper(base.String())

	if variant, ok := defaultTargetVariants[b]; ok {
		if region, conf := tag.Region(); conf == language.Exact {
			withRegion := b + "-" + strings.ToUpper(region.String())
			if _, known := LanguageNames[withRegion]; known {
				return withRegion, nil
			}
		}
		return variant, nil
	}
	return b, nil
}

// BaseLang extracts the upper-case base language ("JA" from "ja_JP" or "EN-US").
func BaseLang(code string) string {
	code = strings.ToUpper(NormalizeLocale(code))
	if i := strings.Index(code, "-"); i >= 0 {
		return code[:i]
	}
	return code
}

// DetectLanguage guesses the language of text. It returns the upper-case
// ISO 639-1 code and the detector's confidence in [0, 1].
func DetectLanguage(text string) (string, float64) {
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" {
		return "", 0
	}
	return strings.ToUpper(code), info.Confidence
}

func parseTag(code string) (language.Tag, error) {
	tag, err := language.Parse(NormalizeLocale(code))
	if err != nil {
		return language.Und, fmt.Errorf("invalid language code %q: %w", code, err)
	}

	base, conf := tag.Base()
	if conf == language.No {
		return language.Und, fmt.Errorf("invalid language code %q", code)
	}
	if _, ok := LanguageNames[strings.ToUpper(base.String())]; !ok {
		return language.Und, fmt.Errorf("unsupported language %q", code)
	}
	return tag, nil
}
