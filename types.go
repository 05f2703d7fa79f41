package phrasebook

// Candidate is one translation returned by a provider.
type Candidate struct {
	DetectedSourceLanguage string `json:"detected_source_language"`
	Text                   string `json:"text"`
}

// TranslationResponse is the response body of the translation endpoint.
// Only the first candidate is ever used.
type TranslationResponse struct {
	Translations []Candidate `json:"translations"`
}

// TranslateRequest contains the parameters for a single provider call.
type TranslateRequest struct {
	Text       string // Phrase to translate, verbatim
	SourceLang string // Provider source language code (e.g., "EN")
	TargetLang string // Provider target language code (e.g., "JA")
}

// MarkedPhrase is a phrase found in a document by a ContentProcessor.
type MarkedPhrase struct {
	Text     string            // Phrase text (trimmed)
	Hash     string            // SHA-256 hash of Text
	Context  string            // Surrounding text, if any
	Metadata map[string]string // Processor-specific info (block key, parent tag, ...)
}

// DocumentResult is the result of translating every marked phrase of a document.
type DocumentResult struct {
	Translations    map[string]string // Phrase to translation
	Failures        map[string]error  // Phrase to the error that prevented its translation
	TranslatedCount int               // Phrases translated by the provider
	CachedCount     int               // Phrases served from cache
	SkippedCount    int               // Phrases already in the target language, returned unchanged
	TotalPhrases    int               // Distinct marked phrases found
}

// Content types understood by the bundled processors.
const (
	ContentTypeDraft = "draft"
	ContentTypeHTML  = "html"
)
