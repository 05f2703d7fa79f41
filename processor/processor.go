// Package processor extracts phrases marked for translation from documents.
package processor

import "github.com/ZaguanLabs/phrasebook"

// ContentProcessor is an alias to the main package interface.
type ContentProcessor = phrasebook.ContentProcessor

// MarkedPhrase is an alias to the main package type.
type MarkedPhrase = phrasebook.MarkedPhrase

// phraseSet collects marked phrases in document order, dropping repeats.
type phraseSet struct {
	phrases []MarkedPhrase
	seen    map[string]bool
}

func newPhraseSet() *phraseSet {
	return &phraseSet{seen: make(map[string]bool)}
}

// add records text unless it is blank or already present.
func (s *phraseSet) add(text, context string, metadata map[string]string) {
	hash := phrasebook.HashPhrase(text)
	if hash == phrasebook.HashPhrase("") || s.seen[hash] {
		return
	}
	s.seen[hash] = true
	s.phrases = append(s.phrases, MarkedPhrase{
		Text:     text,
		Hash:     hash,
		Context:  context,
		Metadata: metadata,
	})
}

// New returns the bundled processor for contentType, or nil.
func New(contentType string) ContentProcessor {
	switch contentType {
	case phrasebook.ContentTypeDraft:
		return NewDraftProcessor()
	case phrasebook.ContentTypeHTML:
		return NewHTMLProcessor()
	default:
		return nil
	}
}
