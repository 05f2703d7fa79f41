package processor

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/ZaguanLabs/phrasebook"
)

// TranslateEntityType is the Draft.js entity type that marks a phrase.
const TranslateEntityType = "TRANSLATE_BLOCK_ENTITY"

// DraftProcessor extracts marked phrases from Draft.js raw content
// (the JSON produced by convertToRaw).
type DraftProcessor struct {
	entityType string
}

// NewDraftProcessor creates a processor for TRANSLATE_BLOCK_ENTITY ranges.
func NewDraftProcessor() *DraftProcessor {
	return &DraftProcessor{entityType: TranslateEntityType}
}

type rawDraft struct {
	Blocks    []rawBlock           `json:"blocks"`
	EntityMap map[string]rawEntity `json:"entityMap"`
}

type rawBlock struct {
	Key          string           `json:"key"`
	Text         string           `json:"text"`
	EntityRanges []rawEntityRange `json:"entityRanges"`
}

// rawEntityRange offsets count UTF-16 code units, as in JavaScript strings.
type rawEntityRange struct {
	Offset int             `json:"offset"`
	Length int             `json:"length"`
	Key    json.RawMessage `json:"key"`
}

type rawEntity struct {
	Type string `json:"type"`
}

// Extract returns the marked phrases in block order.
func (p *DraftProcessor) Extract(content string) ([]MarkedPhrase, error) {
	var raw rawDraft
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, &phrasebook.ProcessorError{
			Message:     "failed to parse draft content",
			Cause:       err,
			ContentType: p.ContentType(),
		}
	}

	set := newPhraseSet()
	for _, block := range raw.Blocks {
		units := utf16.Encode([]rune(block.Text))

		for _, r := range block.EntityRanges {
			entity, ok := raw.EntityMap[entityKey(r.Key)]
			if !ok || entity.Type != p.entityType {
				continue
			}

			start, end := r.Offset, r.Offset+r.Length
			if start < 0 || r.Length <= 0 || end > len(units) {
				return nil, &phrasebook.ProcessorError{
					Message:     "entity range out of bounds in block " + block.Key,
					ContentType: p.ContentType(),
				}
			}

			text := strings.TrimSpace(string(utf16.Decode(units[start:end])))
			set.add(text, block.Text, map[string]string{"block_key": block.Key})
		}
	}

	return set.phrases, nil
}

// ContentType returns "draft".
func (p *DraftProcessor) ContentType() string {
	return phrasebook.ContentTypeDraft
}

// entityKey accepts both numeric and string entity keys.
func entityKey(key json.RawMessage) string {
	var s string
	if err := json.Unmarshal(key, &s); err == nil {
		return s
	}
	var n int
	if err := json.Unmarshal(key, &n); err == nil {
		return strconv.Itoa(n)
	}
	return string(key)
}

// Verify DraftProcessor implements ContentProcessor
var _ ContentProcessor = (*DraftProcessor)(nil)
