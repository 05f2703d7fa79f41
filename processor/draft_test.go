package processor

import (
	"errors"
	"testing"

	"github.com/ZaguanLabs/phrasebook"
)

const draftDoc = `{
  "blocks": [
    {
      "key": "a1",
      "text": "Say Hello to the World",
      "type": "unstyled",
      "entityRanges": [
        {"offset": 4, "length": 5, "key": 0},
        {"offset": 17, "length": 5, "key": 1}
      ]
    },
    {
      "key": "b2",
      "text": "😀 Hello again, Good morning",
      "type": "unstyled",
      "entityRanges": [
        {"offset": 3, "length": 5, "key": 0},
        {"offset": 16, "length": 12, "key": "2"}
      ]
    }
  ],
  "entityMap": {
    "0": {"type": "TRANSLATE_BLOCK_ENTITY", "mutability": "MUTABLE", "data": {}},
    "1": {"type": "LINK", "mutability": "MUTABLE", "data": {"url": "https://example.com"}},
    "2": {"type": "TRANSLATE_BLOCK_ENTITY", "mutability": "MUTABLE", "data": {}}
  }
}`

func TestDraftProcessor_Extract(t *testing.T) {
	p := NewDraftProcessor()

	phrases, err := p.Extract(draftDoc)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	// LINK entities are ignored and the repeated "Hello" is reported once.
	if len(phrases) != 2 {
		t.Fatalf("Expected 2 phrases, got %d: %+v", len(phrases), phrases)
	}
	if phrases[0].Text != "Hello" {
		t.Errorf("Expected 'Hello', got %q", phrases[0].Text)
	}
	if phrases[0].Context != "Say Hello to the World" {
		t.Errorf("Unexpected context %q", phrases[0].Context)
	}
	if phrases[0].Metadata["block_key"] != "a1" {
		t.Errorf("Expected block_key a1, got %q", phrases[0].Metadata["block_key"])
	}
	if phrases[0].Hash != phrasebook.HashPhrase("Hello") {
		t.Error("Hash should match HashPhrase")
	}
}

func TestDraftProcessor_Extract_UTF16Offsets(t *testing.T) {
	p := NewDraftProcessor()

	phrases, err := p.Extract(draftDoc)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	// The emoji occupies two UTF-16 code units, so offsets past it must not drift.
	if phrases[1].Text != "Good morning" {
		t.Errorf("Expected 'Good morning', got %q", phrases[1].Text)
	}
	if phrases[1].Metadata["block_key"] != "b2" {
		t.Errorf("Expected block_key b2, got %q", phrases[1].Metadata["block_key"])
	}
}

func TestDraftProcessor_Extract_NoEntities(t *testing.T) {
	p := NewDraftProcessor()

	phrases, err := p.Extract(`{"blocks":[{"key":"x","text":"plain","entityRanges":[]}],"entityMap":{}}`)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(phrases) != 0 {
		t.Errorf("Expected no phrases, got %d", len(phrases))
	}
}

func TestDraftProcessor_Extract_Errors(t *testing.T) {
	p := NewDraftProcessor()

	cases := map[string]string{
		"invalid json": `{"blocks":`,
		"out of range": `{"blocks":[{"key":"x","text":"Hi","entityRanges":[{"offset":1,"length":9,"key":0}]}],
			"entityMap":{"0":{"type":"TRANSLATE_BLOCK_ENTITY"}}}`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := p.Extract(doc)

			var procErr *phrasebook.ProcessorError
			if !errors.As(err, &procErr) {
				t.Fatalf("Expected ProcessorError, got %v", err)
			}
			if procErr.ContentType != "draft" {
				t.Errorf("Expected content type draft, got %q", procErr.ContentType)
			}
		})
	}
}

func TestNew(t *testing.T) {
	if _, ok := New("draft").(*DraftProcessor); !ok {
		t.Error("New(draft) should return a DraftProcessor")
	}
	if _, ok := New("html").(*HTMLProcessor); !ok {
		t.Error("New(html) should return an HTMLProcessor")
	}
	if New("pdf") != nil {
		t.Error("New(pdf) should return nil")
	}
}
