package processor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/phrasebook"
	"golang.org/x/net/html"
)

// PhraseSelector matches the spans an editor renders around marked phrases.
const PhraseSelector = "span.translate-phrase"

// TranslationAttr holds the translation written back by Annotate.
const TranslationAttr = "data-translation"

// HTMLProcessor extracts marked phrases from rendered HTML.
type HTMLProcessor struct {
	selector    string
	ignoredTags map[string]bool
}

// NewHTMLProcessor creates an HTML processor for span.translate-phrase.
func NewHTMLProcessor() *HTMLProcessor {
	return NewHTMLProcessorWithSelector(PhraseSelector)
}

// NewHTMLProcessorWithSelector creates an HTML processor for a custom selector.
func NewHTMLProcessorWithSelector(selector string) *HTMLProcessor {
	return &HTMLProcessor{
		selector: selector,
		ignoredTags: map[string]bool{
			"script":   true,
			"style":    true,
			"textarea": true,
			"code":     true,
			"pre":      true,
		},
	}
}

// Extract returns the marked phrases in document order.
func (p *HTMLProcessor) Extract(content string) ([]MarkedPhrase, error) {
	doc, err := p.parse(content)
	if err != nil {
		return nil, err
	}

	set := newPhraseSet()
	p.marked(doc).Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		metadata := map[string]string{}
		if node.Parent != nil && node.Parent.Type == html.ElementNode {
			metadata["parent_tag"] = node.Parent.Data
		}
		set.add(strings.TrimSpace(s.Text()), buildContext(node), metadata)
	})

	return set.phrases, nil
}

// Annotate writes each known translation onto its span as data-translation
// and returns the re-rendered document body.
func (p *HTMLProcessor) Annotate(content string, translations map[string]string) (string, error) {
	doc, err := p.parse(content)
	if err != nil {
		return "", err
	}

	p.marked(doc).Each(func(_ int, s *goquery.Selection) {
		if translated, ok := translations[strings.TrimSpace(s.Text())]; ok {
			s.SetAttr(TranslationAttr, translated)
		}
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", &phrasebook.ProcessorError{
			Message:     "failed to serialize HTML",
			Cause:       err,
			ContentType: p.ContentType(),
		}
	}
	return out, nil
}

// ContentType returns "html".
func (p *HTMLProcessor) ContentType() string {
	return phrasebook.ContentTypeHTML
}

func (p *HTMLProcessor) parse(content string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, &phrasebook.ProcessorError{
			Message:     "failed to parse HTML",
			Cause:       err,
			ContentType: p.ContentType(),
		}
	}
	return doc, nil
}

// marked selects phrase spans that are not inside ignored or opted-out elements.
func (p *HTMLProcessor) marked(doc *goquery.Document) *goquery.Selection {
	return doc.Find(p.selector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		for n := s.Get(0).Parent; n != nil; n = n.Parent {
			if n.Type != html.ElementNode {
				continue
			}
			if p.ignoredTags[strings.ToLower(n.Data)] {
				return false
			}
			for _, attr := range n.Attr {
				if attr.Key == "data-no-translate" {
					return false
				}
			}
		}
		return true
	})
}

// buildContext describes where a span sits: its parent element and the
// surrounding text of that element.
func buildContext(n *html.Node) string {
	parent := n.Parent
	if parent == nil || parent.Type != html.ElementNode {
		return ""
	}

	var parts []string

	var classAttr, idAttr string
	for _, attr := range parent.Attr {
		switch attr.Key {
		case "class":
			classAttr = attr.Val
		case "id":
			idAttr = attr.Val
		}
	}
	switch {
	case classAttr != "":
		parts = append(parts, fmt.Sprintf("in <%s class=%q>", parent.Data, classAttr))
	case idAttr != "":
		parts = append(parts, fmt.Sprintf("in <%s id=%q>", parent.Data, idAttr))
	default:
		parts = append(parts, fmt.Sprintf("in <%s>", parent.Data))
	}

	if text := strings.Join(strings.Fields(goquery.NewDocumentFromNode(parent).Text()), " "); text != "" {
		if runes := []rune(text); len(runes) > 200 {
			text = string(runes[:200])
		}
		parts = append(parts, "text: "+text)
	}

	return strings.Join(parts, " | ")
}

// Verify HTMLProcessor implements ContentProcessor
var _ ContentProcessor = (*HTMLProcessor)(nil)
