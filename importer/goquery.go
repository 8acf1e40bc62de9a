package importer

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

var _ Parser = (*htmlParser)(nil)

type htmlParser struct{}

// NewHTMLParser returns a Parser backed by goquery and the html5 parsing
// algorithm, which accepts truncated and non-HTML input.
func NewHTMLParser() Parser {
	return htmlParser{}
}

func (htmlParser) Parse(body []byte) Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return emptyDocument{}
	}

	return goqueryDocument{doc: doc}
}

type goqueryDocument struct {
	doc *goquery.Document
}

func (d goqueryDocument) FirstText(selector string) (string, bool) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}

	return sel.Text(), true
}

func (d goqueryDocument) FirstAttr(selector, attr string) (string, bool) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}

	return sel.Attr(attr)
}

type emptyDocument struct{}

func (emptyDocument) FirstText(string) (string, bool)         { return "", false }
func (emptyDocument) FirstAttr(string, string) (string, bool) { return "", false }
