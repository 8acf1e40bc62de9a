package importer

import (
	check "gopkg.in/check.v1"
)

var _ = check.Suite(new(contentExtractorTestSuite))

type contentExtractorTestSuite struct{}

// fakeDocument answers selector queries from fixed maps.
type fakeDocument struct {
	text  map[string]string
	attrs map[string]string
}

func (d fakeDocument) FirstText(selector string) (string, bool) {
	v, ok := d.text[selector]
	return v, ok
}

func (d fakeDocument) FirstAttr(selector, attr string) (string, bool) {
	v, ok := d.attrs[selector+"@"+attr]
	return v, ok
}

func (s *contentExtractorTestSuite) TestExtractFromFakeDocument(c *check.C) {
	doc := fakeDocument{
		text:  map[string]string{"title": "Hi"},
		attrs: map[string]string{`[name="description"]@content`: "desc"},
	}

	content := Extract(doc)
	c.Assert(content, check.DeepEquals, Content{
		Title: "Hi", Description: "desc", HasTitle: true, HasDescription: true,
	})
}

func (s *contentExtractorTestSuite) TestExtractFromEmptyDocument(c *check.C) {
	content := Extract(fakeDocument{})

	c.Assert(content.HasTitle, check.Equals, false)
	c.Assert(content.HasDescription, check.Equals, false)
}

func (s *contentExtractorTestSuite) TestExtractWithGoquery(c *check.C) {
	specs := []struct {
		descr string
		html  string
		exp   Content
	}{
		{
			descr: "title and description",
			html:  `<html><head><title>Hi</title><meta name="description" content="desc"></head></html>`,
			exp:   Content{Title: "Hi", Description: "desc", HasTitle: true, HasDescription: true},
		},
		{
			descr: "first match wins",
			html: `<html><head><title>One</title><title>Two</title>
				<meta name="description" content="first"><meta name="description" content="second">
				</head></html>`,
			exp: Content{Title: "One", Description: "first", HasTitle: true, HasDescription: true},
		},
		{
			descr: "values are not trimmed or sanitized",
			html:  `<title>  <b>bold</b> &amp; spaced  </title><meta name="description" content=" <i>x</i> ">`,
			exp:   Content{Title: "  <b>bold</b> & spaced  ", Description: " <i>x</i> ", HasTitle: true, HasDescription: true},
		},
		{
			descr: "description on a non-meta element",
			html:  `<div name="description" content="from div"></div>`,
			exp:   Content{Description: "from div", HasDescription: true},
		},
		{
			descr: "description element without content attribute",
			html:  `<title>T</title><meta name="description">`,
			exp:   Content{Title: "T", HasTitle: true},
		},
		{
			descr: "no title and no description",
			html:  `<html><body><p>nothing here</p></body></html>`,
			exp:   Content{},
		},
		{
			descr: "truncated markup",
			html:  `<html><head><title>Cut off`,
			exp:   Content{Title: "Cut off", HasTitle: true},
		},
		{
			descr: "not html at all",
			html:  `{"products": ["a", "b"]}`,
			exp:   Content{},
		},
	}

	parser := NewHTMLParser()
	for i, spec := range specs {
		c.Logf("[spec %d] %s", i, spec.descr)

		content := Extract(parser.Parse([]byte(spec.html)))
		c.Assert(content, check.DeepEquals, spec.exp)
	}
}

func (s *contentExtractorTestSuite) TestParseEmptyBody(c *check.C) {
	content := Extract(NewHTMLParser().Parse(nil))
	c.Assert(content, check.DeepEquals, Content{})
}
