package importer

// Document is a parsed HTML document tree.
type Document interface {
	// FirstText returns the text content of the first element that matches
	// selector.
	FirstText(selector string) (string, bool)

	// FirstAttr returns the value of attr on the first element that matches
	// selector.
	FirstAttr(selector, attr string) (string, bool)
}

// Parser turns raw response bodies into document trees. Implementations
// must be lenient and return a usable, possibly empty, document for any
// input.
type Parser interface {
	Parse(body []byte) Document
}

// Content holds the values extracted from a page. A false Has* flag means
// the page did not provide that value.
type Content struct {
	Title          string
	Description    string
	HasTitle       bool
	HasDescription bool
}

const (
	titleSelector       = "title"
	descriptionSelector = `[name="description"]`
	descriptionAttr     = "content"
)

// Extract returns the text of the first <title> element and the content
// attribute of the first element named "description". Extracted values are
// passed through unmodified.
func Extract(doc Document) Content {
	var c Content

	c.Title, c.HasTitle = doc.FirstText(titleSelector)
	c.Description, c.HasDescription = doc.FirstAttr(descriptionSelector, descriptionAttr)

	return c
}
