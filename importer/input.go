package importer

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/mycok/halreslib/resource"
)

var (
	// ErrNotText is reported for lines that are not valid UTF-8.
	ErrNotText = errors.New("line is not valid UTF-8 text")

	// ErrNoTimestamp is reported for lines without a timestamp field.
	ErrNoTimestamp = errors.New("no timestamp")

	// ErrNoURL is reported for lines without a URL field.
	ErrNoURL = errors.New("no URL")

	// ErrIllFormedURL is reported for URLs that are not absolute.
	ErrIllFormedURL = errors.New("ill-formed URL")

	errBlankLine = errors.New("blank line")
)

// Accepted timestamp layouts, tried in order.
var timestampLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02.01.2006",
}

// Entry is one successfully parsed input line.
type Entry struct {
	URL       *url.URL
	Timestamp string
}

// ParseLines turns TIMESTAMP<TAB>URL[<TAB>...] lines into entries, keeping
// input order. Malformed lines are logged and skipped; blank lines are
// skipped silently. A timestamp that cannot be parsed is replaced with the
// current time of clk.
func ParseLines(lines []string, clk clock.Clock, logger *logrus.Entry) []Entry {
	entries := make([]Entry, 0, len(lines))

	for i, line := range lines {
		entry, err := parseLine(line, clk)
		if err == errBlankLine {
			continue
		}

		if err != nil {
			logger.WithFields(logrus.Fields{
				"line":  i + 1,
				"input": line,
				"err":   err,
			}).Warn("skipping input line")

			continue
		}

		entries = append(entries, entry)
	}

	return entries
}

func parseLine(line string, clk clock.Clock) (Entry, error) {
	if !utf8.ValidString(line) {
		return Entry{}, ErrNotText
	}

	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return Entry{}, errBlankLine
	}

	fields := strings.Split(line, "\t")

	rawTimestamp := strings.TrimSpace(fields[0])
	if rawTimestamp == "" {
		return Entry{}, ErrNoTimestamp
	}

	if len(fields) < 2 || strings.TrimSpace(fields[1]) == "" {
		return Entry{}, ErrNoURL
	}

	u, err := parseURL(strings.TrimSpace(fields[1]))
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		URL:       u,
		Timestamp: parseTimestamp(rawTimestamp, clk),
	}, nil
}

func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllFormedURL, err)
	}

	if !u.IsAbs() {
		return nil, fmt.Errorf("%w: missing scheme", ErrIllFormedURL)
	}

	if (u.Scheme == "http" || u.Scheme == "https") && u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrIllFormedURL)
	}

	return resource.NormalizeURL(u), nil
}

// parseTimestamp returns raw as an RFC 3339 timestamp, falling back to the
// current time when raw matches none of the accepted layouts.
func parseTimestamp(raw string, clk clock.Clock) string {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(time.RFC3339)
		}
	}

	return clk.Now().Format(time.RFC3339)
}
