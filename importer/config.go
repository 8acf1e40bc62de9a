package importer

import (
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/mycok/halreslib/resource"
)

// Config defines the configuration for an Importer.
type Config struct {
	// An API for performing HTTP requests. If not specified,
	// http.DefaultClient will be used instead.
	URLGetter URLGetter

	// The store that receives each finished batch.
	Store MiniStore

	// An API for parsing response bodies. If not specified, a goquery
	// backed parser will be used instead.
	Parser Parser

	// A clock instance used for fallback timestamps and run timings. If not
	// specified, the default wall-clock will be used instead.
	Clock clock.Clock

	// The maximum number of concurrent fetches. Defaults to
	// DefaultFetchWorkers when zero.
	NumOfFetchWorkers int

	// The provenance tag written to crea_user and modi_user. Defaults to
	// resource.DefaultCreator.
	CreatorRole string

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.URLGetter == nil {
		config.URLGetter = http.DefaultClient
	}

	if config.Store == nil {
		err = multierror.Append(err, fmt.Errorf("store not provided"))
	}

	if config.Parser == nil {
		config.Parser = NewHTMLParser()
	}

	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	if config.NumOfFetchWorkers == 0 {
		config.NumOfFetchWorkers = DefaultFetchWorkers
	}

	if config.NumOfFetchWorkers < 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for fetch workers, must be > 0"))
	}

	if config.CreatorRole == "" {
		config.CreatorRole = resource.DefaultCreator
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
