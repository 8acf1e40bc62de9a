package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mycok/halreslib/importer"
)

const (
	appName = "halreslib"

	fetchWorkersEnv = "HALRES_FETCH_WORKERS"

	// Input lines longer than this are skipped without being buffered.
	maxLineSize = 1024 * 1024
)

var (
	storeURI string
	logLevel string
)

func main() {
	// A missing .env file is not an error; the environment and the flag
	// defaults still apply.
	_ = godotenv.Load()

	host, _ := os.Hostname()
	rootLogger := logrus.New()
	logger := rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"host": host,
	})

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

		select {
		case s := <-signalChan:
			logger.WithField("signal", s.String()).Info("shutting down due to os signal")
			cancelFn()
		case <-ctx.Done():
		}
	}()

	if err := newRootCmd(rootLogger, logger).ExecuteContext(ctx); err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")
		cancelFn()
		os.Exit(1)
	}
}

func newRootCmd(rootLogger *logrus.Logger, logger *logrus.Entry) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Import timestamped URLs into a resource store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			rootLogger.SetLevel(level)

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(
		&storeURI, "store-uri", envOr("HALRES_STORE_URI", "sqlite://halreslib.sqlite"),
		"URI for connecting to a resource store."+
			" [supported URI's: in-memory://, sqlite:///path/to/file.sqlite,"+
			" postgresql://user@host:26257/halreslib?sslmode=disable, es://node1:9200,...,nodeN:9200]",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", envOr("HALRES_LOG_LEVEL", "info"),
		"Minimum level of emitted log entries",
	)

	rootCmd.AddCommand(newImportCmd(logger), newURLsCmd(logger))

	return rootCmd
}

func newImportCmd(logger *logrus.Entry) *cobra.Command {
	var (
		inputPath    string
		fetchWorkers int
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Fetch, enrich and persist every URL of a TIMESTAMP<TAB>URL file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("fetch-workers") {
				n, err := envInt(fetchWorkersEnv, importer.DefaultFetchWorkers)
				if err != nil {
					return err
				}
				fetchWorkers = n
			}

			lines, err := readLines(inputPath, logger)
			if err != nil {
				return err
			}

			store, err := getStore(storeURI, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			imp, err := importer.New(importer.Config{
				Store:             store,
				NumOfFetchWorkers: fetchWorkers,
				Logger:            logger.WithField("component", "importer"),
			})
			if err != nil {
				return err
			}

			n, err := imp.Import(cmd.Context(), lines)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d resources\n", n)

			return err
		},
	}

	cmd.Flags().StringVar(
		&inputPath, "input", envOr("HALRES_INPUT", "urls.csv"),
		"Path to the tab-separated input file",
	)
	cmd.Flags().IntVar(
		&fetchWorkers, "fetch-workers", importer.DefaultFetchWorkers,
		"Maximum number of concurrent page fetches. Falls back to $"+fetchWorkersEnv,
	)

	return cmd
}

func newURLsCmd(logger *logrus.Entry) *cobra.Command {
	return &cobra.Command{
		Use:   "urls",
		Short: "Print the URL of every stored resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := getStore(storeURI, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			urls, err := listURLs(cmd.Context(), store)
			if err != nil {
				return err
			}

			return printLines(cmd.OutOrStdout(), urls)
		},
	}
}

func readLines(path string, logger *logrus.Entry) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open input: %w", err)
	}
	defer f.Close()

	return scanLines(f, logger)
}

// scanLines splits r into lines. A line longer than maxLineSize is logged
// and replaced by a blank line, which keeps the numbering of the following
// lines and is skipped by the importer.
func scanLines(r io.Reader, logger *logrus.Entry) ([]string, error) {
	var lines []string

	br := bufio.NewReaderSize(r, 64*1024)
	for lineNo := 1; ; lineNo++ {
		line, size, err := readLine(br)
		if err == io.EOF {
			return lines, nil
		}

		if err != nil {
			return nil, fmt.Errorf("unable to read input: %w", err)
		}

		if size > maxLineSize {
			logger.WithFields(logrus.Fields{
				"line": lineNo,
				"size": size,
			}).Warn("skipping oversized input line")

			line = nil
		}

		lines = append(lines, string(line))
	}
}

// readLine returns the next line of br without its line ending, together
// with its full size. Bytes past maxLineSize are counted but not kept.
func readLine(br *bufio.Reader) ([]byte, int, error) {
	var (
		line []byte
		size int
	)

	for {
		frag, isPrefix, err := br.ReadLine()
		if err != nil {
			if err == io.EOF && size > 0 {
				return line, size, nil
			}

			return nil, size, err
		}

		size += len(frag)
		if size <= maxLineSize {
			line = append(line, frag...)
		}

		if !isPrefix {
			return line, size, nil
		}
	}
}

func printLines(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}

	return fallback
}

// envInt returns the integer value of the key environment variable, or
// fallback when the variable is unset or empty.
func envInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q for %s: must be an integer", raw, key)
	}

	return v, nil
}
