// Command litreview runs the review pipeline locally: XML parsing, question
// answering over the parsed papers and per-field extraction.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"litreview/internal/app"
	"litreview/internal/config"
	"litreview/internal/observability"
	"litreview/internal/paper"
)

const usage = `usage: litreview <command> [flags]

commands:
  parse      parse publisher XML into normalized text files
  sections   write the section tree of every XML paper as JSON
  abstracts  write EID -> abstract for every XML paper as JSON
  answer     run the question battery over the input documents
  extract    build the per-field CSV tables from the answers
  all        parse, answer and extract in order
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}
	cmd := args[0]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	out := fs.String("out", "", "output JSON path for sections/abstracts")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(observability.LoggingConfig(cfg.Logging)).
		With().Str("command", cmd).Logger()
	metrics := observability.NewMetrics(cfg.Metrics.Namespace, prometheus.NewRegistry())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer a.Close()

	switch cmd {
	case "parse":
		return parse(ctx, a, logger)
	case "sections":
		return sections(ctx, a, logger, outPath(*out, cfg, "sections.json"))
	case "abstracts":
		return abstracts(ctx, a, logger, outPath(*out, cfg, "abstracts.json"))
	case "answer":
		return answer(ctx, a, logger)
	case "extract":
		return extractFields(ctx, a, logger)
	case "all":
		if err := parse(ctx, a, logger); err != nil {
			return err
		}
		if err := answer(ctx, a, logger); err != nil {
			return err
		}
		return extractFields(ctx, a, logger)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func outPath(flagValue string, cfg *config.Config, name string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	return filepath.Join(filepath.Dir(cfg.Paths.OutputPath), name)
}

func parse(ctx context.Context, a *app.App, logger zerolog.Logger) error {
	paths, err := paper.ListXML(a.Config.Paths.XMLDir)
	if err != nil {
		return err
	}
	n, err := a.Corpus.Run(ctx, paths)
	if err != nil {
		return err
	}
	logger.Info().Int("files", len(paths)).Int("documents", n).Msg("parse finished")
	return nil
}

func sections(ctx context.Context, a *app.App, logger zerolog.Logger, out string) error {
	paths, err := paper.ListXML(a.Config.Paths.XMLDir)
	if err != nil {
		return err
	}
	n, err := a.Corpus.ParseAllSections(ctx, paths, out)
	if err != nil {
		return err
	}
	logger.Info().Int("documents", n).Str("path", out).Msg("sections written")
	return nil
}

func abstracts(ctx context.Context, a *app.App, logger zerolog.Logger, out string) error {
	paths, err := paper.ListXML(a.Config.Paths.XMLDir)
	if err != nil {
		return err
	}
	n, err := a.Corpus.ParseAllAbstracts(ctx, paths, out)
	if err != nil {
		return err
	}
	logger.Info().Int("documents", n).Str("path", out).Msg("abstracts written")
	return nil
}

func answer(ctx context.Context, a *app.App, logger zerolog.Logger) error {
	if err := a.RequireQuestions(); err != nil {
		return err
	}
	sum, err := a.Runner.Run(ctx, a.Config.Paths.InputDir, a.Config.Paths.OutputPath)
	if err != nil {
		return err
	}
	logger.Info().
		Int("total", sum.Total).
		Int("processed", sum.Processed).
		Int("skipped", sum.Skipped).
		Int("errored", sum.Errored).
		Str("output", a.Config.Paths.OutputPath).
		Msg("answer finished")
	return nil
}

func extractFields(ctx context.Context, a *app.App, logger zerolog.Logger) error {
	all, err := a.Runner.Checkpoint(ctx, a.Config.Paths.OutputPath)
	if err != nil {
		return err
	}
	written, err := a.Extractor.ExtractAll(ctx, all)
	if err != nil {
		return err
	}
	logger.Info().Int("documents", len(all)).Int("tables", len(written)).Str("dir", a.Config.Paths.ExtractDir).Msg("extract finished")
	return nil
}
