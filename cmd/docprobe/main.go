// Command docprobe infers a structural profile from collections of
// semi-structured documents. It profiles files, directories, globs, and
// MongoDB collections, writing the profile, a JSON Schema, or a field
// report; with -serve it exposes the same engine as an MCP server on
// stdio.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	gojson "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/docprobe/docprobe/internal/config"
	"github.com/docprobe/docprobe/internal/filter"
	"github.com/docprobe/docprobe/internal/loader"
	"github.com/docprobe/docprobe/internal/logging"
	"github.com/docprobe/docprobe/internal/report"
	"github.com/docprobe/docprobe/pkg/export"
	"github.com/docprobe/docprobe/pkg/mcpsrv"
	"github.com/docprobe/docprobe/pkg/profile"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	serve := flag.Bool("serve", false, "run as an MCP server on stdio")
	output := flag.String("output", "", "write the result to this file instead of stdout")
	format := flag.String("format", "profile", "output format: profile, jsonschema, or report")
	jq := flag.String("jq", cfg.Filter, "jq expression applied to each document before profiling")
	recursive := flag.Bool("recursive", false, "descend into subdirectories of directory arguments")
	workers := flag.Int("workers", cfg.Workers, "parallel aggregation workers (0 = sequential)")
	maxDepth := flag.Int("max-depth", cfg.MaxDepth, "truncate document nesting below this depth (0 = unbounded)")
	sampleLimit := flag.Int("sample-limit", cfg.SampleLimit, "stop after this many documents (0 = unlimited)")
	failFast := flag.Bool("fail-fast", cfg.FailFast, "abort on the first undecodable document")
	nullAsAbsent := flag.Bool("null-as-absent", cfg.TreatNullAsAbsent, "treat explicit null field values as missing fields")
	mongoURI := flag.String("mongo-uri", cfg.MongoURI, "MongoDB connection string")
	mongoDB := flag.String("mongo-db", cfg.MongoDatabase, "MongoDB database to profile")
	mongoColls := flag.String("mongo-collections", "", "comma-separated MongoDB collections (default: all in the database)")
	flag.Parse()

	cfg.MaxDepth = *maxDepth
	cfg.SampleLimit = *sampleLimit
	cfg.FailFast = *failFast
	cfg.TreatNullAsAbsent = *nullAsAbsent
	cfg.Filter = *jq
	cfg.Workers = *workers

	if *serve {
		// mcpsrv owns logging setup in serve mode.
		if err := runServe(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	cleanup, err := logging.Setup(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		FilePath:   cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	opts := runOptions{
		output:     *output,
		format:     *format,
		recursive:  *recursive,
		mongoURI:   *mongoURI,
		mongoDB:    *mongoDB,
		mongoColls: splitList(*mongoColls),
	}
	if err := runProfile(ctx, cfg, flag.Args(), opts); err != nil {
		slog.Error("profiling failed", "error", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	server, err := mcpsrv.NewServer(mcpsrv.WithConfig(cfg))
	if err != nil {
		return err
	}
	defer server.Close()

	slog.Info("starting docprobe MCP server on stdio")
	return server.Run(ctx)
}

type runOptions struct {
	output     string
	format     string
	recursive  bool
	mongoURI   string
	mongoDB    string
	mongoColls []string
}

func runProfile(ctx context.Context, cfg *config.Config, paths []string, opts runOptions) error {
	if len(paths) == 0 && opts.mongoDB == "" {
		return errors.New("nothing to profile: pass paths or -mongo-db")
	}

	src, err := openSources(ctx, paths, opts)
	if err != nil {
		return err
	}
	defer src.Close()

	engine, err := filter.NewEngine(cfg.FilterCacheSize)
	if err != nil {
		return err
	}
	transform := engine.Transform(cfg.Filter)

	var p *profile.Profile
	if cfg.Workers > 1 {
		p, err = profileParallel(ctx, src, transform, cfg.ProfileOptions(), cfg.Workers)
	} else {
		p, err = profileSequential(ctx, src, transform, cfg.ProfileOptions())
	}
	if err != nil {
		return err
	}

	for _, s := range p.Skipped {
		slog.Warn("document skipped", "index", s.Index, "reason", s.Reason)
	}
	slog.Info("profile complete",
		"documents", p.Documents,
		"skipped", len(p.Skipped),
		"ambiguous", p.Ambiguous,
	)

	return writeResult(p, opts.format, opts.output)
}

// openSources assembles one source from path arguments and the optional
// MongoDB flags. Paths with glob metacharacters expand as patterns and
// directories enumerate their supported files.
func openSources(ctx context.Context, paths []string, opts runOptions) (loader.Source, error) {
	var sources []loader.Source
	closeAll := func() {
		for _, s := range sources {
			s.Close()
		}
	}

	for _, path := range paths {
		var (
			src loader.Source
			err error
		)
		switch {
		case strings.ContainsAny(path, "*?["):
			src, err = loader.Glob(path)
		default:
			info, statErr := os.Stat(path)
			if statErr != nil {
				closeAll()
				return nil, statErr
			}
			if info.IsDir() {
				src, err = loader.Dir(path, opts.recursive)
			} else {
				src, err = loader.Files([]string{path}, true)
			}
		}
		if err != nil {
			closeAll()
			return nil, err
		}
		sources = append(sources, src)
	}

	if opts.mongoDB != "" {
		src, err := loader.OpenMongo(ctx, opts.mongoURI, opts.mongoDB, opts.mongoColls...)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("mongodb: %w", err)
		}
		sources = append(sources, src)
	}

	return loader.Multi(sources...), nil
}

func profileSequential(ctx context.Context, src loader.Source, transform loader.Transform, opts profile.Options) (*profile.Profile, error) {
	agg := profile.New(opts)
	if err := loader.Feed(ctx, src, agg, transform); err != nil {
		return nil, err
	}
	return agg.Finalize()
}

// profileParallel fans decoded documents out to worker aggregators. A
// parallel pass cannot attribute skip diagnostics to input ordinals, so
// undecodable documents are logged instead of reported in the profile.
func profileParallel(ctx context.Context, src loader.Source, transform loader.Transform, opts profile.Options, workers int) (*profile.Profile, error) {
	opts.TrackCoverage = false

	docs := make(chan any, workers)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(docs)
		for {
			doc, err := src.Next(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				var decodeErr *loader.DecodeError
				if errors.As(err, &decodeErr) {
					if opts.FailFast {
						return decodeErr
					}
					slog.Warn("document skipped", "reason", decodeErr.Error())
					continue
				}
				return err
			}
			if transform != nil {
				doc, err = transform(ctx, doc)
				if err != nil {
					if opts.FailFast {
						return err
					}
					slog.Warn("document skipped", "reason", err.Error())
					continue
				}
			}
			select {
			case docs <- doc:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	var p *profile.Profile
	g.Go(func() error {
		var err error
		p, err = profile.AggregateParallel(ctx, docs, workers, opts)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}

func writeResult(p *profile.Profile, format, output string) error {
	out := io.Writer(os.Stdout)
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch format {
	case "profile":
		return writeJSON(out, p)
	case "jsonschema":
		schema, err := export.JSONSchema(p)
		if err != nil {
			return err
		}
		if err := export.CompileCheck(schema); err != nil {
			return err
		}
		return writeJSON(out, schema)
	case "report":
		return report.Render(out, p)
	default:
		return fmt.Errorf("unknown format %q (want profile, jsonschema, or report)", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := gojson.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
