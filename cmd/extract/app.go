package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/feichai0017/metadata-extractor/config"
	"github.com/feichai0017/metadata-extractor/internal/models"
	"github.com/feichai0017/metadata-extractor/internal/service/extract"
	"github.com/feichai0017/metadata-extractor/pkg/converters"
	"github.com/feichai0017/metadata-extractor/pkg/logger"
	"github.com/feichai0017/metadata-extractor/pkg/storage"
)

type options struct {
	recursive bool
	csv       bool
	csvFile   string
	jsonFile  string
	upload    string
	logLevel  string
	quiet     bool
	extractor config.ExtractorConfig
	paths     []string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{extractor: *config.GetExtractorConfig()}

	fset := flag.NewFlagSet("metadata-extractor", flag.ContinueOnError)
	fset.SetOutput(stderr)
	fset.Usage = func() {
		fmt.Fprintln(stderr, "usage: metadata-extractor [flags] <file|dir>...")
		fset.PrintDefaults()
	}

	fset.BoolVar(&opts.recursive, "r", false, "descend into directories recursively")
	fset.BoolVar(&opts.csv, "csv", true, "append rows to a CSV next to each file")
	fset.StringVar(&opts.csvFile, "csv-file", "", "append all rows to this CSV instead")
	fset.StringVar(&opts.jsonFile, "json", "", "write all records to this JSON file")
	fset.StringVar(&opts.upload, "upload", "", "upload exports to storage (local, s3, minio)")
	fset.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	fset.BoolVar(&opts.quiet, "quiet", false, "do not print reports")
	fset.StringVar(&opts.extractor.HashAlgorithm, "hash", opts.extractor.HashAlgorithm, "hash algorithm (md5, sha1, sha256)")
	fset.IntVar(&opts.extractor.Concurrency, "workers", opts.extractor.Concurrency, "files extracted in parallel")
	fset.StringVar(&opts.extractor.CategoriesFile, "categories", opts.extractor.CategoriesFile, "YAML file overriding extension categories")
	fset.StringVar(&opts.extractor.FFprobePath, "ffprobe", opts.extractor.FFprobePath, "ffprobe binary")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	opts.extractor.HashAlgorithm = strings.ToLower(opts.extractor.HashAlgorithm)
	if fset.NArg() == 0 {
		fset.Usage()
		return nil, errors.New("no input paths")
	}
	if opts.upload != "" {
		if _, err := storage.ParseStorageType(opts.upload); err != nil {
			return nil, err
		}
	}
	opts.paths = fset.Args()
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	log, err := logger.NewLogger(
		logger.WithLevel(opts.logLevel),
		logger.WithEncoding("console"),
		logger.WithOutputPaths([]string{"stderr"}),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	defer log.Sync()

	pipeline, err := extract.NewPipelineFromConfig(&opts.extractor, log.Named("pipeline"))
	if err != nil {
		log.Error("Invalid configuration", logger.Error(err))
		return 2
	}

	paths := expandPaths(opts.paths, opts.recursive, opts.extractor.CSVFilename, log)
	results := extract.ExtractBatch(ctx, pipeline, paths, opts.extractor.Concurrency)

	var (
		records  []*models.Record
		exported = make(map[string]struct{})
		failed   bool
		folder   = converters.NewFolderCSV(opts.extractor.CSVFilename)
		sink     *converters.CSVSink
	)
	if opts.csvFile != "" {
		sink = converters.NewCSVSink(opts.csvFile)
	}

	for _, r := range results {
		extract.LogOutcome(log, r)
		if r.Err != nil {
			failed = true
			continue
		}
		records = append(records, r.Record)

		if !opts.quiet {
			if err := converters.WriteReport(stdout, r.Record); err != nil {
				log.Error("Failed to write report", logger.Error(err))
			}
		}

		csvPath, dropped, err := writeCSV(opts, folder, sink, r.Record)
		if err != nil {
			log.Error("Failed to write CSV row",
				logger.String("path", r.Path),
				logger.Error(err),
			)
			continue
		}
		if csvPath != "" {
			exported[csvPath] = struct{}{}
		}
		if len(dropped) > 0 {
			log.Warn("Fields not in existing CSV header were dropped",
				logger.String("csv", csvPath),
				logger.Strings("fields", dropped),
			)
		}
	}

	if opts.jsonFile != "" && len(records) > 0 {
		if err := converters.ExportJSON(opts.jsonFile, records); err != nil {
			log.Error("Failed to export JSON", logger.Error(err))
			failed = true
		} else {
			exported[opts.jsonFile] = struct{}{}
		}
	}

	if opts.upload != "" && len(exported) > 0 {
		if err := upload(ctx, storage.StorageType(opts.upload), exported, log); err != nil {
			log.Error("Upload failed", logger.Error(err))
			failed = true
		}
	}

	if failed {
		return 1
	}
	return 0
}

func writeCSV(opts *options, folder *converters.FolderCSV, sink *converters.CSVSink, rec *models.Record) (string, []string, error) {
	switch {
	case sink != nil:
		dropped, err := sink.Write(rec)
		return sink.Path(), dropped, err
	case opts.csv:
		return folder.Write(rec)
	default:
		return "", nil, nil
	}
}

// expandPaths replaces directories with the regular files they contain.
// Without recursive only the top level is read. Our own CSV exports are
// skipped so repeated runs do not describe them.
func expandPaths(args []string, recursive bool, csvName string, log logger.Logger) []string {
	var out []string
	for _, raw := range args {
		path := extract.CleanPath(raw)
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			out = append(out, path)
			continue
		}

		var files []string
		walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				log.Warn("Skipping unreadable entry", logger.String("path", p), logger.Error(err))
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if p != path && !recursive {
					return fs.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && d.Name() != csvName {
				files = append(files, p)
			}
			return nil
		})
		if walkErr != nil {
			log.Warn("Directory walk stopped early", logger.String("path", path), logger.Error(walkErr))
		}
		sort.Strings(files)
		out = append(out, files...)
	}
	return out
}

func upload(ctx context.Context, kind storage.StorageType, files map[string]struct{}, log logger.Logger) error {
	store, err := storage.NewStorage(kind, log.Named("storage"))
	if err != nil {
		return err
	}

	prefix := "exports/" + time.Now().Format("20060102T150405")
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for i, name := range names {
		f, err := os.Open(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		key := fmt.Sprintf("%s/%d-%s", prefix, i, filepath.Base(name))
		stored, err := store.Store(ctx, f, key)
		f.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		log.Info("Export uploaded",
			logger.String("file", name),
			logger.String("key", stored),
		)
	}
	return errors.Join(errs...)
}
