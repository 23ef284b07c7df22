package api

import (
	"context"
	"fmt"
	goruntime "runtime"

	"golang.org/x/sync/errgroup"

	"github.com/lowerjs/lowerjs/internal/config"
	"github.com/lowerjs/lowerjs/internal/helpers"
	"github.com/lowerjs/lowerjs/internal/js_lower"
	"github.com/lowerjs/lowerjs/internal/js_parser"
	"github.com/lowerjs/lowerjs/internal/js_printer"
	"github.com/lowerjs/lowerjs/internal/logger"
	"github.com/lowerjs/lowerjs/internal/runtime"
)

func messagesOfKind(kind logger.MsgKind, msgs []logger.Msg) []Message {
	var filtered []Message
	for _, msg := range msgs {
		if msg.Kind == kind {
			var location *Location

			if loc := msg.Location; loc != nil {
				location = &Location{
					File:     loc.File,
					Line:     loc.Line,
					Column:   loc.Column,
					Length:   loc.Length,
					LineText: loc.LineText,
				}
			}

			filtered = append(filtered, Message{
				Text:     msg.Text,
				Location: location,
			})
		}
	}
	return filtered
}

func newLog(options TransformOptions) logger.Log {
	if options.LogLevel == LogLevelSilent {
		return logger.NewDeferLog()
	}
	return logger.NewStderrLog(logger.StderrOptions{
		IncludeSource: true,
		ErrorLimit:    options.ErrorLimit,
		Color:         validateColor(options.Color),
		LogLevel:      validateLogLevel(options.LogLevel),
	})
}

func transformImpl(input string, options TransformOptions) TransformResult {
	// Convert and validate the options
	validateLog := newLog(options)
	configOptions := validateOptions(validateLog, options)

	// Stop now if there were errors
	validateMsgs := validateLog.Done()
	validateErrors := messagesOfKind(logger.Error, validateMsgs)
	if len(validateErrors) > 0 {
		return TransformResult{
			Errors:   validateErrors,
			Warnings: messagesOfKind(logger.Warning, validateMsgs),
		}
	}

	catalog := runtime.DefaultCatalog().WithRuntimePackage(configOptions.RuntimePackageOrDefault())
	log := newLog(options)
	js := transformSource(log, input, options.Sourcefile, configOptions, catalog)
	msgs := log.Done()

	return TransformResult{
		Errors: messagesOfKind(logger.Error, msgs),
		Warnings: append(
			messagesOfKind(logger.Warning, validateMsgs),
			messagesOfKind(logger.Warning, msgs)...),
		JS: js,
	}
}

// Runs the whole pipeline on one file. Nothing is returned if there was an
// error at any step.
func transformSource(log logger.Log, input string, sourcefile string, options config.Options, catalog *runtime.Catalog) (js []byte) {
	// A crash in one file is reported as an error for that file instead of
	// taking down every other file being transformed
	defer func() {
		if r := recover(); r != nil {
			log.AddMsg(logger.Msg{Kind: logger.Error, Text: fmt.Sprintf("panic: %v\n%s", r, helpers.PrettyPrintedStack())})
			js = nil
		}
	}()

	prettyPath := sourcefile
	if prettyPath == "" {
		prettyPath = "<stdin>"
	}
	source := logger.Source{
		PrettyPath:     prettyPath,
		IdentifierName: "stdin",
		Contents:       input,
	}

	tree, ok := js_parser.Parse(log, source)
	if !ok {
		return nil
	}
	tree, ok = js_lower.Lower(log, source, tree, options, catalog)
	if !ok {
		return nil
	}
	return js_printer.Print(tree).JS
}

func transformFilesImpl(ctx context.Context, files []File, options TransformOptions) ([]FileResult, error) {
	validateLog := logger.NewDeferLog()
	configOptions := validateOptions(validateLog, options)
	validateMsgs := validateLog.Done()
	if validateErrors := messagesOfKind(logger.Error, validateMsgs); len(validateErrors) > 0 {
		results := make([]FileResult, len(files))
		for i, file := range files {
			results[i] = FileResult{Path: file.Path, TransformResult: TransformResult{Errors: validateErrors}}
		}
		return results, nil
	}

	parallelism := options.Parallelism
	if parallelism <= 0 {
		parallelism = goruntime.GOMAXPROCS(0)
	}
	catalog := runtime.DefaultCatalog().WithRuntimePackage(configOptions.RuntimePackageOrDefault())

	// Each file writes only its own slot, so the results need no lock
	results := make([]FileResult, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, file := range files {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			log := newLog(options)
			js := transformSource(log, file.Contents, file.Path, configOptions, catalog)
			msgs := log.Done()
			results[i] = FileResult{
				Path: file.Path,
				TransformResult: TransformResult{
					Errors:   messagesOfKind(logger.Error, msgs),
					Warnings: messagesOfKind(logger.Warning, msgs),
					JS:       js,
				},
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
