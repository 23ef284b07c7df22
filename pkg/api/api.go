package api

import (
	"context"
)

type Target uint8

const (
	ES5 Target = iota
	ES2015
	ES2016
	ES2017
	ES2018
	ES2019
	ES2020
	ES2021
	ES2022
	ESNext
)

type Format uint8

const (
	FormatCommonJS Format = iota
	FormatESModule
)

type HelperMode uint8

const (
	HelpersImport HelperMode = iota
	HelpersInline
)

type ImportBindings uint8

const (
	ImportBindingsLive ImportBindings = iota
	ImportBindingsSnapshot
)

type Location struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

type Message struct {
	Text     string
	Location *Location
}

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type LogLevel uint8

const (
	LogLevelSilent LogLevel = iota
	LogLevelInfo
	LogLevelWarning
	LogLevelError
)

////////////////////////////////////////////////////////////////////////////////
// Transform API

type TransformOptions struct {
	Color      StderrColor
	ErrorLimit int
	LogLevel   LogLevel

	Target         Target
	Format         Format
	Helpers        HelperMode
	ImportBindings ImportBindings

	// Helper imports refer to this package. The default is "@swc/helpers".
	RuntimePackage string

	// Adds "use strict" to the top of files that were ES modules
	StrictFile bool

	// The file name used in messages
	Sourcefile string

	// The number of files "TransformFiles" works on at once. Zero means one
	// per CPU.
	Parallelism int
}

type TransformResult struct {
	Errors   []Message
	Warnings []Message

	JS []byte
}

func Transform(input string, options TransformOptions) TransformResult {
	return transformImpl(input, options)
}

type File struct {
	Path     string
	Contents string
}

type FileResult struct {
	Path string
	TransformResult
}

// Transforms each file independently. Results are in the same order as the
// input. The only error returned is from the context: a file with syntax
// errors reports them in its result instead.
func TransformFiles(ctx context.Context, files []File, options TransformOptions) ([]FileResult, error) {
	return transformFilesImpl(ctx, files, options)
}

////////////////////////////////////////////////////////////////////////////////
// Config file API

// Reads options from a YAML file such as:
//
//	target: es5
//	format: cjs
//	helpers: import
//	importBindings: live
//	runtimePackage: "@swc/helpers"
//	strict: false
//
// Missing keys keep their default values.
func LoadConfigFile(path string) (TransformOptions, error) {
	return loadConfigFileImpl(path)
}

////////////////////////////////////////////////////////////////////////////////
// Watch API

type WatchOptions struct {
	// Called with the paths that changed since the last call. Changes that
	// arrive close together are reported together.
	OnChange func(paths []string)

	// Called for errors from the file system watcher. Watching continues.
	OnError func(err error)
}

// Watches the given files until the context is canceled
func Watch(ctx context.Context, paths []string, options WatchOptions) error {
	return watchImpl(ctx, paths, options)
}
