package config

import (
	"github.com/lowerjs/lowerjs/internal/compat"
)

type Format uint8

const (
	// "require()" calls and assignments to "exports"
	FormatCommonJS Format = iota

	// Import and export statements are kept as-is
	FormatESModule
)

func (f Format) String() string {
	if f == FormatESModule {
		return "esm"
	}
	return "cjs"
}

type HelperMode uint8

const (
	// Each helper is imported from the runtime package:
	//
	//   import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
	//
	HelpersImport HelperMode = iota

	// Each helper is defined as a function at the top of every file that uses it
	HelpersInline
)

func (mode HelperMode) String() string {
	if mode == HelpersInline {
		return "inline"
	}
	return "import"
}

type ImportBindings uint8

const (
	// Live: "import { x } from './m'; x()" => "var _m = require('./m'); _m.x()"
	// Snapshot: "import { x } from './m'; x()" => "var x = require('./m').x; x()"
	//
	// Snapshot bindings read the export once, so importers won't observe
	// assignments the exporting module makes later.
	ImportBindingsLive ImportBindings = iota
	ImportBindingsSnapshot
)

const DefaultRuntimePackage = "@swc/helpers"

type Options struct {
	ModuleFormat   Format
	HelperMode     HelperMode
	ImportBindings ImportBindings

	// The syntax this code is compiled for. Features are lowered when they
	// appear in this set.
	UnsupportedJSFeatures compat.JSFeature

	// The package that helper imports refer to. Empty means
	// "DefaultRuntimePackage".
	RuntimePackage string

	// Adds a "use strict" directive at the top of converted ES modules
	StrictFile bool
}

func (options *Options) RuntimePackageOrDefault() string {
	if options.RuntimePackage == "" {
		return DefaultRuntimePackage
	}
	return options.RuntimePackage
}
