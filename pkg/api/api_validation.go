package api

import (
	"fmt"
	"strings"

	"github.com/lowerjs/lowerjs/internal/compat"
	"github.com/lowerjs/lowerjs/internal/config"
	"github.com/lowerjs/lowerjs/internal/logger"
)

func validateColor(value StderrColor) logger.StderrColor {
	switch value {
	case ColorIfTerminal:
		return logger.ColorIfTerminal
	case ColorNever:
		return logger.ColorNever
	case ColorAlways:
		return logger.ColorAlways
	default:
		panic("Invalid color")
	}
}

func validateLogLevel(value LogLevel) logger.LogLevel {
	switch value {
	case LogLevelInfo:
		return logger.LevelInfo
	case LogLevelWarning:
		return logger.LevelWarning
	case LogLevelError:
		return logger.LevelError
	case LogLevelSilent:
		return logger.LevelSilent
	default:
		panic("Invalid log level")
	}
}

func validateTarget(log logger.Log, value Target) compat.Target {
	switch value {
	case ES5:
		return compat.ES5
	case ES2015:
		return compat.ES2015
	case ES2016:
		return compat.ES2016
	case ES2017:
		return compat.ES2017
	case ES2018:
		return compat.ES2018
	case ES2019:
		return compat.ES2019
	case ES2020:
		return compat.ES2020
	case ES2021:
		return compat.ES2021
	case ES2022:
		return compat.ES2022
	case ESNext:
		return compat.ESNext
	default:
		log.AddMsg(logger.Msg{Kind: logger.Error, Text: fmt.Sprintf("Invalid target: %d", value)})
		return compat.ESNext
	}
}

func validateFormat(log logger.Log, value Format) config.Format {
	switch value {
	case FormatCommonJS:
		return config.FormatCommonJS
	case FormatESModule:
		return config.FormatESModule
	default:
		log.AddMsg(logger.Msg{Kind: logger.Error, Text: fmt.Sprintf("Invalid format: %d", value)})
		return config.FormatESModule
	}
}

func validateHelperMode(log logger.Log, value HelperMode) config.HelperMode {
	switch value {
	case HelpersImport:
		return config.HelpersImport
	case HelpersInline:
		return config.HelpersInline
	default:
		log.AddMsg(logger.Msg{Kind: logger.Error, Text: fmt.Sprintf("Invalid helper mode: %d", value)})
		return config.HelpersImport
	}
}

func validateImportBindings(log logger.Log, value ImportBindings) config.ImportBindings {
	switch value {
	case ImportBindingsLive:
		return config.ImportBindingsLive
	case ImportBindingsSnapshot:
		return config.ImportBindingsSnapshot
	default:
		log.AddMsg(logger.Msg{Kind: logger.Error, Text: fmt.Sprintf("Invalid import bindings: %d", value)})
		return config.ImportBindingsLive
	}
}

// Helper paths are "<package>/src/_<name>.mjs", so the package name has to
// be usable as a path prefix
func validateRuntimePackage(log logger.Log, value string) string {
	if value == "" {
		return ""
	}
	if strings.TrimSpace(value) != value || strings.HasSuffix(value, "/") || strings.ContainsAny(value, "\"\\\n") {
		log.AddMsg(logger.Msg{Kind: logger.Error, Text: fmt.Sprintf("Invalid runtime package: %q", value)})
	}
	return value
}

func validateOptions(log logger.Log, options TransformOptions) config.Options {
	return config.Options{
		ModuleFormat:          validateFormat(log, options.Format),
		HelperMode:            validateHelperMode(log, options.Helpers),
		ImportBindings:        validateImportBindings(log, options.ImportBindings),
		UnsupportedJSFeatures: compat.UnsupportedJSFeatures(validateTarget(log, options.Target)),
		RuntimePackage:        validateRuntimePackage(log, options.RuntimePackage),
		StrictFile:            options.StrictFile,
	}
}

////////////////////////////////////////////////////////////////////////////////
// Parsing option values from text

func ParseTarget(text string) (Target, error) {
	target, err := compat.ParseTarget(text)
	if err != nil {
		return 0, err
	}
	return Target(target), nil
}

func (target Target) String() string {
	return compat.Target(target).String()
}

func ParseFormat(text string) (Format, error) {
	switch strings.ToLower(text) {
	case "cjs", "commonjs":
		return FormatCommonJS, nil
	case "esm":
		return FormatESModule, nil
	}
	return 0, fmt.Errorf("Invalid format %q (valid: cjs, esm)", text)
}

func ParseHelperMode(text string) (HelperMode, error) {
	switch strings.ToLower(text) {
	case "import":
		return HelpersImport, nil
	case "inline":
		return HelpersInline, nil
	}
	return 0, fmt.Errorf("Invalid helper mode %q (valid: import, inline)", text)
}

func ParseImportBindings(text string) (ImportBindings, error) {
	switch strings.ToLower(text) {
	case "live":
		return ImportBindingsLive, nil
	case "snapshot":
		return ImportBindingsSnapshot, nil
	}
	return 0, fmt.Errorf("Invalid import bindings %q (valid: live, snapshot)", text)
}
