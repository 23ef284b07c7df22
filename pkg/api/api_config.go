package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// The on-disk form of "TransformOptions". Values are validated before they
// are converted so an error can name the key that was wrong.
type configFile struct {
	Target         string `yaml:"target" validate:"omitempty,oneof=es5 es2015 es2016 es2017 es2018 es2019 es2020 es2021 es2022 esnext"`
	Format         string `yaml:"format" validate:"omitempty,oneof=cjs commonjs esm"`
	Helpers        string `yaml:"helpers" validate:"omitempty,oneof=import inline"`
	ImportBindings string `yaml:"importBindings" validate:"omitempty,oneof=live snapshot"`
	RuntimePackage string `yaml:"runtimePackage" validate:"omitempty,excludesall= \"\\"`
	StrictFile     bool   `yaml:"strict"`
	Parallelism    int    `yaml:"parallelism" validate:"gte=0"`
}

var configValidate = validator.New()

func loadConfigFileImpl(path string) (TransformOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TransformOptions{}, fmt.Errorf("Could not read config file: %w", err)
	}
	options, err := parseConfig(data)
	if err != nil {
		return TransformOptions{}, fmt.Errorf("Invalid config file %q: %w", path, err)
	}
	return options, nil
}

func parseConfig(data []byte) (TransformOptions, error) {
	var file configFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return TransformOptions{}, err
	}

	if err := configValidate.Struct(&file); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			first := validationErrors[0]
			return TransformOptions{}, fmt.Errorf("Invalid value %q for %q: %w",
				fmt.Sprint(first.Value()), yamlKey(first.StructField()), err)
		}
		return TransformOptions{}, err
	}

	// Options that aren't set keep the zero value, which is the default
	options := TransformOptions{
		RuntimePackage: file.RuntimePackage,
		StrictFile:     file.StrictFile,
		Parallelism:    file.Parallelism,
	}
	var err error
	if file.Target != "" {
		if options.Target, err = ParseTarget(file.Target); err != nil {
			return TransformOptions{}, err
		}
	}
	if file.Format != "" {
		if options.Format, err = ParseFormat(file.Format); err != nil {
			return TransformOptions{}, err
		}
	}
	if file.Helpers != "" {
		if options.Helpers, err = ParseHelperMode(file.Helpers); err != nil {
			return TransformOptions{}, err
		}
	}
	if file.ImportBindings != "" {
		if options.ImportBindings, err = ParseImportBindings(file.ImportBindings); err != nil {
			return TransformOptions{}, err
		}
	}
	return options, nil
}

// Maps a struct field back to the key it was read from
func yamlKey(field string) string {
	switch field {
	case "ImportBindings":
		return "importBindings"
	case "RuntimePackage":
		return "runtimePackage"
	case "StrictFile":
		return "strict"
	}
	return strings.ToLower(field)
}
