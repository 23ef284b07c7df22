package compat

import (
	"fmt"
	"strings"
)

// These are arranged such that earlier releases are less than later releases
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

var targetNames = []string{
	ES5:    "es5",
	ES2015: "es2015",
	ES2016: "es2016",
	ES2017: "es2017",
	ES2018: "es2018",
	ES2019: "es2019",
	ES2020: "es2020",
	ES2021: "es2021",
	ES2022: "es2022",
	ESNext: "esnext",
}

func (target Target) String() string {
	if int(target) < len(targetNames) {
		return targetNames[target]
	}
	return fmt.Sprintf("Target(%d)", target)
}

// Accepts names such as "es5", "ES2015", and "esnext"
func ParseTarget(text string) (Target, error) {
	lower := strings.ToLower(text)
	for i, name := range targetNames {
		if name == lower {
			return Target(i), nil
		}
	}
	return 0, fmt.Errorf("Invalid target %q (valid: %s)", text, strings.Join(targetNames, ", "))
}

type JSFeature uint64

const (
	Class JSFeature = 1 << iota
	ClassField
	ClassStaticBlocks

	// Shorthand properties and methods in object literals
	ObjectExtensions

	// Function expressions get their name from the variable they are
	// assigned to
	FunctionNameInference
)

func (features JSFeature) Has(feature JSFeature) bool {
	return (features & feature) != 0
}

// The first target where each feature is available
var jsTable = map[JSFeature]Target{
	Class:                 ES2015,
	ObjectExtensions:      ES2015,
	FunctionNameInference: ES2015,
	ClassField:            ES2022,
	ClassStaticBlocks:     ES2022,
}

// Returns the set of features that code compiled for "target" can't use
func UnsupportedJSFeatures(target Target) (unsupported JSFeature) {
	for feature, since := range jsTable {
		if target < since {
			unsupported |= feature
		}
	}
	return
}
