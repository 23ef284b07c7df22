package compat

import (
	"testing"

	"github.com/lowerjs/lowerjs/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnsupportedJSFeatures(t *testing.T) {
	es5 := UnsupportedJSFeatures(ES5)
	test.AssertEqual(t, es5.Has(Class), true)
	test.AssertEqual(t, es5.Has(ObjectExtensions), true)
	test.AssertEqual(t, es5.Has(ClassField), true)

	es2015 := UnsupportedJSFeatures(ES2015)
	test.AssertEqual(t, es2015.Has(Class), false)
	test.AssertEqual(t, es2015.Has(ClassField), true)
	test.AssertEqual(t, es2015.Has(ClassStaticBlocks), true)

	test.AssertEqual(t, UnsupportedJSFeatures(ES2022), JSFeature(0))
	test.AssertEqual(t, UnsupportedJSFeatures(ESNext), JSFeature(0))
}

func TestParseTarget(t *testing.T) {
	target, err := ParseTarget("ES2015")
	require.NoError(t, err)
	assert.Equal(t, ES2015, target)

	target, err = ParseTarget("esnext")
	require.NoError(t, err)
	assert.Equal(t, ESNext, target)
	assert.Equal(t, "esnext", target.String())

	_, err = ParseTarget("es3")
	assert.EqualError(t, err, "Invalid target \"es3\" (valid: es5, es2015, es2016, es2017, es2018, es2019, es2020, es2021, es2022, esnext)")
}
