package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runForTest(t *testing.T, stdin string, args ...string) (int, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := runImpl(args, stdio{
		stdin:  strings.NewReader(stdin),
		stdout: &stdout,
		stderr: &stderr,
	})
	return code, stdout.String()
}

func TestBuildStdin(t *testing.T) {
	code, out := runForTest(t, "class A {}", "build", "--log-level=silent")
	require.Equal(t, 0, code)
	assert.Equal(t, `import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
var A = function A() {
    "use strict";
    _class_call_check(this, A);
};
`, out)

	code, out = runForTest(t, "class A {}", "build", "--log-level=silent", "--target=esnext")
	require.Equal(t, 0, code)
	assert.Equal(t, "class A {}\n", out)

	code, out = runForTest(t, "class A {}", "build", "--log-level=silent", "--runtime=my-helpers")
	require.Equal(t, 0, code)
	assert.Contains(t, out, `"my-helpers/src/_class_call_check.mjs"`)
}

func TestBuildErrors(t *testing.T) {
	code, out := runForTest(t, "class {", "build", "--log-level=silent")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)

	code, _ = runForTest(t, "", "build", "--format=umd")
	assert.Equal(t, 1, code)

	code, _ = runForTest(t, "", "build", "--color=maybe")
	assert.Equal(t, 1, code)

	code, _ = runForTest(t, "", "build", "--watch")
	assert.Equal(t, 1, code)

	dir := t.TempDir()
	a := filepath.Join(dir, "a.js")
	b := filepath.Join(dir, "b.js")
	require.NoError(t, os.WriteFile(a, []byte("class A {}"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("class B {}"), 0644))
	code, _ = runForTest(t, "", "build", a, b)
	assert.Equal(t, 1, code)
}

func TestBuildOutdir(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "src", "a.js")
	b := filepath.Join(dir, "src", "b.js")
	outdir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(filepath.Dir(a), 0755))
	require.NoError(t, os.WriteFile(a, []byte(`import { B } from "./b"; export class A extends B {}`), 0644))
	require.NoError(t, os.WriteFile(b, []byte(`export class B {}`), 0644))

	code, out := runForTest(t, "", "build", "--log-level=silent", "--outdir="+outdir, "--format=esm", a, b)
	require.Equal(t, 0, code)
	assert.Empty(t, out)

	outA, err := os.ReadFile(filepath.Join(outdir, "a.js"))
	require.NoError(t, err)
	assert.Contains(t, string(outA), "export var A = /*#__PURE__*/ function(B) {")
	assert.Contains(t, string(outA), `import { B } from "./b";`)

	outB, err := os.ReadFile(filepath.Join(outdir, "b.js"))
	require.NoError(t, err)
	assert.Contains(t, string(outB), "export var B = function B() {")
}

func TestBuildOutdirCollision(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "x", "index.js")
	b := filepath.Join(dir, "y", "index.js")
	for _, path := range []string{a, b} {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("1"), 0644))
	}

	_, err := outputPaths([]string{a, b}, filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "would be written to")
}

func TestBuildConfigFile(t *testing.T) {
	config := filepath.Join(t.TempDir(), "lowerjs.yaml")
	require.NoError(t, os.WriteFile(config, []byte("helpers: inline\ntarget: es2015\n"), 0644))

	code, out := runForTest(t, "class A { constructor() { this.x = 1; } }", "build", "--log-level=silent", "--config="+config)
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "class A {\n"), out)
	assert.NotContains(t, out, "_class_call_check")

	// Flags win over the config file
	code, out = runForTest(t, "class A {}", "build", "--log-level=silent", "--config="+config, "--target=es5")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "function _class_call_check(instance, Constructor) {")
	assert.NotContains(t, out, "import ")
}

func TestHelpers(t *testing.T) {
	code, out := runForTest(t, "", "helpers")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "class_call_check\t@swc/helpers/src/_class_call_check.mjs\n")

	code, out = runForTest(t, "", "helpers", "--runtime=acme")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "class_call_check\tacme/src/_class_call_check.mjs\n")
}
