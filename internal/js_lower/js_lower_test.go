package js_lower

import (
	"testing"

	"github.com/lowerjs/lowerjs/internal/compat"
	"github.com/lowerjs/lowerjs/internal/config"
	"github.com/lowerjs/lowerjs/internal/js_parser"
	"github.com/lowerjs/lowerjs/internal/js_printer"
	"github.com/lowerjs/lowerjs/internal/logger"
	"github.com/lowerjs/lowerjs/internal/runtime"
	"github.com/lowerjs/lowerjs/internal/test"
)

var es5 = config.Options{UnsupportedJSFeatures: compat.UnsupportedJSFeatures(compat.ES5)}
var es2015 = config.Options{UnsupportedJSFeatures: compat.UnsupportedJSFeatures(compat.ES2015)}
var esnext = config.Options{}

func lowerForTest(t *testing.T, options config.Options, catalog HelperCatalog, contents string) (string, string) {
	t.Helper()
	log := logger.NewDeferLog()
	source := test.SourceForTest(contents)
	tree, ok := js_parser.Parse(log, source)
	if !ok {
		t.Fatal("Parse error:\n" + test.MsgsText(log.Done()))
	}
	result, ok := Lower(log, source, tree, options, catalog)
	text := test.MsgsText(log.Done())
	if !ok {
		return "", text
	}
	return string(js_printer.Print(result).JS), text
}

func expectLoweredCommon(t *testing.T, options config.Options, catalog HelperCatalog, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		js, msgs := lowerForTest(t, options, catalog, contents)
		test.AssertEqualWithDiff(t, msgs, "")
		test.AssertEqualWithDiff(t, js, expected)
	})
}

func expectLowered(t *testing.T, options config.Options, contents string, expected string) {
	t.Helper()
	expectLoweredCommon(t, options, runtime.DefaultCatalog(), contents, expected)
}

func expectLowerError(t *testing.T, options config.Options, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		js, msgs := lowerForTest(t, options, runtime.DefaultCatalog(), contents)
		test.AssertEqualWithDiff(t, msgs, expected)
		test.AssertEqual(t, js, "")
	})
}

func TestLowerClassStandalone(t *testing.T) {
	expectLowered(t, es5, `
class Rectangle {
  constructor() {
    console.log("I'm a rectangle!");
  }
}
module.exports = { Rectangle };
`, `import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
var Rectangle = function Rectangle() {
    "use strict";
    _class_call_check(this, Rectangle);
    console.log("I'm a rectangle!");
};
module.exports = {
    Rectangle: Rectangle
};
`)

	// A directive the constructor already has isn't repeated
	expectLowered(t, es5, `class A { constructor() { "use strict"; foo(); } }`,
		`import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
var A = function A() {
    "use strict";
    _class_call_check(this, A);
    foo();
};
`)

	expectLowered(t, es5, `var B = class {}`,
		`import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
var B = function B() {
    "use strict";
    _class_call_check(this, B);
};
`)

	// The variable name would be shadowed by the constructor's own name
	expectLowered(t, es5, `var C = class { constructor() { C.count++; } }`,
		`import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
var C = function _class() {
    "use strict";
    _class_call_check(this, _class);
    C.count++;
};
`)
}

func TestLowerClassMethods(t *testing.T) {
	expectLowered(t, es5, `
class Render {
  constructor() {
    this.rectangles = [];
  }
  addRectangle(r) {
    this.rectangles.push(r);
  }
}
`, `import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
var Render = /*#__PURE__*/ function() {
    "use strict";
    function Render() {
        _class_call_check(this, Render);
        this.rectangles = [];
    }
    var _proto = Render.prototype;
    _proto.addRectangle = function addRectangle(r) {
        this.rectangles.push(r);
    };
    return Render;
}();
`)

	// A method isn't named after itself when that would shadow something
	expectLowered(t, es5, `class A { x() { return x; } static y() {} }`,
		`import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
var A = /*#__PURE__*/ function() {
    "use strict";
    function A() {
        _class_call_check(this, A);
    }
    var _proto = A.prototype;
    _proto.x = function() {
        return x;
    };
    A.y = function y() {};
    return A;
}();
`)
}

func TestLowerClassAccessors(t *testing.T) {
	expectLowered(t, es5, `
class C {
  get x() { return 1; }
  set x(v) {}
  static create() { return new C(); }
}
`, `import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
import _create_class from "@swc/helpers/src/_create_class.mjs";
var C = /*#__PURE__*/ function() {
    "use strict";
    function C() {
        _class_call_check(this, C);
    }
    C.create = function create() {
        return new C();
    };
    _create_class(C, [{
        key: "x",
        get: function get() {
            return 1;
        },
        set: function set(v) {}
    }]);
    return C;
}();
`)

	expectLowered(t, es5, `class D { static get y() { return 2; } }`,
		`import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
import _create_class from "@swc/helpers/src/_create_class.mjs";
var D = /*#__PURE__*/ function() {
    "use strict";
    function D() {
        _class_call_check(this, D);
    }
    _create_class(D, null, [{
        key: "y",
        get: function get() {
            return 2;
        }
    }]);
    return D;
}();
`)

	// A later accessor replaces an earlier method with the same key
	expectLowered(t, es5, `class E { x() {} get x() { return 3; } }`,
		`import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
import _create_class from "@swc/helpers/src/_create_class.mjs";
var E = /*#__PURE__*/ function() {
    "use strict";
    function E() {
        _class_call_check(this, E);
    }
    var _proto = E.prototype;
    _proto.x = function x() {};
    _create_class(E, [{
        key: "x",
        get: function get() {
            return 3;
        }
    }]);
    return E;
}();
`)
}

func TestLowerDerivedClass(t *testing.T) {
	expectLowered(t, es5, `
class B extends A {
  constructor(x) {
    super(x);
    this.y = 1;
  }
  m() {
    return super.m();
  }
}
`, `import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
import _inherits from "@swc/helpers/src/_inherits.mjs";
import _create_super from "@swc/helpers/src/_create_super.mjs";
var B = /*#__PURE__*/ function(A) {
    "use strict";
    function B(x) {
        _class_call_check(this, B);
        var _this;
        _this = _super.call(this, x);
        _this.y = 1;
        return _this;
    }
    _inherits(B, A);
    var _super = _create_super(B);
    var _proto = B.prototype;
    _proto.m = function m() {
        return A.prototype.m.call(this);
    };
    return B;
}(A);
`)

	expectLowered(t, es5, `class B extends A {}`,
		`import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
import _inherits from "@swc/helpers/src/_inherits.mjs";
import _create_super from "@swc/helpers/src/_create_super.mjs";
var B = /*#__PURE__*/ function(A) {
    "use strict";
    function B() {
        _class_call_check(this, B);
        return _super.apply(this, arguments);
    }
    _inherits(B, A);
    var _super = _create_super(B);
    return B;
}(A);
`)

	// A superclass that isn't a plain name gets a parameter name
	expectLowered(t, es5, `class B extends mixin(A) { constructor(...args) { super(...args); } }`,
		`import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
import _inherits from "@swc/helpers/src/_inherits.mjs";
import _create_super from "@swc/helpers/src/_create_super.mjs";
var B = /*#__PURE__*/ function(_superClass) {
    "use strict";
    function B(...args) {
        _class_call_check(this, B);
        var _this;
        _this = _super.apply(this, args);
        return _this;
    }
    _inherits(B, _superClass);
    var _super = _create_super(B);
    return B;
}(mixin(A));
`)

	// An explicit return value goes through "_possible_constructor_return"
	expectLowered(t, es5, `class B extends A { constructor() { super(); return {}; } }`,
		`import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
import _possible_constructor_return from "@swc/helpers/src/_possible_constructor_return.mjs";
import _inherits from "@swc/helpers/src/_inherits.mjs";
import _create_super from "@swc/helpers/src/_create_super.mjs";
var B = /*#__PURE__*/ function(A) {
    "use strict";
    function B() {
        _class_call_check(this, B);
        var _this;
        _this = _super.call(this);
        return _possible_constructor_return(_this, {});
    }
    _inherits(B, A);
    var _super = _create_super(B);
    return B;
}(A);
`)
}

func TestLowerDerivedConstructorNestedFunctions(t *testing.T) {
	// Nested functions have their own "this" and their own return values
	expectLowered(t, es5, `
class B extends A {
  constructor() {
    super();
    function helper() { return this; }
    function g() { var self = this; }
    this.h = helper;
  }
}
`, `import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
import _inherits from "@swc/helpers/src/_inherits.mjs";
import _create_super from "@swc/helpers/src/_create_super.mjs";
var B = /*#__PURE__*/ function(A) {
    "use strict";
    function B() {
        _class_call_check(this, B);
        var _this;
        _this = _super.call(this);
        function helper() {
            return this;
        }
        function g() {
            var self = this;
        }
        _this.h = helper;
        return _this;
    }
    _inherits(B, A);
    var _super = _create_super(B);
    return B;
}(A);
`)

	// Arrow functions share the constructor's "this"
	expectLowered(t, es5, `class B extends A { constructor() { super(); var f = () => this; } }`,
		`import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
import _inherits from "@swc/helpers/src/_inherits.mjs";
import _create_super from "@swc/helpers/src/_create_super.mjs";
var B = /*#__PURE__*/ function(A) {
    "use strict";
    function B() {
        _class_call_check(this, B);
        var _this;
        _this = _super.call(this);
        var f = () => _this;
        return _this;
    }
    _inherits(B, A);
    var _super = _create_super(B);
    return B;
}(A);
`)
}

func TestLowerClassFields(t *testing.T) {
	// Classes without fields or static blocks stay classes in ES2015
	expectLowered(t, es2015, `class A { m() {} }`, "class A {\n    m() {}\n}\n")

	// A class with a field is lowered as a whole, methods included
	expectLowered(t, es2015, `class A { x = 1; m() {} }`,
		`import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
var A = /*#__PURE__*/ function() {
    "use strict";
    function A() {
        _class_call_check(this, A);
        this.x = 1;
    }
    var _proto = A.prototype;
    _proto.m = function m() {};
    return A;
}();
`)

	// Classes themselves are supported in ES2015, but fields aren't
	expectLowered(t, es2015, `class P { a = 1; b; }`,
		`import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
var P = function P() {
    "use strict";
    _class_call_check(this, P);
    this.a = 1;
    this.b = void 0;
};
`)

	expectLowered(t, es2015, `
class A {
  x = 1;
  static y = 2;
  static {
    this.z = 3;
  }
}
`, `import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
var A = /*#__PURE__*/ function() {
    "use strict";
    function A() {
        _class_call_check(this, A);
        this.x = 1;
    }
    A.y = 2;
    (function() {
        this.z = 3;
    }).call(A);
    return A;
}();
`)

	// Fields are assigned right after "super()" returns
	expectLowered(t, es2015, `class B extends A { x = this.y; constructor() { super(); foo(); } }`,
		`import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
import _inherits from "@swc/helpers/src/_inherits.mjs";
import _create_super from "@swc/helpers/src/_create_super.mjs";
var B = /*#__PURE__*/ function(A) {
    "use strict";
    function B() {
        _class_call_check(this, B);
        var _this;
        _this = _super.call(this);
        _this.x = _this.y;
        foo();
        return _this;
    }
    _inherits(B, A);
    var _super = _create_super(B);
    return B;
}(A);
`)

	// Classes without fields or static blocks are left alone
	expectLowered(t, es2015, `class A { m() {} }`, "class A {\n    m() {}\n}\n")
}

func TestLowerComputedKeys(t *testing.T) {
	expectLowered(t, es5, `class K { [a()]() {} ["b"]() {} }`,
		`import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
var K = /*#__PURE__*/ function() {
    "use strict";
    var _key = a();
    function K() {
        _class_call_check(this, K);
    }
    var _proto = K.prototype;
    _proto[_key] = function() {};
    _proto.b = function b() {};
    return K;
}();
`)
}

func TestLowerNestedClass(t *testing.T) {
	expectLowered(t, es5, `class A { m() { return class B {}; } }`,
		`import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
var A = /*#__PURE__*/ function() {
    "use strict";
    function A() {
        _class_call_check(this, A);
    }
    var _proto = A.prototype;
    _proto.m = function m() {
        return function B() {
            "use strict";
            _class_call_check(this, B);
        };
    };
    return A;
}();
`)
}

func TestLowerHygiene(t *testing.T) {
	expectLowered(t, es5, `var _proto = 1; class R { m() {} }`,
		`import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
var _proto = 1;
var R = /*#__PURE__*/ function() {
    "use strict";
    function R() {
        _class_call_check(this, R);
    }
    var _proto2 = R.prototype;
    _proto2.m = function m() {};
    return R;
}();
`)

	expectLowered(t, es5, `var _class_call_check = 1; class R {}`,
		`import _class_call_check2 from "@swc/helpers/src/_class_call_check.mjs";
var _class_call_check = 1;
var R = function R() {
    "use strict";
    _class_call_check2(this, R);
};
`)

	// Each helper is imported once no matter how many classes use it
	expectLowered(t, es5, `class A {} class B {}`,
		`import _class_call_check from "@swc/helpers/src/_class_call_check.mjs";
var A = function A() {
    "use strict";
    _class_call_check(this, A);
};
var B = function B() {
    "use strict";
    _class_call_check(this, B);
};
`)
}

func TestLowerInlineHelpers(t *testing.T) {
	catalog, err := runtime.NewCatalog("pkg", []runtime.Helper{
		{Name: "class_call_check", Code: "function _class_call_check(a, b) {}"},
		{Name: "set_prototype_of", Code: "function _set_prototype_of(o, p) { return o; }"},
		{Name: "inherits", Deps: []string{"set_prototype_of"}, Code: "function _inherits(a, b) { _set_prototype_of(a, b); }"},
		{Name: "create_super", Code: "function _create_super(d) { return d; }"},
	})
	if err != nil {
		t.Fatal(err)
	}

	options := es5
	options.HelperMode = config.HelpersInline
	expectLoweredCommon(t, options, catalog, `var _set_prototype_of; class B extends A {}`,
		`function _class_call_check(a, b) {}
function _set_prototype_of2(o, p) {
    return o;
}
function _inherits(a, b) {
    _set_prototype_of2(a, b);
}
function _create_super(d) {
    return d;
}
var _set_prototype_of;
var B = /*#__PURE__*/ function(A) {
    "use strict";
    function B() {
        _class_call_check(this, B);
        return _super.apply(this, arguments);
    }
    _inherits(B, A);
    var _super = _create_super(B);
    return B;
}(A);
`)
}

func TestLowerObjectExtensions(t *testing.T) {
	expectLowered(t, es5, `var o = { a, b() { return 1; } };`,
		`var o = {
    a: a,
    b: function b() {
        return 1;
    }
};
`)

	expectLowered(t, es2015, `var o = { a, b() {} };`,
		`var o = {
    a,
    b() {}
};
`)
}

func TestLowerFunctionNames(t *testing.T) {
	expectLowered(t, es5, `var g = function(x) { return x; };`,
		`var g = function g(x) {
    return x;
};
`)

	// Naming this function would change what "h" refers to inside it
	expectLowered(t, es5, `var h = function() { return h; };`,
		`var h = function() {
    return h;
};
`)

	expectLowered(t, es2015, `var g = function() {};`, "var g = function() {};\n")
}

func TestLowerErrors(t *testing.T) {
	expectLowerError(t, es5, `class A { #x = 1; }`,
		"<stdin>: error: Lowering private class members is not supported\n")
	expectLowerError(t, es5, `class A { constructor() { new.target; } }`,
		"<stdin>: error: Lowering \"new.target\" in a class constructor is not supported\n")
	expectLowerError(t, es5, `class A { [this.x]() {} }`,
		"<stdin>: error: Lowering a computed class key that uses \"this\" is not supported\n")
	expectLowerError(t, es2015, `class A { y = x; constructor(x) {} }`,
		"<stdin>: error: Lowering a field initializer that references the constructor parameter \"x\" is not supported\n")
	expectLowerError(t, es5, `class B extends A { constructor() { var f = () => super(); super(); } }`,
		"<stdin>: error: Lowering \"super()\" outside of a top-level constructor statement is not supported\n")
	expectLowerError(t, es5, `class B extends A { m() { super.x = 1; } }`,
		"<stdin>: error: Lowering assignment to a \"super\" property is not supported\n")
	expectLowerError(t, es5, `var o = { m() { return super.m(); } };`,
		"<stdin>: error: Lowering \"super\" in an object method is not supported\n")
	expectLowerError(t, es5, `class A { get x() { return 1; } x() {} }`,
		"<stdin>: error: Lowering a method that replaces an earlier getter or setter is not supported\n")
	expectLowerError(t, es5, `class A { static set x(v) {} static x() {} }`,
		"<stdin>: error: Lowering a method that replaces an earlier getter or setter is not supported\n")
}

func TestLowerIsDeterministic(t *testing.T) {
	contents := `
import { Base } from "./base";
export class A extends Base { m() {} get x() { return 1; } }
export default class {}
`
	options := es5
	first, msgs := lowerForTest(t, options, runtime.DefaultCatalog(), contents)
	test.AssertEqualWithDiff(t, msgs, "")
	for i := 0; i < 5; i++ {
		again, msgs := lowerForTest(t, options, runtime.DefaultCatalog(), contents)
		test.AssertEqualWithDiff(t, msgs, "")
		test.AssertEqualWithDiff(t, again, first)
	}
}

func TestLowerIsIdempotent(t *testing.T) {
	options := es5
	options.ModuleFormat = config.FormatESModule
	once, msgs := lowerForTest(t, options, runtime.DefaultCatalog(), `export class A extends B { m() {} }`)
	test.AssertEqualWithDiff(t, msgs, "")
	twice, msgs := lowerForTest(t, options, runtime.DefaultCatalog(), once)
	test.AssertEqualWithDiff(t, msgs, "")
	test.AssertEqualWithDiff(t, twice, once)
}
