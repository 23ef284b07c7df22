package runtime

// This is the helper library that lowered code calls into. Each helper is a
// single function declaration named "_" + the helper name, so it can either
// be imported from the runtime package or pasted at the top of a file. Helper
// code is ES5 and only refers to other helpers by their canonical names.

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lowerjs/lowerjs/internal/config"
	"github.com/lowerjs/lowerjs/internal/js_ast"
	"github.com/lowerjs/lowerjs/internal/js_parser"
	"github.com/lowerjs/lowerjs/internal/logger"
)

type Helper struct {
	Name string

	// Other helpers this helper calls. An inlined helper brings these along.
	Deps []string

	Code string
}

var Helpers = []Helper{
	{
		Name: "class_call_check",
		Code: `
			function _class_call_check(instance, Constructor) {
				if (!(instance instanceof Constructor)) {
					throw new TypeError("Cannot call a class as a function");
				}
			}
		`,
	},
	{
		Name: "create_class",
		Code: `
			function _create_class(Constructor, protoProps, staticProps) {
				var define = function(target, props) {
					for (var i = 0; i < props.length; i++) {
						var descriptor = props[i];
						descriptor.enumerable = descriptor.enumerable || false;
						descriptor.configurable = true;
						if ("value" in descriptor) descriptor.writable = true;
						Object.defineProperty(target, descriptor.key, descriptor);
					}
				};
				if (protoProps) define(Constructor.prototype, protoProps);
				if (staticProps) define(Constructor, staticProps);
				return Constructor;
			}
		`,
	},
	{
		Name: "set_prototype_of",
		Code: `
			function _set_prototype_of(o, p) {
				_set_prototype_of = Object.setPrototypeOf || function setPrototypeOf(o, p) {
					o.__proto__ = p;
					return o;
				};
				return _set_prototype_of(o, p);
			}
		`,
	},
	{
		Name: "get_prototype_of",
		Code: `
			function _get_prototype_of(o) {
				_get_prototype_of = Object.setPrototypeOf ? Object.getPrototypeOf : function getPrototypeOf(o) {
					return o.__proto__ || Object.getPrototypeOf(o);
				};
				return _get_prototype_of(o);
			}
		`,
	},
	{
		Name: "inherits",
		Deps: []string{"set_prototype_of"},
		Code: `
			function _inherits(subClass, superClass) {
				if (typeof superClass !== "function" && superClass !== null) {
					throw new TypeError("Super expression must either be null or a function");
				}
				subClass.prototype = Object.create(superClass && superClass.prototype, {
					constructor: {
						value: subClass,
						writable: true,
						configurable: true
					}
				});
				if (superClass) _set_prototype_of(subClass, superClass);
			}
		`,
	},
	{
		Name: "is_native_reflect_construct",
		Code: `
			function _is_native_reflect_construct() {
				if (typeof Reflect === "undefined" || !Reflect.construct) return false;
				if (Reflect.construct.sham) return false;
				if (typeof Proxy === "function") return true;
				try {
					Boolean.prototype.valueOf.call(Reflect.construct(Boolean, [], function() {}));
					return true;
				} catch (e) {
					return false;
				}
			}
		`,
	},
	{
		Name: "assert_this_initialized",
		Code: `
			function _assert_this_initialized(self) {
				if (self === void 0) {
					throw new ReferenceError("this hasn't been initialised - super() hasn't been called");
				}
				return self;
			}
		`,
	},
	{
		Name: "type_of",
		Code: `
			function _type_of(obj) {
				return obj && typeof Symbol !== "undefined" && obj.constructor === Symbol ? "symbol" : typeof obj;
			}
		`,
	},
	{
		Name: "possible_constructor_return",
		Deps: []string{"type_of", "assert_this_initialized"},
		Code: `
			function _possible_constructor_return(self, call) {
				if (call && (_type_of(call) === "object" || typeof call === "function")) {
					return call;
				}
				return _assert_this_initialized(self);
			}
		`,
	},
	{
		Name: "create_super",
		Deps: []string{"is_native_reflect_construct", "get_prototype_of", "possible_constructor_return"},
		Code: `
			function _create_super(Derived) {
				var hasNativeReflectConstruct = _is_native_reflect_construct();
				return function _createSuperInternal() {
					var Super = _get_prototype_of(Derived), result;
					if (hasNativeReflectConstruct) {
						var NewTarget = _get_prototype_of(this).constructor;
						result = Reflect.construct(Super, arguments, NewTarget);
					} else {
						result = Super.apply(this, arguments);
					}
					return _possible_constructor_return(this, result);
				};
			}
		`,
	},
	{
		Name: "interop_require_default",
		Code: `
			function _interop_require_default(obj) {
				return obj && obj.__esModule ? obj : {
					default: obj
				};
			}
		`,
	},
	{
		Name: "interop_require_wildcard",
		Code: `
			function _interop_require_wildcard(obj) {
				if (obj && obj.__esModule) {
					return obj;
				}
				if (obj === null || typeof obj !== "object" && typeof obj !== "function") {
					return {
						default: obj
					};
				}
				var newObj = {};
				for (var key in obj) {
					if (key !== "default" && Object.prototype.hasOwnProperty.call(obj, key)) {
						var desc = Object.getOwnPropertyDescriptor(obj, key);
						if (desc && (desc.get || desc.set)) {
							Object.defineProperty(newObj, key, desc);
						} else {
							newObj[key] = obj[key];
						}
					}
				}
				newObj.default = obj;
				return newObj;
			}
		`,
	},
	{
		Name: "export_star",
		Code: `
			function _export_star(from, to) {
				Object.keys(from).forEach(function(k) {
					if (k !== "default" && !Object.prototype.hasOwnProperty.call(to, k)) {
						Object.defineProperty(to, k, {
							enumerable: true,
							get: function() {
								return from[k];
							}
						});
					}
				});
				return from;
			}
		`,
	},
}

type entry struct {
	helper Helper
	fn     js_ast.Fn
}

// A Catalog is immutable once built, so one catalog can be shared by every
// goroutine that lowers files.
type Catalog struct {
	runtimePackage string
	entries        map[string]*entry
	names          []string
}

func NewCatalog(runtimePackage string, helpers []Helper) (*Catalog, error) {
	c := &Catalog{
		runtimePackage: runtimePackage,
		entries:        make(map[string]*entry, len(helpers)),
	}

	for _, helper := range helpers {
		if _, ok := c.entries[helper.Name]; ok {
			return nil, fmt.Errorf("Duplicate helper %q", helper.Name)
		}
		fn, err := parseHelper(helper)
		if err != nil {
			return nil, err
		}
		c.entries[helper.Name] = &entry{helper: helper, fn: fn}
		c.names = append(c.names, helper.Name)
	}

	for _, name := range c.names {
		for _, dep := range c.entries[name].helper.Deps {
			if _, ok := c.entries[dep]; !ok {
				return nil, fmt.Errorf("Helper %q depends on unknown helper %q", name, dep)
			}
		}
	}
	if err := c.checkForCycles(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseHelper(helper Helper) (js_ast.Fn, error) {
	log := logger.NewDeferLog()
	source := logger.Source{
		PrettyPath:     "<runtime>/_" + helper.Name,
		IdentifierName: helper.Name,
		Contents:       helper.Code,
	}
	tree, ok := js_parser.Parse(log, source)
	if !ok {
		var sb strings.Builder
		for _, msg := range log.Done() {
			sb.WriteString(msg.String(logger.StderrOptions{}, logger.TerminalInfo{}))
		}
		return js_ast.Fn{}, fmt.Errorf("Failed to parse helper %q:\n%s", helper.Name, sb.String())
	}

	if len(tree.Stmts) == 1 {
		if s, ok := tree.Stmts[0].Data.(*js_ast.SFunction); ok && s.Fn.Name != nil && s.Fn.Name.Name == "_"+helper.Name {
			return s.Fn, nil
		}
	}
	return js_ast.Fn{}, fmt.Errorf("Helper %q must be a single function named \"_%s\"", helper.Name, helper.Name)
}

func (c *Catalog) checkForCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(c.names))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("Helper dependency cycle: %s", strings.Join(append(path, name), " -> "))
		case done:
			return nil
		}
		state[name] = visiting
		for _, dep := range c.entries[name].helper.Deps {
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	for _, name := range c.names {
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

var defaultCatalog *Catalog
var defaultCatalogOnce sync.Once

// The built-in helpers, importing from "@swc/helpers"
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		catalog, err := NewCatalog(config.DefaultRuntimePackage, Helpers)
		if err != nil {
			panic("Internal error: " + err.Error())
		}
		defaultCatalog = catalog
	})
	return defaultCatalog
}

// Returns a catalog with the same helpers whose import paths point into a
// different package
func (c *Catalog) WithRuntimePackage(runtimePackage string) *Catalog {
	if runtimePackage == "" || runtimePackage == c.runtimePackage {
		return c
	}
	clone := *c
	clone.runtimePackage = runtimePackage
	return &clone
}

func (c *Catalog) RuntimePackage() string {
	return c.runtimePackage
}

func (c *Catalog) Lookup(name string) (Helper, bool) {
	if e, ok := c.entries[name]; ok {
		return e.helper, true
	}
	return Helper{}, false
}

func (c *Catalog) ImportPath(name string) (string, bool) {
	if _, ok := c.entries[name]; !ok {
		return "", false
	}
	return fmt.Sprintf("%s/src/_%s.mjs", c.runtimePackage, name), true
}

// The returned function is shared. Callers must treat it as read-only.
func (c *Catalog) Definition(name string) (fn js_ast.Fn, deps []string, ok bool) {
	e, ok := c.entries[name]
	if !ok {
		return js_ast.Fn{}, nil, false
	}
	return e.fn, e.helper.Deps, true
}

// Helper names in catalog order
func (c *Catalog) Names() []string {
	return append([]string{}, c.names...)
}

// Helper names in alphabetical order
func (c *Catalog) SortedNames() []string {
	names := c.Names()
	sort.Strings(names)
	return names
}
