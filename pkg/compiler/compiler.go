// Package compiler lowers parsed source items into a flat program of
// machine commands and deferred macros.
//
// Compilation is single pass. Defines and function definitions take
// effect from the point they appear; calls inline the function body at
// the call site, so the output contains commands only.
package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"gomc/pkg/macros"
	"gomc/pkg/parser"
	"gomc/pkg/source"
	"gomc/pkg/vm"
)

// DefaultMaxDepth bounds function inlining. A call chain that reaches it
// is almost certainly a function calling itself.
const DefaultMaxDepth = 64

type function struct {
	decl   parser.Ident
	params []parser.Ident
	body   []parser.Stmt
}

// Compiler accumulates state across every unit of one compilation. Later
// units see the defines and functions of earlier ones.
type Compiler struct {
	// BaseDir anchors relative include paths. CompileFile sets it to the
	// file's directory when it is still empty.
	BaseDir string
	// MaxDepth bounds function inlining; zero means DefaultMaxDepth.
	MaxDepth int

	units     *source.Registry
	defines   map[string]vm.Value
	args      map[string]vm.Value
	functions map[string]*function
	prog      Program
	depth     int
}

// New returns an empty compiler.
func New() *Compiler {
	return &Compiler{
		units:     source.NewRegistry(),
		defines:   make(map[string]vm.Value),
		args:      make(map[string]vm.Value),
		functions: make(map[string]*function),
	}
}

// Units exposes the registry of compiled sources for error rendering.
func (c *Compiler) Units() *source.Registry { return c.units }

// Program returns everything compiled so far.
func (c *Compiler) Program() Program { return c.prog }

// CompileFile reads and compiles one file. The unit name recorded for
// diagnostics is the path as given.
func (c *Compiler) CompileFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if c.BaseDir == "" {
		c.BaseDir = filepath.Dir(path)
	}
	return c.CompileUnit(path, string(data))
}

// CompileUnit parses and compiles one named source text.
func (c *Compiler) CompileUnit(name, src string) error {
	c.units.Register(name, src)
	items, err := parser.Parse(name, src)
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := c.compileItem(it); err != nil {
			return err
		}
	}
	return nil
}

// IncludeUnit satisfies macros.Compiler. Relative names resolve against
// BaseDir. Inclusion is textual: including a unit twice compiles it
// twice, and its function definitions will collide.
func (c *Compiler) IncludeUnit(name string, site parser.Ident) error {
	path := name
	if !filepath.IsAbs(path) && c.BaseDir != "" {
		path = filepath.Join(c.BaseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return source.Errorf(site.Unit, site.Span, "cannot include %s: %v", name, err)
	}
	return c.CompileUnit(name, string(data))
}

func (c *Compiler) compileItem(it parser.Item) error {
	switch it := it.(type) {
	case *parser.Define:
		return c.compileDefine(it)
	case *parser.Function:
		return c.compileFunction(it)
	case *parser.Calling:
		return c.compileCalling(it)
	case *parser.MacroCall:
		return c.compileMacro(it)
	}
	return fmt.Errorf("compiler: unknown item %T", it)
}

// compileDefine resolves the right-hand side immediately, so a define can
// alias a literal, an earlier define, or the argument currently in scope.
// Redefining a name replaces the old value from here on.
func (c *Compiler) compileDefine(def *parser.Define) error {
	v, err := c.resolve(def.Value)
	if err != nil {
		return err
	}
	c.defines[def.Name.Literal] = v
	return nil
}

func (c *Compiler) compileFunction(fn *parser.Function) error {
	if old, ok := c.functions[fn.Name.Literal]; ok {
		err := source.Errorf(fn.Name.Unit, fn.Name.Span, "function %s already exists", fn.Name)
		return err.Append(old.decl.Unit, old.decl.Span, "previously defined here")
	}
	c.functions[fn.Name.Literal] = &function{decl: fn.Name, params: fn.Params, body: fn.Body}
	return nil
}

// compileCalling emits a command for a mnemonic, or inlines the named
// function. Mnemonics win: a function cannot shadow SET.
func (c *Compiler) compileCalling(call *parser.Calling) error {
	if op, ok := vm.ParseOp(call.Called.Literal); ok {
		return c.compileInstruction(op, call)
	}
	if fn, ok := c.functions[call.Called.Literal]; ok {
		return c.compileCall(fn, call)
	}
	return source.Errorf(call.Called.Unit, call.Called.Span, "undefined function %s", call.Called)
}

func (c *Compiler) compileInstruction(op vm.Op, call *parser.Calling) error {
	if len(call.Args) != 2 {
		return c.arityError(call, 2)
	}
	a, err := c.resolve(call.Args[0])
	if err != nil {
		return err
	}
	b, err := c.resolve(call.Args[1])
	if err != nil {
		return err
	}
	c.prog = append(c.prog, CmdEntry{Cmd: vm.Command{Op: op, A: a, B: b}})
	return nil
}

// compileCall inlines fn at the call site. Actuals resolve in the
// caller's environment before any formal is bound; formals that shadow
// existing arguments are saved and restored afterwards, so sibling calls
// cannot leak bindings into each other.
func (c *Compiler) compileCall(fn *function, call *parser.Calling) error {
	if len(call.Args) != len(fn.params) {
		return c.arityError(call, len(fn.params))
	}
	limit := c.MaxDepth
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	if c.depth >= limit {
		return source.Errorf(call.Called.Unit, call.Called.Span,
			"recursion limit exceeded inlining %s", call.Called)
	}

	vals := make([]vm.Value, len(call.Args))
	for i, arg := range call.Args {
		v, err := c.resolve(arg)
		if err != nil {
			return err
		}
		vals[i] = v
	}

	type binding struct {
		name string
		val  vm.Value
		had  bool
	}
	var restore []binding
	seen := make(map[string]bool, len(fn.params))
	for i, p := range fn.params {
		if !seen[p.Literal] {
			seen[p.Literal] = true
			old, had := c.args[p.Literal]
			restore = append(restore, binding{name: p.Literal, val: old, had: had})
		}
		c.args[p.Literal] = vals[i]
	}

	c.depth++
	err := c.compileBody(fn.body)
	c.depth--

	for i := len(restore) - 1; i >= 0; i-- {
		b := restore[i]
		if b.had {
			c.args[b.name] = b.val
		} else {
			delete(c.args, b.name)
		}
	}
	return err
}

func (c *Compiler) compileBody(body []parser.Stmt) error {
	for _, st := range body {
		var err error
		switch st := st.(type) {
		case *parser.Calling:
			err = c.compileCalling(st)
		case *parser.MacroCall:
			err = c.compileMacro(st)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// compileMacro runs a preprocessing macro now, or captures a deferred one
// as a program entry. Deferred arguments resolve best effort: an
// identifier with no value here is carried with its name only.
func (c *Compiler) compileMacro(mc *parser.MacroCall) error {
	mac, ok := macros.Lookup(mc.Called.Literal)
	if !ok {
		return source.Errorf(mc.Called.Unit, mc.Called.Span, "undefined macro %s", mc.Called)
	}
	if mac.Preprocess != nil {
		return mac.Preprocess(c, mc.Args)
	}
	metas := make([]macros.Meta, len(mc.Args))
	for i, arg := range mc.Args {
		metas[i] = macros.Meta{ID: arg}
		if v, err := c.resolve(arg); err == nil {
			val := v
			metas[i].Val = &val
		}
	}
	c.prog = append(c.prog, MacroEntry{Name: mc.Called.Literal, Run: mac.Deferred, Metas: metas})
	return nil
}

// resolve maps an identifier to its value: inlining arguments first, then
// defines, then numeric literals.
func (c *Compiler) resolve(id parser.Ident) (vm.Value, error) {
	if v, ok := c.args[id.Literal]; ok {
		return v, nil
	}
	if v, ok := c.defines[id.Literal]; ok {
		return v, nil
	}
	v, err := vm.ParseValue(id.Literal)
	if err != nil {
		return 0, source.Errorf(id.Unit, id.Span, "unresolved identifier %s: %v", id, err)
	}
	return v, nil
}

func (c *Compiler) arityError(call *parser.Calling, want int) error {
	span := call.Called.Span
	if len(call.Args) > 0 {
		span = call.Args[0].Span.Union(call.Args[len(call.Args)-1].Span)
	}
	return source.Errorf(call.Called.Unit, span,
		"%s takes %d arguments, got %d", call.Called, want, len(call.Args))
}
