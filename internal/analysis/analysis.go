// Package analysis performs a lightweight static pass over submitted Go code.
// The result feeds the recommendation engine's construct-gap check.
package analysis

import (
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// CodeAnalysis summarises the syntax of one submission. NodeKinds holds the
// distinct AST node type names encountered during the walk (e.g. "ReturnStmt",
// "ForStmt"). A submission that fails to parse carries only ParseError.
type CodeAnalysis struct {
	NodeKinds  []string `json:"node_kinds"`
	HasReturn  bool     `json:"has_return"`
	HasLoop    bool     `json:"has_loop"`
	Imports    []string `json:"imports"`
	ParseError string   `json:"parse_error,omitempty"`
}

// HasNodeKind reports whether the walk encountered the given AST node kind.
func (a CodeAnalysis) HasNodeKind(kind string) bool {
	for _, k := range a.NodeKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Inspect parses source as a Go file and collects the node-kind set, loop and
// return presence, and imported package paths. Parse failures are recorded in
// the result rather than returned: a submission that does not parse is still
// a valid error event.
func Inspect(source string) CodeAnalysis {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "submission.go", source, 0)
	if err != nil {
		return CodeAnalysis{ParseError: err.Error()}
	}

	kinds := make(map[string]struct{})
	result := CodeAnalysis{}

	ast.Inspect(file, func(node ast.Node) bool {
		if node == nil {
			return false
		}

		kind := nodeKindName(node)
		kinds[kind] = struct{}{}

		switch n := node.(type) {
		case *ast.ReturnStmt:
			result.HasReturn = true
		case *ast.ForStmt, *ast.RangeStmt:
			result.HasLoop = true
		case *ast.ImportSpec:
			if path, err := strconv.Unquote(n.Path.Value); err == nil {
				result.Imports = append(result.Imports, path)
			}
		}

		return true
	})

	result.NodeKinds = make([]string, 0, len(kinds))
	for kind := range kinds {
		result.NodeKinds = append(result.NodeKinds, kind)
	}
	sort.Strings(result.NodeKinds)

	return result
}

func nodeKindName(node ast.Node) string {
	t := reflect.TypeOf(node)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// constructKinds maps the lesson-authoring vocabulary onto the AST node kinds
// produced by Inspect. The table is maintained here, next to the walker, so
// lesson authors never depend on syntax-tree internals.
var constructKinds = map[string][]string{
	"return": {"ReturnStmt"},
	"for":    {"ForStmt", "RangeStmt"},
	"loop":   {"ForStmt", "RangeStmt"},
	"while":  {"ForStmt"},
	"range":  {"RangeStmt"},
	"if":     {"IfStmt"},
	"switch": {"SwitchStmt", "TypeSwitchStmt"},
	"func":   {"FuncDecl", "FuncLit"},
	"import": {"ImportSpec"},
	"go":     {"GoStmt"},
	"defer":  {"DeferStmt"},
	"select": {"SelectStmt"},
}

// UsesConstruct reports whether the analysed code exercises the named
// construct. Unknown construct names are treated as absent.
func (a CodeAnalysis) UsesConstruct(construct string) bool {
	kinds, ok := constructKinds[strings.ToLower(strings.TrimSpace(construct))]
	if !ok {
		return false
	}
	for _, kind := range kinds {
		if a.HasNodeKind(kind) {
			return true
		}
	}
	return false
}
