package goja

import (
	"context"
	"fmt"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// InlineRequires generates new source code that replaces top-level
// require() statements with the code that those statements
// reference.
//
// The given source is a function body (it can "return"), so parsing
// happens on the wrapped source, and "top-level" means the top level
// of that function body.
//
// Inlining at compile time means an Executable with large libraries
// is still compiled only once.
func InlineRequires(ctx context.Context, src string, provider func(context.Context, string) (string, error)) (string, error) {
	if !strings.Contains(src, "require") {
		return src, nil
	}

	p, err := parser.ParseFile(nil, "", wrapSrc(src), 0)
	if err != nil {
		return "", err
	}

	body, ok := wrappedBody(p)
	if !ok {
		return src, nil
	}

	type required struct {
		from int
		to   int
		name string
	}

	var (
		offset   = len(wrapPrefix) + 1
		requires = make([]required, 0, 8)
	)

	for _, s := range body {
		exps, is := s.(*ast.ExpressionStatement)
		if !is {
			continue
		}

		call, is := exps.Expression.(*ast.CallExpression)
		if !is {
			continue
		}

		id, is := call.Callee.(*ast.Identifier)
		if !is || id.Name != "require" {
			continue
		}
		if len(call.ArgumentList) != 1 {
			return "", fmt.Errorf("bad require args: %#v", call.ArgumentList)
		}

		arg := call.ArgumentList[0]
		lit, is := arg.(*ast.StringLiteral)
		if !is {
			return "", fmt.Errorf("bad require arg: %#v", arg)
		}

		r := required{
			from: int(exps.Idx0()) - offset,
			to:   int(exps.Idx1()) - offset,
			name: lit.Value.String(),
		}
		if r.to < len(src) && src[r.to] == ';' {
			r.to++
		}
		requires = append(requires, r)
	}

	if len(requires) == 0 {
		return src, nil
	}

	var (
		acc  strings.Builder
		last int
	)
	for _, r := range requires {
		lib, err := provider(ctx, r.name)
		if err != nil {
			return "", err
		}
		acc.WriteString(src[last:r.from])
		acc.WriteString(lib)
		acc.WriteString("\n")
		last = r.to
	}
	acc.WriteString(src[last:])

	return acc.String(), nil
}

// wrappedBody finds the statements of the function that wrapSrc
// made.
func wrappedBody(p *ast.Program) ([]ast.Statement, bool) {
	if len(p.Body) != 1 {
		return nil, false
	}
	exps, is := p.Body[0].(*ast.ExpressionStatement)
	if !is {
		return nil, false
	}
	call, is := exps.Expression.(*ast.CallExpression)
	if !is {
		return nil, false
	}
	f, is := call.Callee.(*ast.FunctionLiteral)
	if !is || f.Body == nil {
		return nil, false
	}
	return f.Body.List, true
}
