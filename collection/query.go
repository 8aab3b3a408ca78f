package collection

import (
	"errors"
	"fmt"
	"slices"

	"github.com/SierraSoftworks/connor"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	"github.com/fulldump/editdb/utils"
)

var ErrInvalidQuery = errors.New("invalid query")

// WhereEqual returns the live items whose property equals rhs, in public
// order.
func (c *Collection[C]) WhereEqual(property string, rhs Expr) ([]C, error) {
	result, err := c.Indexes.WhereEqual(property, rhs)
	if err != nil {
		return nil, err
	}
	c.sortByPosition(result)
	return result, nil
}

// WhereRange returns the live items whose property is inside r, in public
// order.
func (c *Collection[C]) WhereRange(property string, r Range) []C {
	result := c.Indexes.WhereRange(property, r)
	c.sortByPosition(result)
	return result
}

func (c *Collection[C]) LoadIndex(property string) error {
	return c.Indexes.LoadIndex(property)
}

func (c *Collection[C]) ClearIndex(property string) error {
	return c.Indexes.ClearIndex(property)
}

func (c *Collection[C]) sortByPosition(items []C) {
	slices.SortFunc(items, func(a, b C) int {
		return c.IndexOf(a) - c.IndexOf(b)
	})
}

// Query runs a boolean expression over the live items. Comparisons of the
// form `Property == <expr>` whose right side only uses params are answered
// through WhereEqual; anything else is evaluated item by item with the
// item's properties and params in scope.
func (c *Collection[C]) Query(query string, params map[string]any) ([]C, error) {
	if params == nil {
		params = map[string]any{}
	}

	tree, err := parser.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, err.Error())
	}

	if property, rhs, ok := equalityOf(tree.Node, params); ok {
		return c.WhereEqual(property, rhs)
	}

	var sample any
	if len(c.items) > 0 {
		sample = c.items[0]
	}
	program, err := expr.Compile(query,
		expr.Env(queryEnv(sample, params)),
		expr.AsBool(),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, err.Error())
	}

	result := []C{}
	for _, item := range c.items {
		match, err := runPredicate(program, item, params)
		if err != nil {
			return nil, err
		}
		if match {
			result = append(result, item)
		}
	}
	return result, nil
}

// queryEnv puts the item properties and the params in scope. Declared names
// shadow the expr builtins (min, len, now...).
func queryEnv(item any, params map[string]any) map[string]any {
	properties := map[string]any{}
	if item != nil {
		properties = propertiesOf(item)
	}
	env := make(map[string]any, len(properties)+len(params))
	for k, v := range properties {
		env[k] = v
	}
	for k, v := range params {
		env[k] = v
	}
	return env
}

func runPredicate(program *vm.Program, item any, params map[string]any) (bool, error) {
	out, err := expr.Run(program, queryEnv(item, params))
	if err != nil {
		return false, fmt.Errorf("evaluate query: %w", err)
	}
	match, _ := out.(bool)
	return match, nil
}

// equalityOf recognizes `Identifier == rhs` (either side) where rhs only
// references params. Literal right sides become constants.
func equalityOf(node ast.Node, params map[string]any) (string, Expr, bool) {
	binary, ok := node.(*ast.BinaryNode)
	if !ok || binary.Operator != "==" {
		return "", Expr{}, false
	}

	try := func(left, right ast.Node) (string, Expr, bool) {
		identifier, ok := left.(*ast.IdentifierNode)
		if !ok {
			return "", Expr{}, false
		}
		if _, isParam := params[identifier.Value]; isParam {
			return "", Expr{}, false
		}

		names := identifiersOf(right)
		for _, name := range names {
			if _, isParam := params[name]; !isParam {
				return "", Expr{}, false
			}
		}

		program, err := expr.Compile(right.String(), expr.Env(params))
		if err != nil {
			return "", Expr{}, false
		}
		eval := func() (any, error) {
			return expr.Run(program, params)
		}
		if len(names) == 0 {
			value, err := eval()
			if err != nil {
				return "", Expr{}, false
			}
			return identifier.Value, Const(value), true
		}
		return identifier.Value, Eval(eval), true
	}

	if property, rhs, ok := try(binary.Left, binary.Right); ok {
		return property, rhs, true
	}
	return try(binary.Right, binary.Left)
}

type identifierCollector struct {
	names []string
}

func (v *identifierCollector) Visit(node *ast.Node) {
	if identifier, ok := (*node).(*ast.IdentifierNode); ok {
		v.names = append(v.names, identifier.Value)
	}
}

func identifiersOf(node ast.Node) []string {
	v := &identifierCollector{}
	ast.Walk(&node, v)
	return v.names
}

// Match returns the live items whose properties satisfy a connor filter,
// e.g. {"Status": {"$eq": "open"}}.
func (c *Collection[C]) Match(filter map[string]any) ([]C, error) {
	result := []C{}
	for _, item := range c.items {
		if len(filter) > 0 {
			data := map[string]any{}
			err := utils.Remarshal(propertiesOf(item), &data)
			if err != nil {
				return nil, fmt.Errorf("read properties: %w", err)
			}
			match, err := connor.Match(filter, data)
			if err != nil {
				return nil, fmt.Errorf("match: %w", err)
			}
			if !match {
				continue
			}
		}
		result = append(result, item)
	}
	return result, nil
}
