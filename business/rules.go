package business

import (
	"fmt"
	"reflect"

	"github.com/google/cel-go/cel"

	"github.com/fulldump/editdb/collection"
	"github.com/fulldump/editdb/utils"
)

// Rule is a validity rule written as a CEL boolean expression over the
// fields of the object data, e.g. `Title != "" && size(Title) <= 80`.
type Rule struct {
	Property   string
	Name       string
	Expression string
	Message    string
}

type compiledRule struct {
	Rule
	program cel.Program
}

// Rules is the compiled rule set of one data type. It is immutable and can
// be shared by every object of the type.
type Rules struct {
	rules []compiledRule
}

// NewRules compiles rules against the exported fields of S.
func NewRules[S any](rules ...Rule) (*Rules, error) {
	options := []cel.EnvOption{
		cel.CrossTypeNumericComparisons(true),
	}
	for _, name := range fieldNames(reflect.TypeFor[S]()) {
		options = append(options, cel.Variable(name, cel.DynType))
	}
	env, err := cel.NewEnv(options...)
	if err != nil {
		return nil, fmt.Errorf("rules env: %w", err)
	}

	result := &Rules{}
	for _, rule := range rules {
		ast, issues := env.Compile(rule.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("rule '%s': %w", rule.Name, issues.Err())
		}
		if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
			return nil, fmt.Errorf("rule '%s': expression returns %s, want bool", rule.Name, t)
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("rule '%s': %w", rule.Name, err)
		}
		result.rules = append(result.rules, compiledRule{Rule: rule, program: program})
	}
	return result, nil
}

func MustRules[S any](rules ...Rule) *Rules {
	r, err := NewRules[S](rules...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Rules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rules)
}

// Check evaluates every rule and returns the broken ones. A rule that fails
// to evaluate counts as broken.
func (r *Rules) Check(properties map[string]any) []collection.BrokenRule {
	broken := []collection.BrokenRule{}
	if r.Len() == 0 {
		return broken
	}

	activation := map[string]any{}
	err := utils.Remarshal(properties, &activation)
	if err != nil {
		for _, rule := range r.rules {
			broken = append(broken, rule.broken(err.Error()))
		}
		return broken
	}

	for _, rule := range r.rules {
		out, _, err := rule.program.Eval(activation)
		if err != nil {
			broken = append(broken, rule.broken(err.Error()))
			continue
		}
		if ok, _ := out.Value().(bool); !ok {
			broken = append(broken, rule.broken(rule.Message))
		}
	}
	return broken
}

func (r compiledRule) broken(message string) collection.BrokenRule {
	if message == "" {
		message = fmt.Sprintf("rule '%s' is broken", r.Name)
	}
	return collection.BrokenRule{
		Property: r.Property,
		Rule:     r.Name,
		Message:  message,
	}
}

func fieldNames(t reflect.Type) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	names := []string{}
	if t.Kind() != reflect.Struct {
		return names
	}
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		names = append(names, sf.Name)
	}
	return names
}
