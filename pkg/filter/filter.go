// Package filter implements WHERE-clause evaluation: per-expression
// comparisons composed with AND/OR/NOT, reduced with AND binding tighter
// than OR and NOT inverting its own comparator. Grounded directly on the
// original engine's Filters.hpp/Filters.cpp Filters::matches algorithm.
package filter

import (
	"fmt"

	"github.com/blockql/blockql/pkg/dbtype"
	"github.com/blockql/blockql/pkg/row"
)

// Operator is a WHERE-clause comparison operator.
type Operator int

const (
	Equal Operator = iota
	NotEqual
	LessThan
	LessOrEqual
	GreaterThan
	GreaterOrEqual
)

// Opposite returns the operator that results from negating this one with
// NOT, the Go analogue of Helpers::oppositeOpOf: lt<->gte, gt<->lte,
// eq<->neq.
func (o Operator) Opposite() Operator {
	switch o {
	case Equal:
		return NotEqual
	case NotEqual:
		return Equal
	case LessThan:
		return GreaterOrEqual
	case GreaterOrEqual:
		return LessThan
	case GreaterThan:
		return LessOrEqual
	case LessOrEqual:
		return GreaterThan
	default:
		return o
	}
}

func (o Operator) apply(cmp int) bool {
	switch o {
	case Equal:
		return cmp == 0
	case NotEqual:
		return cmp != 0
	case LessThan:
		return cmp < 0
	case LessOrEqual:
		return cmp <= 0
	case GreaterThan:
		return cmp > 0
	case GreaterOrEqual:
		return cmp >= 0
	default:
		return false
	}
}

// LogicOp is the logical connective attached ahead of an Expression.
type LogicOp int

const (
	NoLogic LogicOp = iota
	And
	Or
)

// Operand is either a literal value or a reference to a column by name.
type Operand struct {
	Column   string
	Literal  dbtype.Value
	IsColumn bool
}

func Lit(v dbtype.Value) Operand { return Operand{Literal: v} }
func Col(name string) Operand    { return Operand{Column: name, IsColumn: true} }

func (o Operand) resolve(r *row.Row) dbtype.Value {
	return o.Resolve(r)
}

// Resolve returns the operand's value: the literal, or the named column's
// value looked up in r.
func (o Operand) Resolve(r *row.Row) dbtype.Value {
	if o.IsColumn {
		return r.Get(o.Column)
	}
	return o.Literal
}

// Expression is one comparison, optionally inverted an odd number of times
// by leading NOTs (NotCount tracks how many NOTs prefix it; the original
// engine inverts the comparator when that count is odd).
type Expression struct {
	LHS      Operand
	Op       Operator
	RHS      Operand
	NotCount int
}

// effectiveOp returns Op, inverted if NotCount is odd.
func (e Expression) effectiveOp() Operator {
	if e.NotCount%2 == 1 {
		return e.Op.Opposite()
	}
	return e.Op
}

// Eval evaluates this expression against a single row.
func (e Expression) Eval(r *row.Row) bool {
	lhs := e.LHS.resolve(r)
	rhs := e.RHS.resolve(r)
	return e.effectiveOp().apply(dbtype.Compare(lhs, rhs))
}

// EvalJoin evaluates this expression against a pair of rows from a join's
// two sides, resolving column operands against whichever side has that
// column (left is tried first).
func (e Expression) EvalJoin(left, right *row.Row) bool {
	resolve := func(o Operand) dbtype.Value {
		if !o.IsColumn {
			return o.Literal
		}
		if v, ok := left.Values[o.Column]; ok {
			return v
		}
		return right.Get(o.Column)
	}
	return e.effectiveOp().apply(dbtype.Compare(resolve(e.LHS), resolve(e.RHS)))
}

// Filters is an ordered list of expressions joined by logical operators:
// LogicOps[i] joins Expressions[i] to Expressions[i+1], so
// len(LogicOps) == len(Expressions)-1.
type Filters struct {
	Expressions []Expression
	LogicOps    []LogicOp
}

// Matches evaluates the whole filter chain against row r, applying AND
// before OR exactly as Filters::matches does: first collapse every AND
// pair, left to right, then collapse every OR pair, left to right.
func (f Filters) Matches(r *row.Row) (bool, error) {
	results := make([]bool, len(f.Expressions))
	for i, e := range f.Expressions {
		results[i] = e.Eval(r)
	}
	return reduce(results, f.LogicOps)
}

// MatchesJoin is the two-row overload used while evaluating a join
// condition, resolving column operands against whichever side of the join
// carries them.
func (f Filters) MatchesJoin(left, right *row.Row) (bool, error) {
	results := make([]bool, len(f.Expressions))
	for i, e := range f.Expressions {
		results[i] = e.EvalJoin(left, right)
	}
	return reduce(results, f.LogicOps)
}

// reduce implements the AND-then-OR left-to-right collapse: ops[i] joins
// vals[i] and vals[i+1]. First every AND pair collapses, left to right,
// then every remaining OR pair does.
func reduce(results []bool, logicOps []LogicOp) (bool, error) {
	if len(results) == 0 {
		return true, nil
	}
	if len(logicOps) != len(results)-1 {
		return false, fmt.Errorf("filter: %d expressions need %d connectives, got %d", len(results), len(results)-1, len(logicOps))
	}
	vals := append([]bool(nil), results...)
	ops := append([]LogicOp(nil), logicOps...)

	collapse := func(op LogicOp, combine func(a, b bool) bool) {
		for i := 0; i < len(ops); {
			if ops[i] == op {
				vals[i] = combine(vals[i], vals[i+1])
				vals = append(vals[:i+1], vals[i+2:]...)
				ops = append(ops[:i], ops[i+1:]...)
				continue
			}
			i++
		}
	}
	collapse(And, func(a, b bool) bool { return a && b })
	collapse(Or, func(a, b bool) bool { return a || b })

	if len(vals) != 1 {
		return false, fmt.Errorf("filter: could not fully reduce expression chain (%d results remain)", len(vals))
	}
	return vals[0], nil
}
