package queryopts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/expandql/internal/expr"
	"github.com/roach88/expandql/internal/testutil"
	"github.com/roach88/expandql/internal/typeinfo"
)

var customerType = typeinfo.For[testutil.Customer]()

func it() *RangeVariableNode {
	return &RangeVariableNode{Name: ImplicitRangeVariable}
}

func prop(source Node, name string) *SingleValuePropertyAccessNode {
	return &SingleValuePropertyAccessNode{Source: source, Property: name}
}

func TestApplyTo(t *testing.T) {
	tests := []struct {
		name   string
		clause *FilterClause
		want   string
	}{
		{
			name: "comparison",
			clause: &FilterClause{Expression: &BinaryOperatorNode{
				Op:    Eq,
				Left:  prop(it(), "City"),
				Right: &ConstantNode{Value: "London"},
			}},
			want: `$it => ($it.City == "London")`,
		},
		{
			name: "navigation",
			clause: &FilterClause{Expression: &BinaryOperatorNode{
				Op:    Eq,
				Left:  prop(&SingleNavigationNode{Source: it(), NavigationProperty: "Address"}, "Zip"),
				Right: &ConstantNode{Value: "N1"},
			}},
			want: `$it => ($it.Address.Zip == "N1")`,
		},
		{
			name: "logical and count",
			clause: &FilterClause{Expression: &BinaryOperatorNode{
				Op: And,
				Left: &BinaryOperatorNode{
					Op:    Gt,
					Left:  &CountNode{Source: &CollectionNavigationNode{Source: it(), NavigationProperty: "Orders"}},
					Right: &ConstantNode{Value: 1},
				},
				Right: &UnaryOperatorNode{Op: Not, Operand: &BinaryOperatorNode{
					Op:    Eq,
					Left:  prop(it(), "Name"),
					Right: &ConstantNode{Value: "Alan"},
				}},
			}},
			want: `$it => (($it.Orders.Count() > 1) && !($it.Name == "Alan"))`,
		},
		{
			name: "any with range variable",
			clause: &FilterClause{Expression: &AnyNode{
				Source:        &CollectionNavigationNode{Source: it(), NavigationProperty: "Orders"},
				RangeVariable: "o",
				Body: &BinaryOperatorNode{
					Op:    Ge,
					Left:  prop(&RangeVariableNode{Name: "o"}, "Total"),
					Right: &ConstantNode{Value: 50.0},
				},
			}},
			want: `$it => $it.Orders.Any(o => (o.Total >= 50))`,
		},
		{
			name: "any without predicate",
			clause: &FilterClause{Expression: &AnyNode{
				Source: &CollectionNavigationNode{Source: it(), NavigationProperty: "Orders"},
			}},
			want: `$it => $it.Orders.Any()`,
		},
		{
			name: "custom range variable",
			clause: &FilterClause{
				RangeVariable: "c",
				Expression: &BinaryOperatorNode{
					Op:    Lt,
					Left:  prop(&RangeVariableNode{Name: "c"}, "Id"),
					Right: &ConstantNode{Value: 3},
				},
			},
			want: `c => (c.Id < 3)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.clause.ApplyTo(expr.Empty(customerType), customerType)
			require.NoError(t, err)

			call, ok := got.(*expr.Call)
			require.True(t, ok)
			assert.Equal(t, expr.Where, call.Method)
			require.Len(t, call.Args, 2)
			require.IsType(t, &expr.Quote{}, call.Args[1])

			lambda, ok := call.LambdaArg(1)
			require.True(t, ok)
			assert.Equal(t, tt.want, lambda.String())
			assert.Equal(t, "bool", lambda.Result.Name())
		})
	}
}

func TestApplyTo_Errors(t *testing.T) {
	tests := []struct {
		name   string
		clause *FilterClause
		source expr.Expr
	}{
		{
			name:   "unknown member",
			clause: &FilterClause{Expression: &BinaryOperatorNode{Op: Eq, Left: prop(it(), "Nope"), Right: &ConstantNode{Value: 1}}},
		},
		{
			name:   "unbound variable",
			clause: &FilterClause{Expression: &BinaryOperatorNode{Op: Eq, Left: prop(&RangeVariableNode{Name: "x"}, "Id"), Right: &ConstantNode{Value: 1}}},
		},
		{
			name:   "not boolean",
			clause: &FilterClause{Expression: prop(it(), "Name")},
		},
		{
			name:   "logical operand not boolean",
			clause: &FilterClause{Expression: &BinaryOperatorNode{Op: Or, Left: prop(it(), "Name"), Right: &ConstantNode{Value: true}}},
		},
		{
			name:   "member of collection",
			clause: &FilterClause{Expression: &BinaryOperatorNode{Op: Eq, Left: prop(&CollectionNavigationNode{Source: it(), NavigationProperty: "Orders"}, "Id"), Right: &ConstantNode{Value: 1}}},
		},
		{
			name:   "nil source chain",
			clause: &FilterClause{Expression: &BinaryOperatorNode{Op: Eq, Left: prop(nil, "Id"), Right: &ConstantNode{Value: 1}}},
		},
		{
			name:   "element type mismatch",
			clause: &FilterClause{Expression: &ConstantNode{Value: true}},
			source: expr.Empty(typeinfo.For[testutil.Order]()),
		},
		{
			name:   "empty clause",
			clause: &FilterClause{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := tt.source
			if source == nil {
				source = expr.Empty(customerType)
			}
			_, err := tt.clause.ApplyTo(source, customerType)
			require.Error(t, err)
			assert.True(t, IsBindError(err), "want BindError, got %v", err)
		})
	}
}

func TestOrderByClause_Len(t *testing.T) {
	var none *OrderByClause
	assert.Equal(t, 0, none.Len())

	chain := &OrderByClause{ThenBy: &OrderByClause{ThenBy: &OrderByClause{}}}
	assert.Equal(t, 3, chain.Len())
}

func TestParseBinaryOperator(t *testing.T) {
	for _, op := range []BinaryOperator{Eq, Ne, Gt, Ge, Lt, Le, And, Or} {
		got, ok := ParseBinaryOperator(op.String())
		require.True(t, ok, op.String())
		assert.Equal(t, op, got)
	}
	_, ok := ParseBinaryOperator("xor")
	assert.False(t, ok)
}
