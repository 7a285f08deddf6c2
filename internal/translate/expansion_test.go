package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/expandql/internal/queryopts"
	"github.com/roach88/expandql/internal/typeinfo"
)

func forestPaths(f ExpansionForest) []string {
	out := make([]string, len(f))
	for i, p := range f {
		out[i] = p.String()
	}
	return out
}

func TestBuildExpansions_Nil(t *testing.T) {
	f, err := BuildExpansions(nil, customerType)
	require.NoError(t, err)
	assert.Empty(t, f)
	assert.Nil(t, Selects(nil))
}

func TestBuildExpansions_SingleLevel(t *testing.T) {
	f, err := BuildExpansions(clause(expand("Orders")), customerType)
	require.NoError(t, err)
	require.Len(t, f, 1)
	require.Len(t, f[0], 1)

	n := f[0][0]
	assert.Equal(t, "Orders", n.MemberName)
	assert.True(t, n.IsCollection())
	assert.True(t, typeinfo.Same(customerType, n.ParentType))
	assert.True(t, typeinfo.Same(orderType, n.ElementType()))
	assert.Empty(t, n.Selects)
	assert.Nil(t, n.Filter)
	assert.Nil(t, n.OrderPage)
}

func TestBuildExpansions_Nested(t *testing.T) {
	c := clause(
		expand("Orders",
			expand("Lines", expand("Product")),
			expand("Shipments"),
		),
		expand("Address"),
	)

	f, err := BuildExpansions(c, customerType)
	require.NoError(t, err)
	assert.Equal(t, []string{"Orders.Lines.Product", "Orders.Shipments", "Address"}, forestPaths(f))

	// Nodes shared by several branches carry the same descriptor.
	assert.Equal(t, f[0][0], f[1][0])

	product := f[0][2]
	assert.False(t, product.IsCollection())
	assert.Equal(t, "*testutil.Product", product.MemberType.Name())
	assert.Equal(t, "testutil.Line", product.ParentType.Name())

	address := f[2][0]
	assert.False(t, address.IsCollection())
	assert.Equal(t, "*testutil.Address", address.ElementType().Name())
}

func TestBuildExpansions_OnlyFirstSegment(t *testing.T) {
	item := &queryopts.ExpandedNavigationSelectItem{Path: []string{"Orders", "Lines"}}
	f, err := BuildExpansions(clause(item), customerType)
	require.NoError(t, err)
	assert.Equal(t, []string{"Orders"}, forestPaths(f))
}

func TestBuildExpansions_SiblingSelects(t *testing.T) {
	tests := []struct {
		name string
		root typeinfo.TypeDescriptor
		c    *queryopts.SelectExpandClause
		want []string
	}{
		{
			name: "no selects keeps every expansion",
			root: customerType,
			c:    clause(expand("Orders"), expand("Address")),
			want: []string{"Orders", "Address"},
		},
		{
			name: "unselected expansion dropped",
			root: customerType,
			c:    clause(items(sel("Name", "Orders"), []queryopts.SelectItem{expand("Orders"), expand("Address")})...),
			want: []string{"Orders"},
		},
		{
			name: "collection sibling on order root",
			root: orderType,
			c:    clause(items(sel("Lines"), []queryopts.SelectItem{expand("Lines"), expand("Shipments")})...),
			want: []string{"Lines"},
		},
		{
			name: "scalar-only select drops everything",
			root: orderType,
			c:    clause(items(sel("Id"), []queryopts.SelectItem{expand("Customer"), expand("Lines")})...),
			want: []string{},
		},
		{
			name: "applies per level",
			root: customerType,
			c: clause(expand("Orders",
				items(sel("Id", "Shipments"), []queryopts.SelectItem{expand("Lines"), expand("Shipments")})...,
			)),
			want: []string{"Orders.Shipments"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := BuildExpansions(tt.c, tt.root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, forestPaths(f))
		})
	}
}

func TestBuildExpansions_NormalizedNames(t *testing.T) {
	model, err := typeinfo.LoadModel([]byte("types:\n  Shop:\n    Id: int\n    Caf\u00e9s: \"[]Item\"\n  Item:\n    Id: int\n"))
	require.NoError(t, err)
	shop, ok := model.Type("Shop")
	require.True(t, ok)

	decomposed := "Cafe\u0301s"
	c := clause(items(sel(decomposed), []queryopts.SelectItem{expand(decomposed)})...)

	f, err := BuildExpansions(c, shop)
	require.NoError(t, err)
	require.Len(t, f, 1)
	assert.Equal(t, "Caf\u00e9s", f[0][0].MemberName)
}

func TestBuildExpansions_LevelOptions(t *testing.T) {
	orders := expand("Orders", sel("Id", "Total")...)
	orders.Filter = &queryopts.FilterClause{Expression: eq(prop(it(), "Status"), "open")}
	orders.OrderBy = &queryopts.OrderByClause{Expression: prop(it(), "Total"), Direction: queryopts.Descending}
	orders.Skip = queryopts.Int(1)
	orders.Top = queryopts.Int(2)

	// Options on single-valued navigations are ignored.
	address := expand("Address")
	address.Filter = &queryopts.FilterClause{Expression: eq(prop(it(), "City"), "London")}
	address.Top = queryopts.Int(1)

	pageOnly := expand("Shipments")
	pageOnly.Top = queryopts.Int(3)

	f, err := BuildExpansions(clause(orders, address), customerType)
	require.NoError(t, err)
	require.Len(t, f, 2)

	n := f[0][0]
	assert.Equal(t, []string{"Id", "Total"}, n.Selects)
	require.NotNil(t, n.Filter)
	assert.Same(t, orders.Filter, n.Filter.Clause)
	require.NotNil(t, n.OrderPage)
	require.Len(t, n.OrderPage.Steps, 1)
	assert.Equal(t, "Total desc", n.OrderPage.Steps[0].String())
	assert.Equal(t, 1, *n.OrderPage.Page.Skip)
	assert.Equal(t, 2, *n.OrderPage.Page.Take)

	assert.Nil(t, f[1][0].Filter)
	assert.Nil(t, f[1][0].OrderPage)

	f, err = BuildExpansions(clause(pageOnly), orderType)
	require.NoError(t, err)
	require.NotNil(t, f[0][0].OrderPage)
	assert.Empty(t, f[0][0].OrderPage.Steps)
	assert.Equal(t, 3, *f[0][0].OrderPage.Page.Take)
}

func TestBuildExpansions_Errors(t *testing.T) {
	badOrder := expand("Orders")
	badOrder.OrderBy = &queryopts.OrderByClause{Expression: &queryopts.ConstantNode{Value: 1}}

	tests := []struct {
		name  string
		c     *queryopts.SelectExpandClause
		check func(error) bool
	}{
		{"unknown navigation", clause(expand("Nope")), IsUnknownMember},
		{"scalar expansion", clause(expand("Name")), IsUnsupportedClause},
		{"empty path", clause(&queryopts.ExpandedNavigationSelectItem{}), IsMalformedChain},
		{"nested unknown", clause(expand("Orders", expand("Bogus"))), IsUnknownMember},
		{"bad nested ordering", clause(badOrder), IsUnsupportedClause},
		{"duplicate sibling", clause(expand("Orders", sel("Id")...), expand("Orders", expand("Lines"))), IsUnsupportedClause},
		{"nested duplicate sibling", clause(expand("Orders", expand("Lines"), expand("Lines"))), IsUnsupportedClause},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildExpansions(tt.c, customerType)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}

	_, err := BuildExpansions(clause(expand("Orders", expand("Bogus"))), customerType)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expand Orders")
}

func TestSelects(t *testing.T) {
	c := clause(items(
		sel("Name"),
		[]queryopts.SelectItem{&queryopts.PathSelectItem{}, expand("Orders")},
		[]queryopts.SelectItem{&queryopts.PathSelectItem{Path: []string{"Address", "City"}}},
	)...)
	assert.Equal(t, []string{"Name", "Address"}, Selects(c))
}
