package queryopts

// ImplicitRangeVariable is the name of the clause-level lambda variable.
const ImplicitRangeVariable = "$it"

// FilterClause is a parsed $filter: a boolean expression over the element
// type bound to RangeVariable.
type FilterClause struct {
	Expression    Node
	RangeVariable string // "" means ImplicitRangeVariable
}

// RangeVariableName returns the clause's variable name, defaulting to
// ImplicitRangeVariable.
func (c *FilterClause) RangeVariableName() string {
	if c.RangeVariable == "" {
		return ImplicitRangeVariable
	}
	return c.RangeVariable
}

// Direction is the sort direction of one ordering clause.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// OrderByClause is one parsed $orderby key. Clauses form a linked list
// through ThenBy, primary key first.
type OrderByClause struct {
	Expression    Node
	Direction     Direction
	RangeVariable string
	ThenBy        *OrderByClause
}

// Len returns the number of keys in the chain starting at c.
func (c *OrderByClause) Len() int {
	n := 0
	for ; c != nil; c = c.ThenBy {
		n++
	}
	return n
}

// SelectItem is one entry of a SelectExpandClause.
//
// This is a sealed interface - only types in this package implement it.
type SelectItem interface {
	selectItem() // Marker method - seals interface to this package
}

// PathSelectItem selects a member by path.
type PathSelectItem struct {
	Path []string
}

// ExpandedNavigationSelectItem expands a navigation, optionally with its
// own select/expand tree and, for collections, its own filter, ordering
// and paging.
type ExpandedNavigationSelectItem struct {
	Path            []string
	SelectAndExpand *SelectExpandClause
	Filter          *FilterClause
	OrderBy         *OrderByClause
	Skip            *int
	Top             *int
}

func (*PathSelectItem) selectItem()               {}
func (*ExpandedNavigationSelectItem) selectItem() {}

// FirstSegment returns the first path segment, or "" for an empty path.
func (i *PathSelectItem) FirstSegment() string {
	return firstSegment(i.Path)
}

// FirstSegment returns the first path segment, or "" for an empty path.
func (i *ExpandedNavigationSelectItem) FirstSegment() string {
	return firstSegment(i.Path)
}

func firstSegment(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return path[0]
}

// SelectExpandClause is a parsed $select/$expand pair for one level.
type SelectExpandClause struct {
	SelectedItems []SelectItem
	AllSelected   bool
}

// QueryOptions is the full set of parsed options for one request.
type QueryOptions struct {
	Filter       *FilterClause
	OrderBy      *OrderByClause
	SelectExpand *SelectExpandClause
	Skip         *int
	Top          *int
}

// Int returns a pointer to n, for building paging bounds.
func Int(n int) *int {
	return &n
}
