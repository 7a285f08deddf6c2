package expr

// Visitor is called for every node reached by Walk.
//
// If the returned Visitor is non-nil, Walk visits the node's children with
// it and then calls Visit(nil).
type Visitor interface {
	Visit(Expr) Visitor
}

// Walk traverses a tree in depth-first order.
func Walk(v Visitor, e Expr) {
	if e == nil {
		return
	}
	w := v.Visit(e)
	if w == nil {
		return
	}
	for _, child := range children(e) {
		Walk(w, child)
	}
	w.Visit(nil)
}

type visitFunc func(Expr) bool

func (f visitFunc) Visit(e Expr) Visitor {
	if e == nil || !f(e) {
		return nil
	}
	return f
}

// Inspect walks a tree calling fn for every node; returning false prunes
// the node's children.
func Inspect(e Expr, fn func(Expr) bool) {
	Walk(visitFunc(fn), e)
}

// Parameters returns the distinct parameter names declared by lambdas in
// the tree, outermost first.
func Parameters(e Expr) []string {
	var names []string
	seen := make(map[string]bool)
	Inspect(e, func(n Expr) bool {
		if l, ok := n.(*Lambda); ok && !seen[l.Param.Name] {
			seen[l.Param.Name] = true
			names = append(names, l.Param.Name)
		}
		return true
	})
	return names
}

func children(e Expr) []Expr {
	switch n := e.(type) {
	case *Member:
		return []Expr{n.Target}
	case *Convert:
		return []Expr{n.Operand}
	case *Lambda:
		return []Expr{n.Param, n.Body}
	case *Quote:
		return []Expr{n.Operand}
	case *Call:
		return n.Args
	case *Binary:
		return []Expr{n.Left, n.Right}
	case *Unary:
		return []Expr{n.Operand}
	case *New:
		out := make([]Expr, 0, len(n.Fields)+1)
		if n.Guard != nil {
			out = append(out, n.Guard)
		}
		for _, f := range n.Fields {
			out = append(out, f.Value)
		}
		return out
	default:
		return nil
	}
}
