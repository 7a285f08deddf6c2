// Package expr provides the expression trees produced by the translator.
//
// An expression tree describes a query transformation without running it:
// member access chains, lambdas, and calls to the standard sequence
// operators (Where, OrderBy, ThenBy, Skip, Take, Select, Count, ...).
// Providers (see internal/memquery and internal/querysql) interpret trees;
// this package only builds, renders and compares them.
//
// SEALED INTERFACE:
//
// Expr is sealed using the marker method pattern. Only types in this
// package implement it, so consumers can write exhaustive type switches:
//
//	switch e := e.(type) {
//	case *Parameter:
//	case *Member:
//	case *Constant:
//	case *Convert:
//	case *Lambda:
//	case *Quote:
//	case *Call:
//	case *Binary:
//	case *Unary:
//	case *New:
//	}
//
// TYPES:
//
// Every node carries a typeinfo.TypeDescriptor. Sequence operators derive
// their result type from their source (typeinfo.Sequence), lambdas have a
// typeinfo.Func signature, and projection selectors are erased to
// typeinfo.Object with value types wrapped in a Convert node (Box).
//
// RENDERING:
//
// String renders trees in lambda notation, which is what golden files and
// CLI output compare against:
//
//	q => q.OrderBy(a => a.Customer.City).ThenByDescending(a => a.Lines.Count()).Skip(5).Take(10)
//	i => i.Orders.Select(i0 => new {Id = (object)i0.Id, Total = (object)i0.Total})
//
// Trees are immutable once built. Two independently built trees can be
// compared with Equivalent.
package expr
