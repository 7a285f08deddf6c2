package testutil

import (
	"fmt"
	"strings"
)

// Fixture entity graph shared by translator, evaluator and provider tests.
//
//	Customer 1--* Order 1--* Line *--1 Product
//	Customer 1--1 Address
//	Order    1--* Shipment
//	Order    *--1 Customer
type Customer struct {
	Id      int
	Name    string
	City    string
	Address *Address
	Orders  []Order
}

type Address struct {
	Street string
	City   string
	Zip    string
}

type Order struct {
	Id        int
	Total     float64
	Status    string
	Customer  *Customer
	Lines     []Line
	Shipments []Shipment
}

type Line struct {
	Id       int
	Sku      string
	Quantity int
	Product  *Product
}

type Product struct {
	Id   int
	Name string
}

type Shipment struct {
	Id      int
	Carrier string
}

// Customers returns a small, fully populated data set.
//
// Order counts per customer are [3, 1, 2] so count ordering is observable.
func Customers() []Customer {
	widget := &Product{Id: 1, Name: "Widget"}
	gadget := &Product{Id: 2, Name: "Gadget"}

	return []Customer{
		{
			Id:      1,
			Name:    "Ada",
			City:    "London",
			Address: &Address{Street: "1 Analytical Way", City: "London", Zip: "N1"},
			Orders: []Order{
				{Id: 10, Total: 25.5, Status: "open", Lines: []Line{
					{Id: 100, Sku: "W-1", Quantity: 2, Product: widget},
					{Id: 101, Sku: "G-1", Quantity: 1, Product: gadget},
				}},
				{Id: 11, Total: 5, Status: "closed"},
				{Id: 12, Total: 99.99, Status: "open", Shipments: []Shipment{{Id: 1000, Carrier: "Post"}}},
			},
		},
		{
			Id:      2,
			Name:    "Grace",
			City:    "Arlington",
			Address: &Address{Street: "2 Compiler Rd", City: "Arlington", Zip: "22201"},
			Orders: []Order{
				{Id: 20, Total: 12, Status: "open", Lines: []Line{
					{Id: 200, Sku: "W-1", Quantity: 5, Product: widget},
				}},
			},
		},
		{
			Id:   3,
			Name: "Alan",
			City: "London",
			Orders: []Order{
				{Id: 30, Total: 7.25, Status: "closed"},
				{Id: 31, Total: 42, Status: "open"},
			},
		},
	}
}

// CustomersAsAny returns Customers as a []any, the form accepted by
// evaluators and stores.
func CustomersAsAny() []any {
	cs := Customers()
	out := make([]any, len(cs))
	for i := range cs {
		out[i] = cs[i]
	}
	return out
}

// Numbered returns n customers named c0..c(n-1), in order, with no orders.
func Numbered(n int) []any {
	out := make([]any, n)
	for i := 0; i < n; i++ {
		out[i] = Customer{Id: i, Name: fmt.Sprintf("c%d", i)}
	}
	return out
}

// DeepModel returns a YAML model document declaring a chain of depth+1
// types L0..L<depth>, each with an Id scalar and a Children collection of
// the next level.
func DeepModel(depth int) string {
	var b strings.Builder
	b.WriteString("types:\n")
	for i := 0; i <= depth; i++ {
		fmt.Fprintf(&b, "  L%d:\n    Id: int\n", i)
		if i < depth {
			fmt.Fprintf(&b, "    Children: \"[]L%d\"\n", i+1)
		}
	}
	return b.String()
}

// FixtureModel is a YAML model document mirroring the Go fixture types.
const FixtureModel = `types:
  Customer:
    Id: int
    Name: string
    City: string
    Address: Address
    Orders: "[]Order"
  Address:
    Street: string
    City: string
    Zip: string
  Order:
    Id: int
    Total: float
    Status: string
    Customer: Customer
    Lines: "[]Line"
    Shipments: "[]Shipment"
  Line:
    Id: int
    Sku: string
    Quantity: int
    Product: Product
  Product:
    Id: int
    Name: string
  Shipment:
    Id: int
    Carrier: string
`
