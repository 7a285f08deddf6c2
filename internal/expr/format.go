package expr

import (
	"fmt"
	"strings"
	"time"
)

func (p *Parameter) String() string {
	return p.Name
}

func (m *Member) String() string {
	return m.Target.String() + "." + m.Name
}

func (c *Constant) String() string {
	if c.Value == nil {
		if c.T != nil && c.T.IsCollection() {
			return fmt.Sprintf("Empty[%s]()", c.T.ElementType().Name())
		}
		return "null"
	}
	switch v := c.Value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (c *Convert) String() string {
	return "(" + c.T.Name() + ")" + c.Operand.String()
}

func (l *Lambda) String() string {
	return l.Param.Name + " => " + l.Body.String()
}

func (q *Quote) String() string {
	return q.Operand.String()
}

func (c *Call) String() string {
	var b strings.Builder
	b.WriteString(c.Args[0].String())
	b.WriteByte('.')
	b.WriteString(c.Method.String())
	b.WriteByte('(')
	for i, arg := range c.Args[1:] {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.String())
	}
	b.WriteByte(')')
	return b.String()
}

func (b *Binary) String() string {
	return "(" + b.Left.String() + " " + b.Op.String() + " " + b.Right.String() + ")"
}

func (u *Unary) String() string {
	return u.Op.String() + u.Operand.String()
}

func (n *New) String() string {
	var b strings.Builder
	b.WriteString("new {")
	for i, f := range n.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteString(" = ")
		b.WriteString(f.Value.String())
	}
	b.WriteByte('}')
	return b.String()
}
