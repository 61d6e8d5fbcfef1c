package expression

// Node is a parsed permission expression
type Node interface {
	// String returns the canonical text of the expression
	String() string
	// Identifiers appends every check identifier referenced by the node
	Identifiers(dst []string) []string
	// Evaluate evaluates the expression, resolving checks through fn
	Evaluate(fn func(identifier string) (bool, error)) (bool, error)
}

// Check references a named check
type Check struct {
	Identifier string
}

func (c *Check) String() string { return c.Identifier }

func (c *Check) Identifiers(dst []string) []string { return append(dst, c.Identifier) }

func (c *Check) Evaluate(fn func(string) (bool, error)) (bool, error) {
	return fn(c.Identifier)
}

// Not negates its operand
type Not struct {
	Operand Node
}

func (n *Not) String() string { return "NOT " + n.Operand.String() }

func (n *Not) Identifiers(dst []string) []string { return n.Operand.Identifiers(dst) }

func (n *Not) Evaluate(fn func(string) (bool, error)) (bool, error) {
	v, err := n.Operand.Evaluate(fn)
	if err != nil {
		return false, err
	}
	return !v, nil
}

// And is a short-circuiting conjunction
type And struct {
	Left, Right Node
}

func (a *And) String() string { return a.Left.String() + " AND " + a.Right.String() }

func (a *And) Identifiers(dst []string) []string {
	return a.Right.Identifiers(a.Left.Identifiers(dst))
}

func (a *And) Evaluate(fn func(string) (bool, error)) (bool, error) {
	l, err := a.Left.Evaluate(fn)
	if err != nil || !l {
		return false, err
	}
	return a.Right.Evaluate(fn)
}

// Or is a short-circuiting disjunction
type Or struct {
	Left, Right Node
}

func (o *Or) String() string { return o.Left.String() + " OR " + o.Right.String() }

func (o *Or) Identifiers(dst []string) []string {
	return o.Right.Identifiers(o.Left.Identifiers(dst))
}

func (o *Or) Evaluate(fn func(string) (bool, error)) (bool, error) {
	l, err := o.Left.Evaluate(fn)
	if err != nil {
		return false, err
	}
	if l {
		return true, nil
	}
	return o.Right.Evaluate(fn)
}

// Paren preserves explicit grouping
type Paren struct {
	Inner Node
}

func (p *Paren) String() string { return "(" + p.Inner.String() + ")" }

func (p *Paren) Identifiers(dst []string) []string { return p.Inner.Identifiers(dst) }

func (p *Paren) Evaluate(fn func(string) (bool, error)) (bool, error) {
	return p.Inner.Evaluate(fn)
}
