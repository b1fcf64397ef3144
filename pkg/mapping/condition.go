package mapping

// CondOp is a condition comparison operator. The string values double as
// the stable serialized form.
type CondOp string

// Condition operators.
const (
	CondEquals    CondOp = "="
	CondIn        CondOp = "in"
	CondNotEquals CondOp = "!="
	CondContains  CondOp = "contains"
)

// Condition is one field-value test. Values holds one entry for scalar
// comparisons and one-or-many entries for membership tests.
type Condition struct {
	Field  string
	Op     CondOp
	Values []string
}

// Branch is one arm of a conditional rule: either a When/Then pair or a
// trailing Else value. When is nil for an Else branch.
type Branch struct {
	When *Condition
	Then string
	Else *string
}

// IsElse reports whether the branch is a fallback (no condition).
func (b Branch) IsElse() bool {
	return b.Else != nil
}

// ElseBranch builds a fallback branch carrying value.
func ElseBranch(value string) Branch {
	return Branch{Else: &value}
}

// WhenBranch builds a conditional branch.
func WhenBranch(cond Condition, then string) Branch {
	return Branch{When: &cond, Then: then}
}

// ConditionalRule is an ordered list of branches, evaluated first-match-wins
// with at most one trailing Else.
type ConditionalRule struct {
	Order []Branch
}

// IsEmpty reports whether the rule has no branches.
func (c ConditionalRule) IsEmpty() bool {
	return len(c.Order) == 0
}
