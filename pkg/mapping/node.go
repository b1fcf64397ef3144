package mapping

// Operator identifies one transform function from the closed set the rule
// grammar supports. The set is fixed; parsers reject anything outside it.
type Operator string

// Transform operators.
const (
	OpIdentity   Operator = "identity"
	OpTrim       Operator = "trim"
	OpUpper      Operator = "upper"
	OpLower      Operator = "lower"
	OpLeft       Operator = "left"
	OpRight      Operator = "right"
	OpSubstr     Operator = "substr"
	OpConcat     Operator = "concat"
	OpSplit      Operator = "split"
	OpReplace    Operator = "replace"
	OpToDate     Operator = "to_date"
	OpDateFormat Operator = "date_format"
	OpCast       Operator = "cast"
	OpRound      Operator = "round"
)

var operators = map[Operator]bool{
	OpIdentity:   true,
	OpTrim:       true,
	OpUpper:      true,
	OpLower:      true,
	OpLeft:       true,
	OpRight:      true,
	OpSubstr:     true,
	OpConcat:     true,
	OpSplit:      true,
	OpReplace:    true,
	OpToDate:     true,
	OpDateFormat: true,
	OpCast:       true,
	OpRound:      true,
}

// ParseOperator matches name case-insensitively against the operator set.
// The second return value reports whether the name is a known operator.
func ParseOperator(name string) (Operator, bool) {
	op := Operator(lowerASCII(name))
	return op, operators[op]
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// NodeKind discriminates the AST node variants.
type NodeKind int

// AST node kinds.
const (
	KindField NodeKind = iota
	KindLiteral
	KindCall
)

// Node is one node of a transform expression tree. Exactly one variant is
// populated, selected by Kind:
//
//   - KindField: Field holds a source field name
//   - KindLiteral: Const holds a literal string value
//   - KindCall: Op and Args hold a function call; Args may themselves be
//     calls, which is how nested expressions like upper(trim(x)) are shaped
//
// Nodes are built once by the transform parser and never mutated.
type Node struct {
	Kind  NodeKind
	Field string
	Const string
	Op    Operator
	Args  []Node
}

// FieldRef builds a field-reference node.
func FieldRef(name string) Node {
	return Node{Kind: KindField, Field: name}
}

// Literal builds a constant node.
func Literal(text string) Node {
	return Node{Kind: KindLiteral, Const: text}
}

// Call builds a function-call node.
func Call(op Operator, args ...Node) Node {
	return Node{Kind: KindCall, Op: op, Args: args}
}
