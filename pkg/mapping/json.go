package mapping

import (
	"encoding/json"
	"fmt"
)

// The JSON shapes below are a stable contract for downstream report and
// test-generation consumers:
//
//	field reference  {"field": "FIRST_NAME"}
//	literal          {"const": ", "}
//	call             {"op": "concat", "args": [...]}
//	condition        {"field": F, "op": "="|"in"|"!="|"contains", "value": scalar-or-list}
//	when branch      {"when": {...}, "then": "X"}
//	else branch      {"else": "Y"}
//	conditional rule {"order": [...]} or {} when empty

// MarshalJSON implements json.Marshaler.
func (n Node) MarshalJSON() ([]byte, error) {
	switch n.Kind {
	case KindField:
		return json.Marshal(struct {
			Field string `json:"field"`
		}{n.Field})
	case KindLiteral:
		return json.Marshal(struct {
			Const string `json:"const"`
		}{n.Const})
	case KindCall:
		args := n.Args
		if args == nil {
			args = []Node{}
		}
		return json.Marshal(struct {
			Op   Operator `json:"op"`
			Args []Node   `json:"args"`
		}{n.Op, args})
	default:
		return nil, fmt.Errorf("unknown node kind %d", n.Kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw["op"] != nil:
		var op Operator
		if err := json.Unmarshal(raw["op"], &op); err != nil {
			return err
		}
		var args []Node
		if raw["args"] != nil {
			if err := json.Unmarshal(raw["args"], &args); err != nil {
				return err
			}
		}
		*n = Node{Kind: KindCall, Op: op, Args: args}
	case raw["field"] != nil:
		var field string
		if err := json.Unmarshal(raw["field"], &field); err != nil {
			return err
		}
		*n = FieldRef(field)
	case raw["const"] != nil:
		var text string
		if err := json.Unmarshal(raw["const"], &text); err != nil {
			return err
		}
		*n = Literal(text)
	default:
		return fmt.Errorf("node object needs one of op/field/const keys")
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Membership tests and multi-value
// conditions serialize their value as a list, scalar comparisons as a
// single string.
func (c Condition) MarshalJSON() ([]byte, error) {
	var value any
	switch {
	case c.Op == CondIn || len(c.Values) > 1:
		vals := c.Values
		if vals == nil {
			vals = []string{}
		}
		value = vals
	case len(c.Values) == 1:
		value = c.Values[0]
	default:
		value = ""
	}
	return json.Marshal(struct {
		Field string `json:"field"`
		Op    CondOp `json:"op"`
		Value any    `json:"value"`
	}{c.Field, c.Op, value})
}

// UnmarshalJSON implements json.Unmarshaler, accepting both scalar and list
// values.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw struct {
		Field string          `json:"field"`
		Op    CondOp          `json:"op"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Field = raw.Field
	c.Op = raw.Op
	c.Values = nil
	if len(raw.Value) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw.Value, &list); err == nil {
		c.Values = list
		return nil
	}
	var single string
	if err := json.Unmarshal(raw.Value, &single); err != nil {
		return fmt.Errorf("condition value must be a string or list of strings: %w", err)
	}
	c.Values = []string{single}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (b Branch) MarshalJSON() ([]byte, error) {
	if b.Else != nil {
		return json.Marshal(struct {
			Else string `json:"else"`
		}{*b.Else})
	}
	return json.Marshal(struct {
		When *Condition `json:"when"`
		Then string     `json:"then"`
	}{b.When, b.Then})
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Branch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if elseRaw, ok := raw["else"]; ok {
		var value string
		if err := json.Unmarshal(elseRaw, &value); err != nil {
			return err
		}
		*b = ElseBranch(value)
		return nil
	}
	var cond Condition
	if raw["when"] == nil {
		return fmt.Errorf("branch object needs a when or else key")
	}
	if err := json.Unmarshal(raw["when"], &cond); err != nil {
		return err
	}
	var then string
	if raw["then"] != nil {
		if err := json.Unmarshal(raw["then"], &then); err != nil {
			return err
		}
	}
	*b = WhenBranch(cond, then)
	return nil
}

// MarshalJSON implements json.Marshaler. An empty rule serializes as {} so
// non-conditional mappings keep a stable conditions key.
func (c ConditionalRule) MarshalJSON() ([]byte, error) {
	if c.IsEmpty() {
		return []byte("{}"), nil
	}
	return json.Marshal(struct {
		Order []Branch `json:"order"`
	}{c.Order})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *ConditionalRule) UnmarshalJSON(data []byte) error {
	var raw struct {
		Order []Branch `json:"order"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Order = raw.Order
	return nil
}
