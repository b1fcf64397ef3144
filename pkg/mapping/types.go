package mapping

// MappingType classifies how one target field is derived.
type MappingType string

// Mapping types. The string values are the stable serialized form.
const (
	TypeDirect      MappingType = "direct"
	TypeDefault     MappingType = "default"
	TypeConditional MappingType = "conditional"
	TypeTransform   MappingType = "transform"
)

// MappingEntry is the parsed, structured form of one rule row. Exactly one
// of {source-only, default, conditional, transform} drives the value,
// consistent with Type.
type MappingEntry struct {
	Source     string          `json:"source"`
	Target     string          `json:"target"`
	Type       MappingType     `json:"type"`
	Logic      string          `json:"logic"`
	Conditions ConditionalRule `json:"conditions"`
	Default    *string         `json:"_default,omitempty"`
	Transform  *Node           `json:"_transform,omitempty"`

	// RuleText preserves the raw rule cell for diagnostics. It is not part
	// of the exported document.
	RuleText string `json:"-"`
}

// UnparsedRule records one rule row whose condition or transform text could
// not be parsed and was downgraded.
type UnparsedRule struct {
	Target string `json:"target"`
	Source string `json:"source"`
	Rule   string `json:"rule"`
	Error  string `json:"error"`
}

// Diagnostics is the non-fatal bookkeeping accumulated while building a
// spec. A spec with non-empty UnparsedRules is usable but degraded.
type Diagnostics struct {
	MissingSourceFields   []string       `json:"missing_source_fields"`
	MissingExpectedFields []string       `json:"missing_expected_fields"`
	UnparsedRules         []UnparsedRule `json:"unparsed_rules"`
	Warnings              []string       `json:"warnings"`
}

// NewDiagnostics returns a Diagnostics with all slices allocated, so the
// exported document serializes empty arrays rather than nulls.
func NewDiagnostics() Diagnostics {
	return Diagnostics{
		MissingSourceFields:   []string{},
		MissingExpectedFields: []string{},
		UnparsedRules:         []UnparsedRule{},
		Warnings:              []string{},
	}
}

// Spec is the fully parsed and validated mapping document for one rules
// table. It is built once and safe to share read-only across concurrent
// apply calls; nothing mutates it after construction.
type Spec struct {
	SourceFields       []string       `json:"source_fields"`
	ExpectedFields     []string       `json:"expected_fields"`
	FieldMappings      []MappingEntry `json:"field_mappings"`
	UsedSourceFields   []string       `json:"used_source_fields"`
	UnusedSourceFields []string       `json:"unused_source_fields"`
	Diagnostics        Diagnostics    `json:"diagnostics"`
}

// Degraded reports whether any rule rows failed to parse and were
// downgraded during the build.
func (s *Spec) Degraded() bool {
	return len(s.Diagnostics.UnparsedRules) > 0
}
