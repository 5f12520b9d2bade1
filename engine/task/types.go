package task

// Record is a raw task declaration as deserialized from a playbook entry.
// Values are strings, nested mappings, or nil; the parser never mutates them.
type Record map[string]any

// Params is a normalized parameter mapping for a single operation.
type Params map[string]any

// Result is the canonical form of a task declaration.
type Result struct {
	// Operation is the resolved module name, never empty.
	Operation string
	// Params holds the merged parameters, always non-nil.
	Params Params
	// DelegateTo is empty or the literal "localhost".
	DelegateTo string
}

const (
	keyAction      = "action"
	keyLocalAction = "local_action"
	keyArgs        = "args"
	keyModule      = "module"

	// MetaOperation is the reserved operation name that always matches,
	// whether or not the registry knows it.
	MetaOperation = "meta"

	// DelegateLocalhost is the only delegation target this parser assigns.
	DelegateLocalhost = "localhost"

	operationShell   = "shell"
	operationCommand = "command"
	operationScript  = "script"

	usesShellParam = "_uses_shell"
)

type valueKind int

const (
	valueAbsent valueKind = iota
	valueText
	valueMapping
	valueOther
)

// value is a tagged view over a record value, so normalization branches
// switch exhaustively on kind instead of re-inspecting runtime types.
type value struct {
	kind    valueKind
	text    string
	mapping map[string]any
	raw     any
}

func valueOf(raw any) value {
	switch v := raw.(type) {
	case nil:
		return value{kind: valueAbsent}
	case string:
		return value{kind: valueText, text: v}
	case map[string]any:
		return value{kind: valueMapping, mapping: v}
	case Params:
		return value{kind: valueMapping, mapping: v}
	case map[any]any:
		mapped := make(map[string]any, len(v))
		for key, val := range v {
			name, ok := key.(string)
			if !ok {
				return value{kind: valueOther, raw: raw}
			}
			mapped[name] = val
		}
		return value{kind: valueMapping, mapping: mapped}
	default:
		return value{kind: valueOther, raw: raw}
	}
}
