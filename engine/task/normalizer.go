package task

import (
	"fmt"
	"strings"

	"dario.cat/mergo"
	"github.com/mohae/deepcopy"

	"github.com/ashneo76/ansible/engine/module"
	"github.com/ashneo76/ansible/pkg/splitter"
)

// ModuleArgsParser reduces the many accepted shapes of a task declaration
// into one canonical triple. Accepted shapes include:
//
//	action: shell echo hi
//	local_action: shell echo hi
//	copy: src=a dest=b
//	action: copy src=a dest=b
//	copy: { src: a, dest: b }
//	action: { module: copy, args: { src: a, dest: b } }
//	command: pwd
//	args: { chdir: /tmp }
//
// A top-level args mapping acts as shared defaults, overridden by any
// parameters parsed from the forms above. The parser is request-scoped and
// stateless across calls; concurrent Parse calls on distinct parsers are
// safe as long as the registry allows concurrent reads.
type ModuleArgsParser struct {
	record   Record
	registry module.Registry
}

// NewModuleArgsParser creates a parser for a single raw task record. The
// registry decides which record keys name a known operation; it is injected
// so callers control the known-module universe.
func NewModuleArgsParser(record Record, registry module.Registry) *ModuleArgsParser {
	if record == nil {
		record = Record{}
	}
	return &ModuleArgsParser{record: record, registry: registry}
}

// parseState carries the outcome of the detection steps. An empty operation
// means nothing has been determined yet; a second determination of any kind
// is an error, never a silent override.
type parseState struct {
	operation  string
	params     Params
	delegateTo string
}

// Parse resolves the record to its canonical (operation, params,
// delegate_to) triple or fails with a *MalformedTaskError.
func (p *ModuleArgsParser) Parse() (*Result, error) {
	defaults, err := p.sharedDefaults()
	if err != nil {
		return nil, err
	}
	state := parseState{}
	state, err = p.applyAction(state, defaults)
	if err != nil {
		return nil, err
	}
	state, err = p.applyLocalAction(state, defaults)
	if err != nil {
		return nil, err
	}
	state, err = p.applyOperationKeys(state, defaults)
	if err != nil {
		return nil, err
	}
	if state.operation == "" {
		return nil, newNoActionError(p.record)
	}
	state = rewriteShell(state)
	return &Result{
		Operation:  state.operation,
		Params:     state.params,
		DelegateTo: state.delegateTo,
	}, nil
}

// sharedDefaults reads the top-level args mapping, the lowest-priority
// parameter source.
func (p *ModuleArgsParser) sharedDefaults() (Params, error) {
	raw, ok := p.record[keyArgs]
	if !ok {
		return nil, nil
	}
	switch v := valueOf(raw); v.kind {
	case valueMapping:
		return Params(v.mapping), nil
	case valueAbsent:
		return nil, nil
	default:
		return nil, newUnexpectedTypeError(p.record, raw)
	}
}

func (p *ModuleArgsParser) applyAction(state parseState, defaults Params) (parseState, error) {
	raw, ok := p.record[keyAction]
	if !ok {
		return state, nil
	}
	operation, params, err := p.normalizeParameters(valueOf(raw), "", defaults)
	if err != nil {
		return state, err
	}
	return parseState{operation: operation, params: params}, nil
}

func (p *ModuleArgsParser) applyLocalAction(state parseState, defaults Params) (parseState, error) {
	raw, ok := p.record[keyLocalAction]
	if !ok {
		return state, nil
	}
	if state.operation != "" {
		return state, newActionExclusiveError(p.record)
	}
	operation, params, err := p.normalizeParameters(valueOf(raw), "", defaults)
	if err != nil {
		return state, err
	}
	return parseState{operation: operation, params: params, delegateTo: DelegateLocalhost}, nil
}

// applyOperationKeys scans the record for a key the registry recognizes (or
// the reserved meta name). Finding a second operation once one is determined
// is a hard error.
func (p *ModuleArgsParser) applyOperationKeys(state parseState, defaults Params) (parseState, error) {
	for key, raw := range p.record {
		if !p.isOperationKey(key) {
			continue
		}
		if state.operation != "" {
			return state, newConflictingActionError(p.record)
		}
		operation, params, err := p.normalizeParameters(valueOf(raw), key, defaults)
		if err != nil {
			return state, err
		}
		state = parseState{operation: operation, params: params, delegateTo: state.delegateTo}
	}
	return state, nil
}

func (p *ModuleArgsParser) isOperationKey(key string) bool {
	if key == MetaOperation {
		return true
	}
	return p.registry != nil && p.registry.IsKnown(key)
}

// normalizeParameters turns one candidate value into (operation, params).
// With a known operation name the value is read old-style; without one it is
// read structurally. Either way a residual single-level args wrapper is
// unwrapped once and the shared defaults are merged underneath.
func (p *ModuleArgsParser) normalizeParameters(v value, operation string, defaults Params) (string, Params, error) {
	var params Params
	var err error
	if operation != "" {
		params, err = p.normalizeOldStyle(v, operation)
	} else {
		operation, params, err = p.normalizeNewStyle(v)
	}
	if err != nil {
		return "", nil, err
	}
	params, err = p.unwrapArgs(params)
	if err != nil {
		return "", nil, err
	}
	merged, err := mergeParams(defaults, params)
	if err != nil {
		return "", nil, err
	}
	return operation, merged, nil
}

// normalizeOldStyle handles a value whose operation name is already known,
// e.g. the value of a matched module key or of action once the name has
// been split off.
func (p *ModuleArgsParser) normalizeOldStyle(v value, operation string) (Params, error) {
	switch v.kind {
	case valueMapping:
		mapping := v.mapping
		if _, ok := mapping[keyModule]; ok {
			copied, err := copyMapping(mapping)
			if err != nil {
				return nil, err
			}
			delete(copied, keyModule)
			mapping = copied
		}
		return Params(mapping), nil
	case valueText:
		return p.tokenize(v.text, operation)
	case valueAbsent:
		// modules which take no params, like ping
		return nil, nil
	default:
		return nil, newUnexpectedTypeError(p.record, v.raw)
	}
}

// normalizeNewStyle handles a value with no pre-known operation name,
// reading the name out of the value itself: either a mapping with an
// explicit module field, or a string whose first token is the name.
func (p *ModuleArgsParser) normalizeNewStyle(v value) (string, Params, error) {
	switch v.kind {
	case valueMapping:
		raw, ok := v.mapping[keyModule]
		if !ok {
			return "", nil, nil
		}
		operation, ok := raw.(string)
		if !ok {
			return "", nil, newUnexpectedTypeError(p.record, raw)
		}
		copied, err := copyMapping(v.mapping)
		if err != nil {
			return "", nil, err
		}
		delete(copied, keyModule)
		return operation, Params(copied), nil
	case valueText:
		operation, rest := splitOperationText(v.text)
		if operation == "" {
			return "", nil, nil
		}
		params, err := p.tokenize(rest, operation)
		if err != nil {
			return "", nil, err
		}
		return operation, params, nil
	default:
		return "", nil, newUnexpectedTypeError(p.record, v.raw)
	}
}

func (p *ModuleArgsParser) tokenize(text, operation string) (Params, error) {
	options, err := splitter.ParseKV(text, checkRawOperation(operation))
	if err != nil {
		return nil, newTokenizeError(p.record, err)
	}
	return Params(options), nil
}

// unwrapArgs flattens the double-nesting form `module: { args: {...} }`.
func (p *ModuleArgsParser) unwrapArgs(params Params) (Params, error) {
	if params == nil {
		return nil, nil
	}
	raw, ok := params[keyArgs]
	if !ok {
		return params, nil
	}
	switch v := valueOf(raw); v.kind {
	case valueMapping:
		return Params(v.mapping), nil
	default:
		return nil, newUnexpectedTypeError(p.record, raw)
	}
}

// mergeParams overlays the normalized params on top of the shared defaults.
// The overlay is shallow: on key collision the normalized value replaces the
// default wholesale.
func mergeParams(defaults, params Params) (Params, error) {
	final := Params{}
	if len(defaults) > 0 {
		if err := mergo.Merge(&final, defaults); err != nil {
			return nil, fmt.Errorf("failed to merge default args: %w", err)
		}
	}
	for key, val := range params {
		final[key] = val
	}
	return final, nil
}

// rewriteShell folds the shell module into command with _uses_shell set.
// Every other operation passes through untouched.
func rewriteShell(state parseState) parseState {
	if state.operation != operationShell {
		return state
	}
	state.operation = operationCommand
	state.params[usesShellParam] = true
	return state
}

// checkRawOperation reports whether the operation keeps its unparsed
// trailing text as a single raw argument.
func checkRawOperation(operation string) bool {
	switch operation {
	case operationCommand, operationShell, operationScript:
		return true
	default:
		return false
	}
}

// splitOperationText splits "copy src=a dest=b" into the operation name and
// its argument string. An empty or blank input yields an empty name.
func splitOperationText(text string) (string, string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// copyMapping deep-copies a mapping before structural surgery so the input
// record is never mutated.
func copyMapping(mapping map[string]any) (map[string]any, error) {
	copied, ok := deepcopy.Copy(mapping).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("failed to copy mapping")
	}
	return copied, nil
}
