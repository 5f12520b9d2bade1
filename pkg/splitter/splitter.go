// Package splitter tokenizes shorthand `key=value` argument strings into
// parameter mappings.
package splitter

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// RawParams is the parameter key holding unparsed trailing text.
const RawParams = "_raw_params"

// rawKeepKeys stay key=value even in raw mode; everything else joins the
// raw tail for raw-mode modules like command and shell.
var rawKeepKeys = map[string]struct{}{
	"chdir":      {},
	"creates":    {},
	"executable": {},
	"removes":    {},
	"warn":       {},
}

// SplitArgs splits an argument string into tokens with shell-style quote
// handling.
func SplitArgs(text string) ([]string, error) {
	tokens, err := shlex.Split(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split argument string: %w", err)
	}
	return tokens, nil
}

// ParseKV parses whitespace-separated key=value tokens into a mapping.
// Tokens without a key stay unparsed and are joined into the RawParams
// entry. With checkRaw set, every token except the rawKeepKeys joins the
// raw tail, preserving the module's trailing text as a single argument.
func ParseKV(text string, checkRaw bool) (map[string]any, error) {
	options := make(map[string]any)
	if strings.TrimSpace(text) == "" {
		return options, nil
	}
	tokens, err := SplitArgs(text)
	if err != nil {
		return nil, err
	}
	var raw []string
	for _, token := range tokens {
		key, val, found := strings.Cut(token, "=")
		if !found || key == "" {
			raw = append(raw, token)
			continue
		}
		if checkRaw {
			if _, keep := rawKeepKeys[key]; !keep {
				raw = append(raw, token)
				continue
			}
		}
		options[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	if len(raw) > 0 {
		options[RawParams] = strings.Join(raw, " ")
	}
	return options, nil
}
