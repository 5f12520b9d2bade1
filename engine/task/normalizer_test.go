package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashneo76/ansible/engine/module"
)

func testRegistry() *module.StaticRegistry {
	return module.NewStaticRegistry("command", "shell", "script", "copy", "ping", "service", "ec2")
}

func parseRecord(t *testing.T, record Record) *Result {
	t.Helper()
	result, err := NewModuleArgsParser(record, testRegistry()).Parse()
	require.NoError(t, err)
	return result
}

func parseError(t *testing.T, record Record) *MalformedTaskError {
	t.Helper()
	result, err := NewModuleArgsParser(record, testRegistry()).Parse()
	require.Error(t, err)
	require.Nil(t, result)
	var malformed *MalformedTaskError
	require.ErrorAs(t, err, &malformed)
	return malformed
}

func TestModuleArgsParser_Parse(t *testing.T) {
	t.Run("Should parse legacy action string", func(t *testing.T) {
		result := parseRecord(t, Record{"action": "copy src=a dest=b"})
		assert.Equal(t, "copy", result.Operation)
		assert.Equal(t, Params{"src": "a", "dest": "b"}, result.Params)
		assert.Empty(t, result.DelegateTo)
	})

	t.Run("Should rewrite shell action to command with raw params", func(t *testing.T) {
		result := parseRecord(t, Record{"action": "shell echo hi"})
		assert.Equal(t, "command", result.Operation)
		assert.Equal(t, Params{"_raw_params": "echo hi", "_uses_shell": true}, result.Params)
		assert.Empty(t, result.DelegateTo)
	})

	t.Run("Should force localhost delegation for local_action", func(t *testing.T) {
		result := parseRecord(t, Record{"local_action": "shell echo hi"})
		assert.Equal(t, "command", result.Operation)
		assert.Equal(t, Params{"_raw_params": "echo hi", "_uses_shell": true}, result.Params)
		assert.Equal(t, DelegateLocalhost, result.DelegateTo)
	})

	t.Run("Should parse module key with key=value shorthand", func(t *testing.T) {
		result := parseRecord(t, Record{"copy": "src=a dest=b"})
		assert.Equal(t, "copy", result.Operation)
		assert.Equal(t, Params{"src": "a", "dest": "b"}, result.Params)
		assert.Empty(t, result.DelegateTo)
	})

	t.Run("Should parse module key with structured params", func(t *testing.T) {
		result := parseRecord(t, Record{"copy": map[string]any{"src": "a", "dest": "b"}})
		assert.Equal(t, "copy", result.Operation)
		assert.Equal(t, Params{"src": "a", "dest": "b"}, result.Params)
	})

	t.Run("Should parse module key with no params", func(t *testing.T) {
		result := parseRecord(t, Record{"ping": nil})
		assert.Equal(t, "ping", result.Operation)
		assert.Equal(t, Params{}, result.Params)
	})

	t.Run("Should never inject _uses_shell for command", func(t *testing.T) {
		result := parseRecord(t, Record{"command": "pwd"})
		assert.Equal(t, "command", result.Operation)
		assert.Equal(t, Params{"_raw_params": "pwd"}, result.Params)
		assert.NotContains(t, result.Params, "_uses_shell")
	})

	t.Run("Should keep raw tail and parse raw-keep keys for command", func(t *testing.T) {
		result := parseRecord(t, Record{"command": "echo hi chdir=/tmp creates=/tmp/out"})
		assert.Equal(t, "command", result.Operation)
		assert.Equal(t, Params{
			"_raw_params": "echo hi",
			"chdir":       "/tmp",
			"creates":     "/tmp/out",
		}, result.Params)
	})

	t.Run("Should treat shared args as defaults overridden by parsed params", func(t *testing.T) {
		result := parseRecord(t, Record{
			"copy": "k1=v1",
			"args": map[string]any{"k1": "default", "k2": "default2"},
		})
		assert.Equal(t, "copy", result.Operation)
		assert.Equal(t, Params{"k1": "v1", "k2": "default2"}, result.Params)
	})

	t.Run("Should merge shared args under raw command text", func(t *testing.T) {
		result := parseRecord(t, Record{
			"command": "pwd",
			"args":    map[string]any{"chdir": "/tmp"},
		})
		assert.Equal(t, "command", result.Operation)
		assert.Equal(t, Params{"chdir": "/tmp", "_raw_params": "pwd"}, result.Params)
	})

	t.Run("Should unwrap residual args nesting", func(t *testing.T) {
		result := parseRecord(t, Record{
			"copy": map[string]any{
				"module": "copy",
				"args":   map[string]any{"a": 1},
			},
		})
		assert.Equal(t, "copy", result.Operation)
		assert.Equal(t, Params{"a": 1}, result.Params)
	})

	t.Run("Should parse legacy action mapping with module field", func(t *testing.T) {
		result := parseRecord(t, Record{
			"action": map[string]any{
				"module": "copy",
				"args":   map[string]any{"src": "a", "dest": "b"},
			},
		})
		assert.Equal(t, "copy", result.Operation)
		assert.Equal(t, Params{"src": "a", "dest": "b"}, result.Params)
	})

	t.Run("Should parse local_action mapping with module field", func(t *testing.T) {
		result := parseRecord(t, Record{
			"local_action": map[string]any{"module": "ec2", "x": 1, "y": 2},
		})
		assert.Equal(t, "ec2", result.Operation)
		assert.Equal(t, Params{"x": 1, "y": 2}, result.Params)
		assert.Equal(t, DelegateLocalhost, result.DelegateTo)
	})

	t.Run("Should always recognize the reserved meta name", func(t *testing.T) {
		result := parseRecord(t, Record{"meta": "flush_handlers"})
		assert.Equal(t, "meta", result.Operation)
		assert.Equal(t, Params{"_raw_params": "flush_handlers"}, result.Params)
	})

	t.Run("Should ignore record keys the registry does not know", func(t *testing.T) {
		result := parseRecord(t, Record{
			"copy":      "src=a dest=b",
			"name":      "copy a file",
			"sudo":      true,
			"notify":    []any{"restart service"},
			"when":      "ansible_os_family == 'Debian'",
			"unrelated": map[string]any{"module": "nope"},
		})
		assert.Equal(t, "copy", result.Operation)
		assert.Equal(t, Params{"src": "a", "dest": "b"}, result.Params)
	})
}

func TestModuleArgsParser_ParseErrors(t *testing.T) {
	t.Run("Should reject action combined with local_action", func(t *testing.T) {
		record := Record{"action": "shell echo hi", "local_action": "shell echo hi"}
		err := parseError(t, record)
		assert.Equal(t, ErrCodeActionExclusive, err.Code)
		assert.Equal(t, "action and local_action are mutually exclusive", err.Message)
		assert.Equal(t, record, err.Record)
	})

	t.Run("Should reject two distinct module keys", func(t *testing.T) {
		err := parseError(t, Record{"copy": "src=a dest=b", "service": "name=httpd"})
		assert.Equal(t, ErrCodeConflictingAction, err.Code)
		assert.Equal(t, "conflicting action statements", err.Message)
	})

	t.Run("Should reject module key once action determined an operation", func(t *testing.T) {
		err := parseError(t, Record{"action": "copy src=a", "service": "name=httpd"})
		assert.Equal(t, ErrCodeConflictingAction, err.Code)
	})

	t.Run("Should reject record with no recognizable operation", func(t *testing.T) {
		err := parseError(t, Record{"name": "not a task", "sudo": true})
		assert.Equal(t, ErrCodeNoAction, err.Code)
		assert.Equal(t, "no action detected in task", err.Message)
	})

	t.Run("Should reject empty record", func(t *testing.T) {
		err := parseError(t, Record{})
		assert.Equal(t, ErrCodeNoAction, err.Code)
	})

	t.Run("Should reject action mapping without module field", func(t *testing.T) {
		err := parseError(t, Record{"action": map[string]any{"src": "a"}})
		assert.Equal(t, ErrCodeNoAction, err.Code)
	})

	t.Run("Should reject unexpected module value type", func(t *testing.T) {
		err := parseError(t, Record{"copy": 42})
		assert.Equal(t, ErrCodeUnexpectedType, err.Code)
	})

	t.Run("Should reject nil action value", func(t *testing.T) {
		err := parseError(t, Record{"action": nil})
		assert.Equal(t, ErrCodeUnexpectedType, err.Code)
	})

	t.Run("Should reject unbalanced quoting in argument string", func(t *testing.T) {
		err := parseError(t, Record{"copy": `src="a dest=b`})
		assert.Equal(t, ErrCodeTokenize, err.Code)
	})
}

func TestModuleArgsParser_InputImmutability(t *testing.T) {
	t.Run("Should not mutate the input record", func(t *testing.T) {
		inner := map[string]any{"module": "copy", "src": "a"}
		record := Record{"action": inner}
		result := parseRecord(t, record)
		assert.Equal(t, "copy", result.Operation)
		assert.Equal(t, Params{"src": "a"}, result.Params)
		assert.Equal(t, map[string]any{"module": "copy", "src": "a"}, inner)
	})

	t.Run("Should not mutate shared args defaults", func(t *testing.T) {
		defaults := map[string]any{"k1": "default"}
		record := Record{"copy": "k1=v1", "args": defaults}
		result := parseRecord(t, record)
		assert.Equal(t, Params{"k1": "v1"}, result.Params)
		assert.Equal(t, map[string]any{"k1": "default"}, defaults)
	})
}

func TestNormalizeNewStyle(t *testing.T) {
	t.Run("Should split operation name off a bare string", func(t *testing.T) {
		parser := NewModuleArgsParser(Record{}, testRegistry())
		operation, params, err := parser.normalizeNewStyle(valueOf("copy src=a dest=b"))
		require.NoError(t, err)
		assert.Equal(t, "copy", operation)
		assert.Equal(t, Params{"src": "a", "dest": "b"}, params)
	})

	t.Run("Should extract module field from a mapping", func(t *testing.T) {
		parser := NewModuleArgsParser(Record{}, testRegistry())
		operation, params, err := parser.normalizeNewStyle(valueOf(map[string]any{
			"module": "ec2",
			"region": "xyz",
		}))
		require.NoError(t, err)
		assert.Equal(t, "ec2", operation)
		assert.Equal(t, Params{"region": "xyz"}, params)
	})

	t.Run("Should leave operation undetermined for blank text", func(t *testing.T) {
		parser := NewModuleArgsParser(Record{}, testRegistry())
		operation, params, err := parser.normalizeNewStyle(valueOf("   "))
		require.NoError(t, err)
		assert.Empty(t, operation)
		assert.Nil(t, params)
	})
}
