package macro

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// scriptSchema constrains macro scripts. A script is a CUE document such as:
//
//	description: "Renames the target"
//	applies: ["*demo.Activity"]
//	params: ["string"]
//	steps: [
//		{call: "SetTitle", args: ["$0"]},
//		{field: "Title"},
//	]
//
// Steps run in order, each on the value produced by the previous one,
// starting with the target. An arg of "$target" is the target and "$N" is
// parameter N; other args are literals.
const scriptSchema = `
#Step: {
	call?:  string
	args?:  [...]
	field?: string
	value?: _
}

#Macro: {
	description: string | *""
	applies: [...string] | *[]
	params: [...string] | *[]
	steps: [#Step, ...#Step]
}
`

type script struct {
	Description string   `json:"description"`
	Applies     []string `json:"applies"`
	Params      []string `json:"params"`
	Steps       []step   `json:"steps"`
}

type step struct {
	Call  string `json:"call,omitempty"`
	Args  []any  `json:"args,omitempty"`
	Field string `json:"field,omitempty"`
	Value any    `json:"value,omitempty"`
}

// ScriptLoader compiles CUE macro scripts. Scripts only reach live values
// through the Host.
type ScriptLoader struct{}

func (ScriptLoader) Load(u Unit, host Host) (Macro, error) {
	if host == nil {
		return nil, errors.New("scripts need a host")
	}
	ctx := cuecontext.New()
	schema := ctx.CompileString(scriptSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	v := ctx.CompileBytes(u.Code, cue.Filename(u.Name+".cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compiling script: %w", err)
	}
	v = schema.LookupPath(cue.ParsePath("#Macro")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validating script: %w", err)
	}
	var s script
	if err := v.Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding script: %w", err)
	}
	for i, st := range s.Steps {
		n := 0
		if st.Call != "" {
			n++
		}
		if st.Field != "" {
			n++
		}
		if st.Value != nil {
			n++
		}
		if n != 1 {
			return nil, fmt.Errorf("step %d: exactly one of call, field or value is required", i)
		}
		if st.Call == "" && st.Args != nil {
			return nil, fmt.Errorf("step %d: args without call", i)
		}
	}
	return &scriptMacro{script: s, host: host}, nil
}

type scriptMacro struct {
	script
	host Host
}

func (m *scriptMacro) Description() string { return m.script.Description }

func (m *scriptMacro) Params() []string { return append([]string(nil), m.script.Params...) }

func (m *scriptMacro) Applies(target any) bool {
	if target == nil {
		return false
	}
	if len(m.script.Applies) == 0 {
		return true
	}
	for _, name := range m.script.Applies {
		if m.host.InstanceOf(target, name) {
			return true
		}
	}
	return false
}

func (m *scriptMacro) Run(target any, params []any) (any, error) {
	if len(params) != len(m.script.Params) {
		return nil, fmt.Errorf("got %d params, want %d", len(params), len(m.script.Params))
	}
	cur := target
	for i, st := range m.Steps {
		switch {
		case st.Call != "":
			args := make([]any, len(st.Args))
			for j, a := range st.Args {
				v, err := m.arg(a, target, params)
				if err != nil {
					return nil, fmt.Errorf("step %d: %w", i, err)
				}
				args[j] = v
			}
			out, err := m.host.InvokeByName(cur, st.Call, args)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			cur = out
		case st.Field != "":
			out, ok := m.host.FieldByName(cur, st.Field)
			if !ok {
				return nil, fmt.Errorf("step %d: no field %q", i, st.Field)
			}
			cur = out
		default:
			v, err := m.arg(st.Value, target, params)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			cur = v
		}
	}
	return cur, nil
}

// arg resolves a step argument: "$target", "$N" or a literal.
func (m *scriptMacro) arg(a any, target any, params []any) (any, error) {
	s, ok := a.(string)
	if !ok {
		return literal(a), nil
	}
	if s == "$target" {
		return target, nil
	}
	if rest, ok := strings.CutPrefix(s, "$"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil {
			return s, nil
		}
		if n < 0 || n >= len(params) {
			return nil, fmt.Errorf("parameter $%d out of range", n)
		}
		return params[n], nil
	}
	return s, nil
}

// literal narrows decoded CUE numbers to int where that is lossless.
func literal(v any) any {
	if n, ok := v.(int64); ok && n >= math.MinInt && n <= math.MaxInt {
		return int(n)
	}
	return v
}
