package models

import (
	"cmp"
	"fmt"
	"math/big"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ArgKind tags the variant held by an ArgValue
type ArgKind string

const (
	ArgLiteral      ArgKind = "literal"
	ArgComponentRef ArgKind = "ref"
	ArgEnvConstant  ArgKind = "env"
)

// ArgValue is one initializer or constructor argument. Exactly one of the
// variants is set: a literal value, a reference to another component's
// deployed address, or a key resolved from the config source.
//
// Literals may themselves be lists, and list items may contain references,
// e.g. an initializer taking address[].
type ArgValue struct {
	Kind  ArgKind    `json:"kind"`
	Value any        `json:"value,omitempty"`
	Ref   string     `json:"ref,omitempty"`
	Env   string     `json:"env,omitempty"`
	Items []ArgValue `json:"items,omitempty"`
}

// Literal builds a literal argument
func Literal(v any) ArgValue { return ArgValue{Kind: ArgLiteral, Value: v} }

// ComponentRef builds a reference to another component's address
func ComponentRef(name string) ArgValue { return ArgValue{Kind: ArgComponentRef, Ref: name} }

// EnvConstant builds an argument resolved from configuration
func EnvConstant(key string) ArgValue { return ArgValue{Kind: ArgEnvConstant, Env: key} }

// List builds a list literal whose items may be any variant
func List(items ...ArgValue) ArgValue { return ArgValue{Kind: ArgLiteral, Items: items} }

// IsList reports whether the value is a list literal
func (a ArgValue) IsList() bool {
	return a.Kind == ArgLiteral && a.Items != nil
}

// Refs returns every component name referenced by this value, including nested list items
func (a ArgValue) Refs() []string {
	switch {
	case a.Kind == ArgComponentRef:
		return []string{a.Ref}
	case a.IsList():
		var refs []string
		for _, item := range a.Items {
			refs = append(refs, item.Refs()...)
		}
		return refs
	}
	return nil
}

func (a ArgValue) String() string {
	switch a.Kind {
	case ArgComponentRef:
		return "ref:" + a.Ref
	case ArgEnvConstant:
		return "env:" + a.Env
	}
	if a.IsList() {
		parts := make([]string, len(a.Items))
		for i, item := range a.Items {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprintf("%v", a.Value)
}

// UnmarshalYAML accepts three manifest forms:
//
//	- 42                 # literal scalar
//	- [a, b]             # list literal
//	- {ref: Token}       # component reference
//	- {env: OWNER}       # configuration constant
//	- {value: "0x..."}   # explicit literal (for strings that look like maps)
func (a *ArgValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		// keep hex text intact, it is usually bytes or an address rather than a number
		if node.ShortTag() == "!!int" && strings.HasPrefix(strings.ToLower(node.Value), "0x") {
			*a = Literal(node.Value)
			return nil
		}
		var v any
		if err := node.Decode(&v); err != nil {
			return err
		}
		// integers wider than 64 bits resolve to float64 and lose precision
		if _, ok := v.(float64); ok && node.Style == 0 {
			if n, ok := new(big.Int).SetString(strings.ReplaceAll(node.Value, "_", ""), 0); ok {
				v = n
			}
		}
		*a = Literal(v)
		return nil
	case yaml.SequenceNode:
		var items []ArgValue
		if err := node.Decode(&items); err != nil {
			return err
		}
		if items == nil {
			items = []ArgValue{}
		}
		*a = List(items...)
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if key := node.Content[i]; !slices.Contains([]string{"ref", "env", "value"}, key.Value) {
				return fmt.Errorf("line %d: unknown argument key %q", key.Line, key.Value)
			}
		}
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: argument must set exactly one of ref, env or value", node.Line)
		}
		key, val := node.Content[0], node.Content[1]
		switch key.Value {
		case "ref", "env":
			var s string
			if err := val.Decode(&s); err != nil {
				return err
			}
			if key.Value == "ref" {
				*a = ComponentRef(s)
			} else {
				*a = EnvConstant(s)
			}
			return nil
		default:
			if val.Kind == yaml.MappingNode {
				return fmt.Errorf("line %d: value must be a scalar or a list", val.Line)
			}
			return a.UnmarshalYAML(val)
		}
	}
	return fmt.Errorf("line %d: unsupported argument form", node.Line)
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
