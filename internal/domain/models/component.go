package models

import (
	"fmt"
	"strings"
)

// ProxyKind selects how a component's logic contract is fronted on-chain
type ProxyKind string

const (
	ProxyKindTransparent ProxyKind = "transparent"
	ProxyKindUUPS        ProxyKind = "uups"
	ProxyKindNone        ProxyKind = "none"
)

// ParseProxyKind normalizes a manifest proxy value. Empty defaults to transparent.
func ParseProxyKind(s string) (ProxyKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "transparent":
		return ProxyKindTransparent, nil
	case "uups":
		return ProxyKindUUPS, nil
	case "none":
		return ProxyKindNone, nil
	default:
		return "", fmt.Errorf("unknown proxy kind %q (expected transparent, uups or none)", s)
	}
}

// IsProxied reports whether the component is deployed behind a proxy
func (k ProxyKind) IsProxied() bool {
	return k != ProxyKindNone
}

// ComponentSpec is the declarative description of one deployable unit
type ComponentSpec struct {
	Name        string                      `yaml:"name" json:"name"`
	Artifact    string                      `yaml:"artifact,omitempty" json:"artifact,omitempty"`
	ProxyKind   ProxyKind                   `yaml:"proxy,omitempty" json:"proxy,omitempty"`
	Initializer string                      `yaml:"initializer,omitempty" json:"initializer,omitempty"`
	Args        []ArgValue                  `yaml:"args,omitempty" json:"args,omitempty"`
	Overrides   map[string]map[int]ArgValue `yaml:"overrides,omitempty" json:"overrides,omitempty"`
	Verify      bool                        `yaml:"verify,omitempty" json:"verify,omitempty"`
}

// ArtifactName returns the artifact to load, defaulting to the component name
func (c *ComponentSpec) ArtifactName() string {
	if c.Artifact != "" {
		return c.Artifact
	}
	return c.Name
}

// InitializerName returns the initializer method name for proxied components
func (c *ComponentSpec) InitializerName() string {
	if c.Initializer != "" {
		return c.Initializer
	}
	return "initialize"
}

// ArgsFor returns the argument list for a network with positional overrides applied
func (c *ComponentSpec) ArgsFor(network string) []ArgValue {
	args := make([]ArgValue, len(c.Args))
	copy(args, c.Args)
	for idx, v := range c.Overrides[network] {
		if idx >= 0 && idx < len(args) {
			args[idx] = v
		}
	}
	return args
}

// References returns the names of all components referenced by base args and any override
func (c *ComponentSpec) References() []string {
	seen := make(map[string]bool)
	var refs []string
	add := func(v ArgValue) {
		for _, name := range v.Refs() {
			if !seen[name] {
				seen[name] = true
				refs = append(refs, name)
			}
		}
	}
	for _, arg := range c.Args {
		add(arg)
	}
	for _, network := range sortedKeys(c.Overrides) {
		overrides := c.Overrides[network]
		for _, idx := range sortedKeys(overrides) {
			add(overrides[idx])
		}
	}
	return refs
}

// Manifest is the ordered list of components for a deployment
type Manifest struct {
	Name       string           `yaml:"name" json:"name"`
	Components []*ComponentSpec `yaml:"components" json:"components"`
}

// Component returns the spec with the given name, or nil
func (m *Manifest) Component(name string) *ComponentSpec {
	for _, c := range m.Components {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Names returns component names in declaration order
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Components))
	for _, c := range m.Components {
		names = append(names, c.Name)
	}
	return names
}
