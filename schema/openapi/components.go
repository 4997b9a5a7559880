package openapi

import (
	"fmt"
	"regexp"
	"strings"
)

// componentRegistry deduplicates schemas by digest. A schema becomes a named
// component once it is pinned or seen a second time; until then callers keep
// inlining it.
type componentRegistry struct {
	slots map[string]*componentSlot
	names map[string]struct{}
}

// componentSlot tracks one distinct schema. The component name is reserved on
// first sight so collision suffixes follow traversal order, not publication
// order.
type componentSlot struct {
	name   string
	schema map[string]any
	uses   int
	pinned bool
}

func (s *componentSlot) published() bool {
	return s.pinned || s.uses >= 2
}

func newComponentRegistry() *componentRegistry {
	return &componentRegistry{
		slots: map[string]*componentSlot{},
		names: map[string]struct{}{},
	}
}

// reference records one use of the node's schema and returns a $ref path once
// the schema is published, or "" while it is still inline-only.
func (r *componentRegistry) reference(hint string, node *schemaNode) string {
	return r.admit(hint, node, false)
}

// pin publishes the node's schema immediately under the given name hint.
func (r *componentRegistry) pin(name string, node *schemaNode) string {
	return r.admit(name, node, true)
}

func (r *componentRegistry) admit(hint string, node *schemaNode, pinned bool) string {
	if node == nil {
		return ""
	}
	digest := node.Digest()
	if digest == "" {
		return ""
	}

	slot, ok := r.slots[digest]
	if !ok {
		slot = &componentSlot{name: r.reserveName(hint)}
		r.slots[digest] = slot
	}
	slot.uses++
	if pinned {
		slot.pinned = true
	}
	if !slot.published() {
		return ""
	}
	if slot.schema == nil {
		slot.schema = node.inlineOpenAPI()
	}
	return fmt.Sprintf("#/components/schemas/%s", slot.name)
}

func (r *componentRegistry) reserveName(hint string) string {
	base := safeComponentName(hint)
	if base == "" {
		base = "Schema"
	}
	if _, taken := r.names[base]; !taken {
		r.names[base] = struct{}{}
		return base
	}
	for suffix := 1; ; suffix++ {
		candidate := fmt.Sprintf("%s%d", base, suffix)
		if _, taken := r.names[candidate]; !taken {
			r.names[candidate] = struct{}{}
			return candidate
		}
	}
}

// schemas returns the published components keyed by name, or nil when nothing
// was published.
func (r *componentRegistry) schemas() map[string]any {
	out := map[string]any{}
	for _, slot := range r.slots {
		if slot.published() {
			out[slot.name] = slot.schema
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var componentNamePattern = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// safeComponentName reduces a hint to the character set OpenAPI component
// keys allow. Runs of other characters collapse to a single underscore.
func safeComponentName(hint string) string {
	name := componentNamePattern.ReplaceAllString(hint, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return ""
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}
