package openapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// schemaNode is one vertex of the derived schema graph. Scalar constraints
// mirror the OpenAPI keywords they emit; formHints and relationHints carry
// the x-formgen and x-relationships extensions the preview form renderer
// consumes.
type schemaNode struct {
	Type             string
	Format           string
	Properties       map[string]*schemaNode
	Required         []string
	Items            *schemaNode
	Enum             []any
	Default          any
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64
	MinLength        *int
	MaxLength        *int
	Pattern          string
	formHints        map[string]string
	relationHints    map[string]string
}

func objectNode() *schemaNode {
	return &schemaNode{Type: "object", Properties: map[string]*schemaNode{}}
}

// render emits the node as an OpenAPI schema fragment. Child nodes expand
// through expandChild so callers can substitute component references;
// segment is the property name, or "item" for array elements.
func (n *schemaNode) render(expandChild func(child *schemaNode, segment string) map[string]any) map[string]any {
	result := map[string]any{}
	if n.Type != "" {
		result["type"] = n.Type
	}
	if n.Format != "" {
		result["format"] = n.Format
	}
	if n.Default != nil {
		result["default"] = n.Default
	}
	if len(n.Enum) > 0 {
		result["enum"] = n.Enum
	}
	if n.Minimum != nil {
		result["minimum"] = *n.Minimum
	}
	if n.Maximum != nil {
		result["maximum"] = *n.Maximum
	}
	if n.ExclusiveMinimum != nil {
		result["exclusiveMinimum"] = *n.ExclusiveMinimum
	}
	if n.ExclusiveMaximum != nil {
		result["exclusiveMaximum"] = *n.ExclusiveMaximum
	}
	if n.MinLength != nil {
		result["minLength"] = *n.MinLength
	}
	if n.MaxLength != nil {
		result["maxLength"] = *n.MaxLength
	}
	if n.Pattern != "" {
		result["pattern"] = n.Pattern
	}

	if len(n.Properties) > 0 || n.Type == "object" {
		names := make([]string, 0, len(n.Properties))
		for name := range n.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		props := make(map[string]any, len(names))
		for _, name := range names {
			props[name] = expandChild(n.Properties[name], name)
		}
		result["properties"] = props
	}

	if len(n.Required) > 0 {
		required := append([]string{}, n.Required...)
		sort.Strings(required)
		result["required"] = required
	}

	if n.Items != nil {
		result["items"] = expandChild(n.Items, "item")
	}

	if len(n.formHints) > 0 {
		result["x-formgen"] = sortedAnyMap(n.formHints)
	}
	if len(n.relationHints) > 0 {
		result["x-relationships"] = sortedAnyMap(n.relationHints)
	}
	return result
}

// inlineOpenAPI renders the node and every descendant inline, without
// component references.
func (n *schemaNode) inlineOpenAPI() map[string]any {
	return n.render(func(child *schemaNode, _ string) map[string]any {
		return child.inlineOpenAPI()
	})
}

// Digest fingerprints the fully inlined schema. Equal digests mean two nodes
// emit the same schema, which is what component deduplication keys on.
func (n *schemaNode) Digest() string {
	data, err := json.Marshal(n.inlineOpenAPI())
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (n *schemaNode) formHint(key, value string) {
	if n.formHints == nil {
		n.formHints = map[string]string{}
	}
	n.formHints[key] = value
}

func (n *schemaNode) relationHint(key, value string) {
	if n.relationHints == nil {
		n.relationHints = map[string]string{}
	}
	n.relationHints[key] = value
}

// graphWalker tracks in-flight struct types so self-referential records stop
// at an empty object instead of recursing forever.
type graphWalker struct {
	active map[reflect.Type]bool
}

// buildSchemaGraph derives a schema graph from a value's shape. Field names
// follow json tags; the tag set described on FieldDescriptor (format,
// default, enum, bounds, formgen, relationship) becomes node metadata.
func buildSchemaGraph(value any) (*schemaNode, error) {
	walker := &graphWalker{active: map[reflect.Type]bool{}}
	rv := reflect.ValueOf(value)
	var rt reflect.Type
	if rv.IsValid() {
		rt = rv.Type()
	}
	node, err := walker.nodeFor(rv, rt)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return objectNode(), nil
	}
	if node.Type == "" {
		node.Type = "object"
	}
	if node.Type == "object" && node.Properties == nil {
		node.Properties = map[string]*schemaNode{}
	}
	return node, nil
}

func (w *graphWalker) nodeFor(rv reflect.Value, rt reflect.Type) (*schemaNode, error) {
	if rt == nil {
		if !rv.IsValid() {
			return objectNode(), nil
		}
		rt = rv.Type()
	}

	for rt.Kind() == reflect.Pointer {
		if rv.IsValid() {
			if rv.IsNil() {
				rv = reflect.Value{}
			} else {
				rv = rv.Elem()
			}
		}
		rt = rt.Elem()
	}

	if rt.Kind() == reflect.Interface {
		if rv.IsValid() && !rv.IsNil() {
			return w.nodeFor(rv.Elem(), rv.Elem().Type())
		}
		return objectNode(), nil
	}

	if rt == reflect.TypeOf(time.Time{}) {
		return &schemaNode{Type: "string", Format: "date-time"}, nil
	}

	switch rt.Kind() {
	case reflect.Bool:
		return &schemaNode{Type: "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &schemaNode{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return &schemaNode{Type: "number"}, nil
	case reflect.String:
		return &schemaNode{Type: "string"}, nil
	case reflect.Struct:
		return w.structNode(rv, rt)
	case reflect.Map:
		return w.mapNode(rv, rt)
	case reflect.Slice, reflect.Array:
		if rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.Uint8 {
			return &schemaNode{Type: "string", Format: "byte"}, nil
		}
		return w.sliceNode(rv, rt)
	default:
		return &schemaNode{Type: "string", Format: fmt.Sprintf("go:%s", rt.String())}, nil
	}
}

func (w *graphWalker) structNode(rv reflect.Value, rt reflect.Type) (*schemaNode, error) {
	if w.active[rt] {
		return objectNode(), nil
	}
	w.active[rt] = true
	defer delete(w.active, rt)

	if !rv.IsValid() {
		rv = reflect.Zero(rt)
	}

	node := objectNode()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := jsonFieldName(field)
		if skip {
			continue
		}

		fieldValue := reflect.Value{}
		if rv.IsValid() {
			fieldValue = rv.Field(i)
		}
		child, err := w.nodeFor(fieldValue, field.Type)
		if err != nil {
			return nil, err
		}
		if err := decorateFromTags(child, field); err != nil {
			return nil, err
		}

		node.Properties[name] = child
		if fieldRequired(field, omitEmpty) {
			node.Required = append(node.Required, name)
		}
	}
	return node, nil
}

func (w *graphWalker) mapNode(rv reflect.Value, rt reflect.Type) (*schemaNode, error) {
	if rt.Key().Kind() != reflect.String {
		return nil, fmt.Errorf("openapi: map key type %s unsupported", rt.Key())
	}

	node := objectNode()
	if !rv.IsValid() || rv.Len() == 0 {
		return node, nil
	}

	names := make([]string, 0, rv.Len())
	for _, key := range rv.MapKeys() {
		if key.Kind() != reflect.String {
			return nil, fmt.Errorf("openapi: map key kind %s unsupported", key.Kind())
		}
		names = append(names, key.String())
	}
	sort.Strings(names)

	for _, name := range names {
		value := rv.MapIndex(reflect.ValueOf(name))
		child, err := w.nodeFor(value, value.Type())
		if err != nil {
			return nil, err
		}
		node.Properties[name] = child
	}
	return node, nil
}

func (w *graphWalker) sliceNode(rv reflect.Value, rt reflect.Type) (*schemaNode, error) {
	elemType := rt.Elem()
	var elemValue reflect.Value
	if rv.IsValid() && rv.Len() > 0 {
		elemValue = rv.Index(0)
	} else if elemType.Kind() != reflect.Invalid {
		elemValue = reflect.Zero(elemType)
	}

	child, err := w.nodeFor(elemValue, elemType)
	if err != nil {
		return nil, err
	}
	return &schemaNode{Type: "array", Items: child}, nil
}

func jsonFieldName(field reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name, false, false
	}
	segments := strings.Split(tag, ",")
	if segments[0] == "-" {
		return "", false, true
	}
	name = segments[0]
	if name == "" {
		name = field.Name
	}
	for _, segment := range segments[1:] {
		if segment == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

// fieldRequired marks a field required unless it is omitempty or a pointer.
func fieldRequired(field reflect.StructField, omitEmpty bool) bool {
	if omitEmpty {
		return false
	}
	return field.Type.Kind() != reflect.Pointer
}

func decorateFromTags(node *schemaNode, field reflect.StructField) error {
	baseType := field.Type
	for baseType.Kind() == reflect.Pointer {
		baseType = baseType.Elem()
	}

	if format := field.Tag.Get("format"); format != "" {
		node.Format = format
	}
	if raw := field.Tag.Get("default"); raw != "" {
		value, err := scalarFromTag(baseType, raw)
		if err != nil {
			return fmt.Errorf("openapi: parse default for field %s: %w", field.Name, err)
		}
		node.Default = value
	}
	if raw := field.Tag.Get("enum"); raw != "" {
		values, err := enumFromTag(baseType, raw)
		if err != nil {
			return fmt.Errorf("openapi: parse enum for field %s: %w", field.Name, err)
		}
		node.Enum = values
	}

	if isNumeric(baseType.Kind()) {
		bounds := []struct {
			tag    string
			target **float64
		}{
			{"minimum", &node.Minimum},
			{"maximum", &node.Maximum},
			{"exclusiveMinimum", &node.ExclusiveMinimum},
			{"exclusiveMaximum", &node.ExclusiveMaximum},
		}
		for _, bound := range bounds {
			raw := field.Tag.Get(bound.tag)
			if raw == "" {
				continue
			}
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("openapi: parse %s for field %s: %w", bound.tag, field.Name, err)
			}
			*bound.target = &value
		}
	}

	if baseType.Kind() == reflect.String {
		lengths := []struct {
			tag    string
			target **int
		}{
			{"minLength", &node.MinLength},
			{"maxLength", &node.MaxLength},
		}
		for _, length := range lengths {
			raw := field.Tag.Get(length.tag)
			if raw == "" {
				continue
			}
			value, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("openapi: parse %s for field %s: %w", length.tag, field.Name, err)
			}
			*length.target = &value
		}
		if pattern := field.Tag.Get("pattern"); pattern != "" {
			node.Pattern = pattern
		}
	}

	for key, value := range pairsFromTag(field.Tag.Get("formgen")) {
		node.formHint(key, value)
	}
	for key, value := range pairsFromTag(field.Tag.Get("relationship")) {
		node.relationHint(key, value)
	}
	return nil
}

func scalarFromTag(t reflect.Type, raw string) (any, error) {
	switch t.Kind() {
	case reflect.Bool:
		return strconv.ParseBool(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.ParseInt(raw, 10, t.Bits())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.ParseUint(raw, 10, t.Bits())
	case reflect.Float32, reflect.Float64:
		return strconv.ParseFloat(raw, t.Bits())
	default:
		return raw, nil
	}
}

func enumFromTag(t reflect.Type, raw string) ([]any, error) {
	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	parts := strings.Split(raw, ",")
	values := make([]any, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := scalarFromTag(base, part)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

func pairsFromTag(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	values := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.TrimSpace(value)
	}
	return values
}

func isNumeric(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func sortedAnyMap(values map[string]string) map[string]any {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make(map[string]any, len(values))
	for _, key := range keys {
		out[key] = values[key]
	}
	return out
}
