package openapi

import (
	"fmt"
	"sort"
	"strings"
)

// openAPIDocumentBuilder assembles the final document from a schema graph.
// One builder produces one document; the registry accumulates shared
// components while the graph is walked.
type openAPIDocumentBuilder struct {
	cfg        generatorConfig
	registry   *componentRegistry
	root       *schemaNode
	rootRef    string
	inlineRoot map[string]any
}

func newOpenAPIDocumentBuilder(cfg generatorConfig, registry *componentRegistry, root *schemaNode) *openAPIDocumentBuilder {
	return &openAPIDocumentBuilder{
		cfg:      cfg,
		registry: registry,
		root:     root,
	}
}

func (b *openAPIDocumentBuilder) build() (map[string]any, error) {
	if b.root == nil {
		return nil, fmt.Errorf("openapi: root schema node cannot be nil")
	}

	if b.cfg.rootComponent != "" {
		b.rootRef = b.registry.pin(b.cfg.rootComponent, b.root)
		b.referenceDescendants(b.cfg.rootComponent, b.root)
	} else {
		// Root stays inline; descendants may still publish as components.
		b.inlineRoot = b.schemaFor(b.root, "Root")
	}

	document := map[string]any{
		"openapi": b.cfg.openAPIVersion,
		"info":    b.infoSection(),
		"paths":   b.pathsSection(),
	}
	if components := b.registry.schemas(); components != nil {
		document["components"] = map[string]any{
			"schemas": components,
		}
	}

	if err := validateDocument(document); err != nil {
		return nil, err
	}
	return document, nil
}

func (b *openAPIDocumentBuilder) infoSection() map[string]any {
	info := map[string]any{
		"title":   b.cfg.info.Title,
		"version": b.cfg.info.Version,
	}
	if b.cfg.info.Description != "" {
		info["description"] = b.cfg.info.Description
	}
	return info
}

func (b *openAPIDocumentBuilder) pathsSection() map[string]any {
	operation := map[string]any{
		"operationId": b.operationID(),
		"requestBody": map[string]any{
			"required": true,
			"content": map[string]any{
				b.cfg.contentType: map[string]any{
					"schema": b.requestSchema(),
				},
			},
		},
		"responses": b.responsesSection(),
	}
	if summary := strings.TrimSpace(b.cfg.operation.Summary); summary != "" {
		operation["summary"] = summary
	}

	return map[string]any{
		b.cfg.operation.Path: map[string]any{
			b.httpMethod(): operation,
		},
	}
}

func (b *openAPIDocumentBuilder) requestSchema() map[string]any {
	switch {
	case b.inlineRoot != nil:
		return b.inlineRoot
	case b.rootRef != "":
		return map[string]any{"$ref": b.rootRef}
	default:
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}
}

func (b *openAPIDocumentBuilder) responsesSection() map[string]any {
	statuses := make([]string, 0, len(b.cfg.responses))
	for status := range b.cfg.responses {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	responses := make(map[string]any, len(statuses))
	for _, status := range statuses {
		responses[status] = map[string]any{
			"description": b.cfg.responses[status].Description,
		}
	}
	return responses
}

func (b *openAPIDocumentBuilder) httpMethod() string {
	method := strings.ToLower(b.cfg.operation.Method)
	if method == "" {
		method = "post"
	}
	return method
}

func (b *openAPIDocumentBuilder) operationID() string {
	if b.cfg.operation.OperationID != "" {
		return b.cfg.operation.OperationID
	}
	return fmt.Sprintf("%s:%s", b.httpMethod(), b.cfg.operation.Path)
}

// schemaFor renders a node, consulting the registry for object and array
// nodes so repeated shapes collapse into $ref entries. The hint threads
// through the walk to give published components readable names.
func (b *openAPIDocumentBuilder) schemaFor(node *schemaNode, hint string) map[string]any {
	if node == nil {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}

	if node.Type == "object" || node.Type == "array" {
		if ref := b.registry.reference(hint, node); ref != "" {
			return map[string]any{"$ref": ref}
		}
	}

	return node.render(func(child *schemaNode, segment string) map[string]any {
		return b.schemaFor(child, joinComponentName(hint, segment))
	})
}

// referenceDescendants walks a pinned root's children so shapes repeated
// beneath it still register and publish.
func (b *openAPIDocumentBuilder) referenceDescendants(hint string, node *schemaNode) {
	if node == nil {
		return
	}
	names := make([]string, 0, len(node.Properties))
	for name := range node.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.schemaFor(node.Properties[name], joinComponentName(hint, name))
	}
	if node.Items != nil {
		b.schemaFor(node.Items, joinComponentName(hint, "item"))
	}
}

func joinComponentName(parts ...string) string {
	joined := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		joined = append(joined, part)
	}
	if len(joined) == 0 {
		return "Schema"
	}
	return strings.Join(joined, "_")
}

// validateDocument applies the structural checks a document must pass before
// the generator hands it back: version and info strings, at least one path,
// and a complete operation payload under every method.
func validateDocument(document map[string]any) error {
	if document == nil {
		return fmt.Errorf("openapi: document cannot be nil")
	}
	if version, _ := document["openapi"].(string); version == "" {
		return fmt.Errorf("openapi: document missing version string")
	}

	info, _ := document["info"].(map[string]any)
	if info == nil {
		return fmt.Errorf("openapi: document missing info section")
	}
	if title, _ := info["title"].(string); title == "" {
		return fmt.Errorf("openapi: info.title must be set")
	}
	if version, _ := info["version"].(string); version == "" {
		return fmt.Errorf("openapi: info.version must be set")
	}

	paths, _ := document["paths"].(map[string]any)
	if len(paths) == 0 {
		return fmt.Errorf("openapi: document must define at least one path")
	}
	for path, pathValue := range paths {
		pathItem, _ := pathValue.(map[string]any)
		if pathItem == nil {
			return fmt.Errorf("openapi: path %q invalid payload", path)
		}
		if len(pathItem) == 0 {
			return fmt.Errorf("openapi: path %q missing operations", path)
		}
		for method, operationValue := range pathItem {
			if err := validateOperation(method, path, operationValue); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateOperation(method, path string, payload any) error {
	operation, _ := payload.(map[string]any)
	if operation == nil {
		return fmt.Errorf("openapi: operation %s %s invalid payload", method, path)
	}
	if _, ok := operation["operationId"].(string); !ok {
		return fmt.Errorf("openapi: operation %s %s missing operationId", method, path)
	}
	requestBody, _ := operation["requestBody"].(map[string]any)
	if requestBody == nil {
		return fmt.Errorf("openapi: operation %s %s missing requestBody", method, path)
	}
	if content, _ := requestBody["content"].(map[string]any); len(content) == 0 {
		return fmt.Errorf("openapi: operation %s %s requestBody missing content", method, path)
	}
	if _, ok := operation["responses"].(map[string]any); !ok {
		return fmt.Errorf("openapi: operation %s %s missing responses", method, path)
	}
	return nil
}
