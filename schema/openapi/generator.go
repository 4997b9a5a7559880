package openapi

import (
	customize "github.com/goliatone/go-customize"
)

type generator struct {
	config generatorConfig
}

// NewGenerator constructs an OpenAPI-compatible schema generator. Options
// adjust the surrounding document (info block, operation, responses); the
// schema itself is always derived from the record payload handed to Generate.
func NewGenerator(opts ...GeneratorOption) customize.SchemaGenerator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return generator{config: cfg}
}

// Option returns a customize.SettingOption that wires the OpenAPI schema
// generator into an item setting.
func Option(opts ...GeneratorOption) customize.SettingOption {
	return customize.WithSchemaGenerator(NewGenerator(opts...))
}

func (g generator) Generate(value any) (customize.SchemaDocument, error) {
	node, err := buildSchemaGraph(value)
	if err != nil {
		return customize.SchemaDocument{}, err
	}

	// The component registry is per call; Generate is safe for concurrent use.
	builder := newOpenAPIDocumentBuilder(g.config, newComponentRegistry(), node)
	document, err := builder.build()
	if err != nil {
		return customize.SchemaDocument{}, err
	}

	return customize.SchemaDocument{
		Format:   customize.SchemaFormatOpenAPI,
		Document: document,
	}, nil
}
