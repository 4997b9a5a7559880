package customize_test

import (
	"testing"

	customize "github.com/goliatone/go-customize"
	openapi "github.com/goliatone/go-customize/schema/openapi"
)

func TestOpenAPIGeneratorIntegration(t *testing.T) {
	setting, err := customize.NewItemSetting("nav_menu_item[42]",
		customize.WithDefaults(customize.CustomItem("Home", "https://example.com/")),
		openapi.Option(),
	)
	if err != nil {
		t.Fatalf("NewItemSetting returned error: %v", err)
	}

	doc, err := setting.Schema()
	if err != nil {
		t.Fatalf("Schema returned error: %v", err)
	}
	if doc.Format != customize.SchemaFormatOpenAPI {
		t.Fatalf("expected format %q, got %q", customize.SchemaFormatOpenAPI, doc.Format)
	}
	schema, ok := doc.Document.(map[string]any)
	if !ok {
		t.Fatalf("expected schema map, got %T", doc.Document)
	}
	paths, ok := schema["paths"].(map[string]any)
	if !ok {
		t.Fatalf("expected paths map, got %T", schema["paths"])
	}
	pathItem, ok := paths["/settings"].(map[string]any)
	if !ok {
		t.Fatalf("expected /settings path map, got %T", paths["/settings"])
	}
	operation, ok := pathItem["post"].(map[string]any)
	if !ok {
		t.Fatalf("expected post operation map, got %T", pathItem["post"])
	}
	requestBody, ok := operation["requestBody"].(map[string]any)
	if !ok {
		t.Fatalf("expected requestBody map, got %T", operation["requestBody"])
	}
	content, ok := requestBody["content"].(map[string]any)
	if !ok {
		t.Fatalf("expected content map, got %T", requestBody["content"])
	}
	media, ok := content["application/json"].(map[string]any)
	if !ok {
		t.Fatalf("expected application/json content, got %T", content["application/json"])
	}
	bodySchema, ok := media["schema"].(map[string]any)
	if !ok {
		t.Fatalf("expected schema map, got %T", media["schema"])
	}
	properties, ok := bodySchema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties map, got %T", bodySchema["properties"])
	}
	for _, field := range []string{"title", "url", "position", "menu_id", "status"} {
		if _, exists := properties[field]; !exists {
			t.Fatalf("expected properties to include %s", field)
		}
	}
}
