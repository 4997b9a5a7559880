package openapi

import (
	"reflect"
	"testing"
)

func TestBuildSchemaGraphMetadata(t *testing.T) {
	type ParentRef struct {
		Key   int64  `json:"key" default:"0" minimum:"0" formgen:"label=Parent,widget=lookup"`
		Title string `json:"title,omitempty" maxLength:"120"`
	}
	type MenuItem struct {
		Title    string      `json:"title" default:"New item" minLength:"1" maxLength:"120" pattern:"^.{1,120}$" formgen:"label=Title,placeholder=Enter title"`
		Position int         `json:"position" minimum:"0" maximum:"500" default:"0" enum:"0,10" formgen:"label=Position"`
		Hidden   *bool       `json:"hidden,omitempty" default:"false"`
		Status   string      `json:"status,omitempty" enum:"publish,draft" relationship:"type=belongsTo,target=#/components/schemas/Status"`
		Parent   ParentRef   `json:"parent"`
		Children []ParentRef `json:"children"`
	}

	node, err := buildSchemaGraph(MenuItem{})
	if err != nil {
		t.Fatalf("buildSchemaGraph returned error: %v", err)
	}

	schema := node.inlineOpenAPI()
	if schema["type"] != "object" {
		t.Fatalf("expected object type, got %v", schema["type"])
	}
	required, ok := schema["required"].([]string)
	if !ok {
		t.Fatalf("expected required slice, got %T", schema["required"])
	}
	expectedRequired := []string{"children", "parent", "position", "title"}
	if !reflect.DeepEqual(expectedRequired, required) {
		t.Fatalf("unexpected required fields\nwant: %v\ngot:  %v", expectedRequired, required)
	}

	props := schema["properties"].(map[string]any)
	title := props["title"].(map[string]any)
	if title["default"] != "New item" {
		t.Fatalf("expected title default New item, got %v", title["default"])
	}
	if title["minLength"].(int) != 1 {
		t.Fatalf("expected title minLength 1, got %v", title["minLength"])
	}
	formgen := title["x-formgen"].(map[string]any)
	if formgen["label"] != "Title" {
		t.Fatalf("expected title formgen label, got %v", formgen["label"])
	}
	if formgen["placeholder"] != "Enter title" {
		t.Fatalf("expected title placeholder Enter title, got %v", formgen["placeholder"])
	}

	position := props["position"].(map[string]any)
	if position["minimum"].(float64) != 0 {
		t.Fatalf("expected position minimum 0, got %v", position["minimum"])
	}
	if position["maximum"].(float64) != 500 {
		t.Fatalf("expected position maximum 500, got %v", position["maximum"])
	}
	if position["default"] != int64(0) {
		t.Fatalf("expected position default 0, got %v", position["default"])
	}
	enum := position["enum"].([]any)
	if len(enum) != 2 || enum[0] != int64(0) || enum[1] != int64(10) {
		t.Fatalf("unexpected position enum %v", enum)
	}

	status := props["status"].(map[string]any)
	relationships := status["x-relationships"].(map[string]any)
	if relationships["type"] != "belongsTo" {
		t.Fatalf("expected relationship type belongsTo, got %v", relationships["type"])
	}
	if relationships["target"] != "#/components/schemas/Status" {
		t.Fatalf("expected relationship target, got %v", relationships["target"])
	}

	parent := props["parent"].(map[string]any)
	if _, exists := parent["required"]; !exists {
		t.Fatalf("expected parent required metadata")
	}
	children := props["children"].(map[string]any)
	items := children["items"].(map[string]any)
	if items["type"] != "object" {
		t.Fatalf("expected array items object type, got %v", items["type"])
	}
}

func TestSchemaNodeDigest(t *testing.T) {
	type A struct {
		Title string `json:"title" minLength:"3"`
	}
	type B struct {
		Title string `json:"title" minLength:"4"`
	}

	nodeA1, err := buildSchemaGraph(A{})
	if err != nil {
		t.Fatalf("buildSchemaGraph(A) error: %v", err)
	}
	nodeA2, err := buildSchemaGraph(A{})
	if err != nil {
		t.Fatalf("buildSchemaGraph(A) second error: %v", err)
	}
	if nodeA1.Digest() != nodeA2.Digest() {
		t.Fatalf("expected identical digests for equivalent schemas")
	}

	nodeB, err := buildSchemaGraph(B{})
	if err != nil {
		t.Fatalf("buildSchemaGraph(B) error: %v", err)
	}
	if nodeA1.Digest() == nodeB.Digest() {
		t.Fatalf("expected differing digests for differing schemas")
	}
}
