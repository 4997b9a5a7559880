package menustore_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-customize/pkg/menustore"
)

func openSeedManifest(t *testing.T) *os.File {
	t.Helper()

	f, err := os.Open(filepath.Join("testdata", "seed_menus.yaml"))
	if err != nil {
		t.Fatalf("open seed manifest: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestImportSeed(t *testing.T) {
	store := openTestStore(t)

	result, err := menustore.ImportSeed(context.Background(), store, openSeedManifest(t))
	if err != nil {
		t.Fatalf("ImportSeed returned error: %v", err)
	}
	if result.Menus != 2 || result.Items != 3 {
		t.Fatalf("expected 2 menus and 3 items, got %+v", result)
	}

	menus, err := store.ListMenus(context.Background())
	if err != nil {
		t.Fatalf("list menus: %v", err)
	}
	if len(menus) != 2 || menus[0].Name != "Primary" || menus[1].Name != "Footer" {
		t.Fatalf("unexpected menus: %+v", menus)
	}

	primary, err := store.ListItems(context.Background(), menus[0].ID)
	if err != nil {
		t.Fatalf("list primary items: %v", err)
	}
	if len(primary) != 2 {
		t.Fatalf("expected 2 primary items, got %d", len(primary))
	}
	if primary[0].Record.Title != "Home" {
		t.Fatalf("expected sanitized title Home, got %q", primary[0].Record.Title)
	}
	if primary[1].Record.Classes != "btn nav-item" {
		t.Fatalf("expected collapsed class tokens, got %q", primary[1].Record.Classes)
	}

	footer, err := store.ListItems(context.Background(), menus[1].ID)
	if err != nil {
		t.Fatalf("list footer items: %v", err)
	}
	if len(footer) != 1 {
		t.Fatalf("expected 1 footer item, got %d", len(footer))
	}
	if footer[0].Record.URL != "" {
		t.Fatalf("expected unsafe url to be dropped, got %q", footer[0].Record.URL)
	}
	if footer[0].Record.Target != "_blank" {
		t.Fatalf("expected lowercased target, got %q", footer[0].Record.Target)
	}
}

func TestImportSeedReusesExistingMenu(t *testing.T) {
	store := openTestStore(t)
	createTestMenu(t, store, "Primary")

	result, err := menustore.ImportSeed(context.Background(), store, openSeedManifest(t))
	if err != nil {
		t.Fatalf("ImportSeed returned error: %v", err)
	}
	if result.Menus != 1 {
		t.Fatalf("expected only Footer to be created, got %d new menus", result.Menus)
	}
	if result.Items != 3 {
		t.Fatalf("expected 3 items, got %d", result.Items)
	}
}

func TestImportSeedRejectsUnknownFields(t *testing.T) {
	store := openTestStore(t)

	_, err := menustore.ImportSeed(context.Background(), store, strings.NewReader("menuz:\n  - name: Primary\n"))
	if err == nil || !strings.Contains(err.Error(), "parse seed manifest") {
		t.Fatalf("expected manifest parse error, got %v", err)
	}
}

func TestImportSeedEmptyInput(t *testing.T) {
	store := openTestStore(t)

	result, err := menustore.ImportSeed(context.Background(), store, strings.NewReader(""))
	if err != nil {
		t.Fatalf("expected empty manifest to be a no-op, got %v", err)
	}
	if result.Menus != 0 || result.Items != 0 {
		t.Fatalf("expected zero result, got %+v", result)
	}
}

func TestImportSeedRejectsInvalidItem(t *testing.T) {
	store := openTestStore(t)

	manifest := "menus:\n  - name: Primary\n    items:\n      - [not, a, mapping]\n"
	_, err := menustore.ImportSeed(context.Background(), store, strings.NewReader(manifest))
	if err == nil {
		t.Fatal("expected an error for a non-mapping item")
	}
}
