package customize

import (
	"context"
	"testing"
)

func BenchmarkResolveStaged(b *testing.B) {
	store := NewMemoryItemStore()
	stored := CustomItem("Home", "https://example.com/")
	stored.MenuID = 2
	stored.Position = 1
	store.Seed(stored)

	session := NewMemorySession("site:1", nil)
	setting, err := NewItemSetting("nav_menu_item[1]",
		WithStore(store),
		WithSession(session),
	)
	if err != nil {
		b.Fatalf("new setting: %v", err)
	}
	session.Stage(setting.ID().String(), map[string]any{
		"title":    "Staged Home",
		"url":      "https://example.com/",
		"menu_id":  2,
		"position": 1,
	})
	ctx := context.Background()
	if err := setting.ActivatePreview(ctx); err != nil {
		b.Fatalf("activate: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if record := setting.Resolve(ctx); record == nil {
			b.Fatal("resolve: staged record missing")
		}
	}
}
