package menustore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	customize "github.com/goliatone/go-customize"
)

type seedManifest struct {
	Menus []seedMenu `yaml:"menus"`
}

type seedMenu struct {
	Name  string           `yaml:"name"`
	Items []map[string]any `yaml:"items"`
}

// ImportResult reports what a seed import created.
type ImportResult struct {
	Menus int
	Items int
}

// ImportSeed reads a YAML seed manifest and inserts its menus and items.
// Existing menus are reused by name; items always insert fresh rows. Every
// item payload runs through the regular sanitizer before it reaches storage,
// so a seed file can be as loose as a staged value.
func ImportSeed(ctx context.Context, store *Store, r io.Reader) (ImportResult, error) {
	if store == nil {
		return ImportResult{}, fmt.Errorf("menustore: store is required")
	}

	var manifest seedManifest
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&manifest); err != nil {
		if errors.Is(err, io.EOF) {
			return ImportResult{}, nil
		}
		return ImportResult{}, fmt.Errorf("menustore: parse seed manifest: %w", err)
	}

	setting, err := customize.NewItemSetting(customize.NavMenuItemKind + "[0]")
	if err != nil {
		return ImportResult{}, fmt.Errorf("menustore: seed sanitizer: %w", err)
	}

	var result ImportResult
	for _, menu := range manifest.Menus {
		if menu.Name == "" {
			return result, fmt.Errorf("menustore: seed manifest: menu name is required")
		}

		menuID, created, err := store.ensureMenu(ctx, menu.Name)
		if err != nil {
			return result, err
		}
		if created {
			result.Menus++
		}

		for i, raw := range menu.Items {
			record, err := setting.Sanitize(raw)
			if err != nil {
				return result, fmt.Errorf("menustore: seed menu %q item %d: %w", menu.Name, i, err)
			}
			if record == nil {
				continue
			}
			if _, err := store.UpsertItem(ctx, menuID, 0, *record); err != nil {
				return result, fmt.Errorf("menustore: seed menu %q item %d: %w", menu.Name, i, err)
			}
			result.Items++
		}
	}
	return result, nil
}

func (s *Store) ensureMenu(ctx context.Context, name string) (int64, bool, error) {
	menu, err := s.CreateMenu(ctx, name)
	if err == nil {
		return menu.ID, true, nil
	}
	if !errors.Is(err, ErrAlreadyExists) {
		return 0, false, err
	}
	id, err := s.menuIDByName(ctx, name)
	if err != nil {
		return 0, false, err
	}
	return id, false, nil
}
