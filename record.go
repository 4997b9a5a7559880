package customize

import "encoding/json"

// NavMenuItemKind is the setting kind this package manages.
const NavMenuItemKind = "nav_menu_item"

// Item kinds.
const (
	KindCustom   = "custom"
	KindObject   = "object"
	KindTaxonomy = "taxonomy"
)

// Publication statuses. Anything else sanitizes to draft.
const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
)

// ItemRecord is the fixed field set of one navigation menu item. A value is
// either a full record of exactly these fields or, expressed as a nil
// *ItemRecord, a deletion marker.
type ItemRecord struct {
	ObjectID    int64  `json:"object_id"`
	ObjectKind  string `json:"object_kind"`
	ParentID    int64  `json:"parent_id"`
	Position    int64  `json:"position"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Target      string `json:"target"`
	TitleAttr   string `json:"title_attr"`
	Description string `json:"description"`
	Classes     string `json:"classes"`
	Relation    string `json:"relation"`
	Status      string `json:"status"`
	MenuID      int64  `json:"menu_id"`
}

// DefaultRecord returns the baseline merged under every sanitized value.
func DefaultRecord() ItemRecord {
	return ItemRecord{
		Kind:   KindCustom,
		Status: StatusPublish,
	}
}

// CustomItem builds a record for a free-form link.
func CustomItem(title, url string) ItemRecord {
	record := DefaultRecord()
	record.Title = title
	record.URL = url
	return record
}

// ObjectItem builds a record pointing at a stored content object.
func ObjectItem(objectKind string, objectID int64) ItemRecord {
	record := DefaultRecord()
	record.Kind = KindObject
	record.ObjectKind = objectKind
	record.ObjectID = objectID
	return record
}

// TaxonomyItem builds a record pointing at a taxonomy term.
func TaxonomyItem(objectKind string, objectID int64) ItemRecord {
	record := DefaultRecord()
	record.Kind = KindTaxonomy
	record.ObjectKind = objectKind
	record.ObjectID = objectID
	return record
}

// Map projects the record onto a JSON-shaped mapping keyed by the declared
// field names.
func (r ItemRecord) Map() map[string]any {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil
	}
	return out
}

// Clone returns a detached copy; nil stays nil.
func (r *ItemRecord) Clone() *ItemRecord {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}

// MenuItem pairs a storage key with its record inside listing results.
type MenuItem struct {
	Key    int64      `json:"key"`
	Record ItemRecord `json:"record"`
}
