// Package menustore persists menus, navigation items, and changesets in
// sqlite. It implements the core storage contracts (ItemStore, ItemLister)
// and the changeset Store, so one database file backs both the commit engine
// and long-lived preview sessions.
//
// Storage failures surface as customize.StorageError values whose codes the
// commit engine lifts into outcomes: "not_found" for updates or deletes of a
// missing key, "invalid_menu" for inserts into an unknown menu.
//
// Changeset payloads are stored as zstd-compressed JSON. The blake3 digest of
// the uncompressed JSON is the row's ETag and is verified on every load.
package menustore
