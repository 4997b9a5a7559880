// Package changeset persists staged setting values beyond a single request.
// A changeset is a named batch of raw staged payloads that moves through
// draft -> pending -> published, with an optional publish schedule while
// pending.
//
// Responsibilities:
//   - Store only loads/saves/deletes one changeset per Ref; all persistence
//     logic stays behind Store implementations supplied by consumers.
//   - Manager orchestrates load -> mutate -> validate -> save cycles and the
//     publish hand-off, enforcing optimistic concurrency via Meta.ETag.
//   - SessionFor bridges a stored changeset into the core session contract,
//     so a preview overlay can resolve against values staged days earlier.
//
// Deterministic keys:
//
//	Ref.Identifier() yields "<scope>/<uuid>" with the UUID validated and
//	normalized to canonical lowercase form. Stores index by this key.
//
// ETags are storage-owned: Save returns the authoritative Meta and callers
// echo the ETag back through Mutate or Publish to detect concurrent writers.
package changeset
