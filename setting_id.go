package customize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrInvalidIdentifier indicates a setting identifier that does not match the
// kind[key] shape. Construction fails and must not be retried with the same
// input.
var ErrInvalidIdentifier = errors.New("customize: invalid setting identifier")

var settingIDPattern = regexp.MustCompile(`^([a-z0-9_]+)\[(-?[0-9]+)\]$`)

// SettingID identifies one item setting: a kind token plus a signed storage
// key. Keys at or below zero are placeholders for records that exist only in
// the current session and have never been persisted.
type SettingID struct {
	kind string
	key  int64
}

// ParseSettingID validates raw against the kind[key] pattern and extracts the
// signed key. Anything else fails with ErrInvalidIdentifier.
func ParseSettingID(raw string) (SettingID, error) {
	match := settingIDPattern.FindStringSubmatch(raw)
	if match == nil {
		return SettingID{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
	}
	key, err := strconv.ParseInt(match[2], 10, 64)
	if err != nil {
		return SettingID{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
	}
	return SettingID{kind: match[1], key: key}, nil
}

// Kind returns the kind token, e.g. "nav_menu_item".
func (id SettingID) Kind() string {
	return id.kind
}

// Key returns the signed storage key.
func (id SettingID) Key() int64 {
	return id.key
}

// IsPlaceholder reports whether the key refers to a record not yet assigned a
// real storage key.
func (id SettingID) IsPlaceholder() bool {
	return id.key <= 0
}

// String reconstructs the canonical identifier form.
func (id SettingID) String() string {
	return fmt.Sprintf("%s[%d]", id.kind, id.key)
}

// withKey produces the rebound identity adopted after a successful insert.
func (id SettingID) withKey(key int64) SettingID {
	return SettingID{kind: id.kind, key: key}
}
