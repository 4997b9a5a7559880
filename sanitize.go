package customize

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/goliatone/go-customize/internal/hydrate"
	"github.com/goliatone/go-customize/layering"
)

// ErrInvalidValue indicates a staged value that cannot become a record. The
// affected commit must be skipped; an invalid value is never treated as a
// delete.
var ErrInvalidValue = errors.New("customize: invalid setting value")

// SanitizeHook transforms or rejects an already sanitized record before it is
// accepted. Hooks run in registration order with the setting identity.
type SanitizeHook func(id SettingID, record ItemRecord) (ItemRecord, error)

// WithSanitizeHook appends a per-setting sanitize extension.
func WithSanitizeHook(hook SanitizeHook) SettingOption {
	return func(cfg *settingConfig) {
		if hook == nil {
			return
		}
		cfg.sanitizeHooks = append(cfg.sanitizeHooks, hook)
	}
}

var (
	intFields       = []string{"object_id", "parent_id", "position", "menu_id"}
	keyFields       = []string{"kind", "object_kind", "target"}
	tokenListFields = []string{"classes", "relation"}
	textFields      = []string{"title", "title_attr", "description"}
)

// Sanitize normalizes a raw staged value into a record, or recognizes the
// delete marker. nil and false pass through as (nil, nil); any non-mapping
// input fails with ErrInvalidValue. The pipeline is idempotent: feeding a
// sanitized record back through produces an identical record.
func (s *ItemSetting) Sanitize(raw any) (*ItemRecord, error) {
	switch value := raw.(type) {
	case nil:
		return nil, nil
	case bool:
		if !value {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: true is not a record", ErrInvalidValue)
	case ItemRecord:
		return s.sanitizeMap(value.Map())
	case *ItemRecord:
		if value == nil {
			return nil, nil
		}
		return s.sanitizeMap(value.Map())
	case map[string]any:
		return s.sanitizeMap(value)
	default:
		return nil, fmt.Errorf("%w: %T is not a record", ErrInvalidValue, raw)
	}
}

func (s *ItemSetting) sanitizeMap(payload map[string]any) (*ItemRecord, error) {
	merged := layering.Merge(payload, s.defaults().Map())

	for _, field := range intFields {
		merged[field] = coerceNonNegative(merged[field])
	}
	for _, field := range keyFields {
		merged[field] = SafeKey(stringValue(merged[field]))
	}
	for _, field := range tokenListFields {
		merged[field] = SafeTokenList(stringValue(merged[field]))
	}
	for _, field := range textFields {
		merged[field] = SafeText(stringValue(merged[field]))
	}
	merged["url"] = SafeURL(stringValue(merged["url"]))
	merged["status"] = constrainStatus(stringValue(merged["status"]))

	record, err := s.decodeRecord(merged)
	if err != nil {
		return nil, wrapInvalidValue(err)
	}
	for _, hook := range s.cfg.sanitizeHooks {
		if hook == nil {
			continue
		}
		record, err = hook(s.id, record)
		if err != nil {
			return nil, wrapInvalidValue(err)
		}
	}
	if err := s.Validate(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

// decodeRecord projects a loose mapping onto the declared field set, dropping
// unknown fields.
func (s *ItemSetting) decodeRecord(payload map[string]any) (ItemRecord, error) {
	decoder := hydrate.NewDecoder[ItemRecord]()
	return decoder.Decode(hydrate.Context{
		Setting: s.id.String(),
		Scope:   s.scopeID(),
	}, payload)
}

func wrapInvalidValue(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidValue) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInvalidValue, err)
}

// coerceNonNegative renders identifier/position-like inputs as non-negative
// integers. Negative or non-numeric inputs become 0.
func coerceNonNegative(value any) int64 {
	var n int64
	switch typed := value.(type) {
	case nil:
		return 0
	case int:
		n = int64(typed)
	case int32:
		n = int64(typed)
	case int64:
		n = typed
	case float32:
		n = int64(typed)
	case float64:
		n = int64(typed)
	case json.Number:
		parsed, err := typed.Int64()
		if err != nil {
			f, ferr := typed.Float64()
			if ferr != nil {
				return 0
			}
			parsed = int64(f)
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0
		}
		n = int64(parsed)
	default:
		return 0
	}
	if n < 0 {
		return 0
	}
	return n
}

func stringValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case json.Number:
		return typed.String()
	case fmt.Stringer:
		return typed.String()
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(typed, 10)
	case int:
		return strconv.Itoa(typed)
	case bool:
		return ""
	default:
		return ""
	}
}

// SafeKey coerces input into a lowercase key token of [a-z0-9_-].
func SafeKey(input string) string {
	lowered := strings.ToLower(input)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SafeToken coerces input into an HTML-class-like token of [A-Za-z0-9_-].
func SafeToken(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SafeTokenList splits input on whitespace, constrains each token via
// SafeToken, drops empties, and rejoins with single spaces.
func SafeTokenList(input string) string {
	fields := strings.Fields(input)
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		token := SafeToken(field)
		if token == "" {
			continue
		}
		tokens = append(tokens, token)
	}
	return strings.Join(tokens, " ")
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// SafeText normalizes free text: NFC form, markup and control characters
// removed, whitespace collapsed to single spaces.
func SafeText(input string) string {
	normalized := norm.NFC.String(input)
	stripped := tagPattern.ReplaceAllString(normalized, "")
	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if unicode.IsControl(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

var allowedURLSchemes = map[string]struct{}{
	"":       {},
	"http":   {},
	"https":  {},
	"ftp":    {},
	"mailto": {},
	"tel":    {},
}

// SafeURL normalizes a URL for storage and redisplay. Malformed or
// disallowed-scheme input becomes the empty string.
func SafeURL(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}
	if _, ok := allowedURLSchemes[parsed.Scheme]; !ok {
		return ""
	}
	return parsed.String()
}

func constrainStatus(status string) string {
	if status == StatusPublish || status == StatusDraft {
		return status
	}
	return StatusDraft
}
