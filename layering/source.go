package layering

// SourceLevel identifies where a resolved record value came from. Higher
// levels take precedence when the preview overlay is active.
type SourceLevel int

const (
	// SourceUnknown guards against missing provenance so call sites can detect
	// values that bypassed resolution.
	SourceUnknown SourceLevel = iota
	// SourceDefaults marks the built-in default record (weakest).
	SourceDefaults
	// SourceStored marks a record fetched from durable storage.
	SourceStored
	// SourceOriginal marks the snapshot captured when the overlay activated.
	SourceOriginal
	// SourceStaged marks an unsaved client value substituted by the overlay
	// (strongest).
	SourceStaged
)

func (l SourceLevel) String() string {
	switch l {
	case SourceDefaults:
		return "defaults"
	case SourceStored:
		return "stored"
	case SourceOriginal:
		return "original"
	case SourceStaged:
		return "staged"
	default:
		return "unknown"
	}
}

// ParseSourceLevel converts a string representation into the corresponding
// SourceLevel. Returns SourceUnknown for unrecognised values.
func ParseSourceLevel(value string) SourceLevel {
	switch value {
	case "defaults", "DEFAULTS":
		return SourceDefaults
	case "stored", "STORED":
		return SourceStored
	case "original", "ORIGINAL":
		return SourceOriginal
	case "staged", "STAGED":
		return SourceStaged
	default:
		return SourceUnknown
	}
}
