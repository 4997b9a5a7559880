package customize

// ItemSetting binds one menu item record to its preview and commit lifecycle.
// An instance is request-scoped: overlay activation and the commit outcome
// live and die with the enclosing save transaction.
type ItemSetting struct {
	id      SettingID
	cfg     settingConfig
	overlay overlayState
	outcome *Outcome
}

// NewItemSetting parses raw into a SettingID and builds the setting around
// it. This is the only operation that can reject a setting: a malformed
// identifier fails with ErrInvalidIdentifier and no instance is created.
func NewItemSetting(raw string, opts ...SettingOption) (*ItemSetting, error) {
	id, err := ParseSettingID(raw)
	if err != nil {
		return nil, err
	}
	return &ItemSetting{
		id:  id,
		cfg: applySettingOptions(opts),
	}, nil
}

// ID returns the current identity. After a successful insert of a placeholder
// the key reflects the storage-assigned value.
func (s *ItemSetting) ID() SettingID {
	return s.id
}

// IsPlaceholder reports whether the setting still refers to an unsaved record.
func (s *ItemSetting) IsPlaceholder() bool {
	return s.id.IsPlaceholder()
}

// Previewed reports whether the overlay has been activated.
func (s *ItemSetting) Previewed() bool {
	return s.overlay.active
}

// Outcome returns the stored commit outcome, if a commit has happened.
func (s *ItemSetting) Outcome() (Outcome, bool) {
	if s.outcome == nil {
		return Outcome{}, false
	}
	return *s.outcome, true
}

func (s *ItemSetting) defaults() ItemRecord {
	if s.cfg.hasDefaults {
		return s.cfg.defaults
	}
	return DefaultRecord()
}

func (s *ItemSetting) scopeID() string {
	if s.cfg.session == nil {
		return ""
	}
	return s.cfg.session.ScopeID()
}

func (s *ItemSetting) stagedValue() (any, bool) {
	if s.cfg.session == nil {
		return nil, false
	}
	return s.cfg.session.StagedValue(s.id.String())
}

// WithStore wires the durable storage collaborator.
func WithStore(store ItemStore) SettingOption {
	return func(cfg *settingConfig) {
		cfg.store = store
		if lister, ok := store.(ItemLister); ok && cfg.lister == nil {
			cfg.lister = lister
		}
	}
}

// WithLister wires the listing collaborator when it is not the store itself.
func WithLister(lister ItemLister) SettingOption {
	return func(cfg *settingConfig) {
		cfg.lister = lister
	}
}

// WithSession wires the request session supplying scope and staged values.
func WithSession(session Session) SettingOption {
	return func(cfg *settingConfig) {
		cfg.session = session
	}
}

// WithDefaults overrides the baseline record merged under sanitized values.
func WithDefaults(defaults ItemRecord) SettingOption {
	return func(cfg *settingConfig) {
		cfg.defaults = defaults
		cfg.hasDefaults = true
	}
}
