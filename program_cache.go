package customize

// ProgramCache stores compiled expression programs keyed by expression
// strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache for the rule evaluator.
func WithProgramCache(cache ProgramCache) SettingOption {
	return func(cfg *settingConfig) {
		cfg.programCache = cache
	}
}
