package customize

import (
	"time"

	"github.com/goliatone/go-customize/pkg/activity"
)

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

const (
	// SchemaFormatDescriptors represents the flattened field descriptors.
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	// SchemaFormatOpenAPI represents OpenAPI-compatible JSON Schema documents.
	SchemaFormatOpenAPI SchemaFormat = "openapi"
)

// SchemaDocument encapsulates a generated schema output alongside its format
// identifier. Implementations must ensure Document is JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat
	Document any
}

// SchemaGenerator transforms a record's map form into a schema document. All
// implementations MUST be safe for concurrent use and handle nil inputs by
// returning an empty schema document.
type SchemaGenerator interface {
	Generate(value any) (SchemaDocument, error)
}

// Response stores a typed result produced by an evaluator.
type Response[T any] struct {
	Value T
}

// RuleContext carries inputs needed when evaluating an expression.
type RuleContext struct {
	Record   any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Setting  string
	Scope    string
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) scopeLabel() string {
	if ctx.Scope != "" {
		return ctx.Scope
	}
	return "unknown"
}

// recordAsMap returns the context record when it is map-shaped.
func recordAsMap(value any) map[string]any {
	switch typed := value.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return typed
	case ItemRecord:
		return typed.Map()
	case *ItemRecord:
		if typed == nil {
			return map[string]any{}
		}
		return typed.Map()
	default:
		return map[string]any{}
	}
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// SettingOption configures an ItemSetting at construction.
type SettingOption func(*settingConfig)

type settingConfig struct {
	store           ItemStore
	lister          ItemLister
	session         Session
	defaults        ItemRecord
	hasDefaults     bool
	transaction     *SaveTransaction
	filters         *ListingFilters
	sanitizeHooks   []SanitizeHook
	rules           []ValidationRule
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	logger          Logger
	schemaGenerator SchemaGenerator
	activityHooks   activity.Hooks
}

func applySettingOptions(opts []SettingOption) settingConfig {
	cfg := settingConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (s *ItemSetting) evaluator() Evaluator {
	return s.cfg.evaluator
}

func (s *ItemSetting) withEvaluator(e Evaluator) {
	s.cfg.evaluator = e
}

func (s *ItemSetting) programCache() ProgramCache {
	return s.cfg.programCache
}

func (s *ItemSetting) functionRegistry() *FunctionRegistry {
	return s.cfg.functions
}

// WithSchemaGenerator configures a custom schema generator implementation.
func WithSchemaGenerator(generator SchemaGenerator) SettingOption {
	return func(cfg *settingConfig) {
		cfg.schemaGenerator = generator
	}
}

func (s *ItemSetting) schemaGenerator() SchemaGenerator {
	if s == nil {
		return DefaultSchemaGenerator()
	}
	if s.cfg.schemaGenerator != nil {
		return s.cfg.schemaGenerator
	}
	return DefaultSchemaGenerator()
}
