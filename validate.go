package customize

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNoEvaluator = errors.New("customize: evaluator not configured")

// ValidationRule is an expression evaluated against the sanitized record. The
// rule passes when the expression yields a truthy result.
type ValidationRule struct {
	Name string
	Expr string
}

// WithValidationRule appends one validation rule.
func WithValidationRule(rule ValidationRule) SettingOption {
	return func(cfg *settingConfig) {
		cfg.rules = append(cfg.rules, rule)
	}
}

// WithValidationRules appends validation rules in order.
func WithValidationRules(rules ...ValidationRule) SettingOption {
	return func(cfg *settingConfig) {
		cfg.rules = append(cfg.rules, rules...)
	}
}

// WithRuleEvaluator configures the expression engine used for rules and
// ad-hoc evaluation.
func WithRuleEvaluator(e Evaluator) SettingOption {
	return func(cfg *settingConfig) {
		cfg.evaluator = e
	}
}

// Validate runs the configured rules against record. A nil record is the
// delete marker and passes. Failures wrap ErrInvalidValue.
func (s *ItemSetting) Validate(record *ItemRecord) error {
	if record == nil || len(s.cfg.rules) == 0 {
		return nil
	}
	ctx := RuleContext{
		Record:  record.Map(),
		Setting: s.id.String(),
		Scope:   s.scopeID(),
	}
	for _, rule := range s.cfg.rules {
		if rule.Expr == "" {
			continue
		}
		result, err := s.evaluateRule(ctx, rule.Expr)
		if err != nil {
			return fmt.Errorf("%w: rule %q: %v", ErrInvalidValue, ruleLabel(rule), err)
		}
		if !truthy(result) {
			return fmt.Errorf("%w: rule %q rejected the record", ErrInvalidValue, ruleLabel(rule))
		}
	}
	return nil
}

func ruleLabel(rule ValidationRule) string {
	if rule.Name != "" {
		return rule.Name
	}
	return rule.Expr
}

// Evaluate executes expr against the current resolved record and wraps the
// result.
func (s *ItemSetting) Evaluate(ctx context.Context, expr string) (Response[any], error) {
	if expr == "" {
		return Response[any]{}, fmt.Errorf("expression must not be empty")
	}
	record := s.Resolve(ctx)
	ruleCtx := RuleContext{
		Record:  recordAsMap(record),
		Setting: s.id.String(),
		Scope:   s.scopeID(),
	}
	value, err := s.evaluateRule(ruleCtx, expr)
	if err != nil {
		return Response[any]{}, err
	}
	return Response[any]{Value: value}, nil
}

// EvaluateWith executes expr using ruleCtx, falling back to the current
// resolved record when ruleCtx.Record is nil.
func (s *ItemSetting) EvaluateWith(ruleCtx RuleContext, expr string) (Response[any], error) {
	if expr == "" {
		return Response[any]{}, fmt.Errorf("expression must not be empty")
	}
	if ruleCtx.Record == nil {
		ruleCtx.Record = recordAsMap(s.Resolve(context.Background()))
	}
	if ruleCtx.Setting == "" {
		ruleCtx.Setting = s.id.String()
	}
	if ruleCtx.Scope == "" {
		ruleCtx.Scope = s.scopeID()
	}
	value, err := s.evaluateRule(ruleCtx, expr)
	if err != nil {
		return Response[any]{}, err
	}
	return Response[any]{Value: value}, nil
}

func (s *ItemSetting) evaluateRule(ruleCtx RuleContext, expr string) (any, error) {
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	ruleCtx = ruleCtx.withDefaultNow().withDefaultMaps()
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ruleCtx, expr)
	duration := time.Since(start)
	evalErr = wrapEvaluationError(engine, expr, ruleCtx.scopeLabel(), evalErr)
	s.log(LogEvent{
		Op:       "evaluate",
		Engine:   engine,
		Setting:  s.id.String(),
		Scope:    ruleCtx.scopeLabel(),
		Expr:     expr,
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

func (s *ItemSetting) resolveEvaluator() (Evaluator, error) {
	evaluator := s.evaluator()
	if evaluator != nil {
		return evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cache := s.programCache(); cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cache))
	}
	if registry := s.functionRegistry(); registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
	}
	defaultEvaluator := NewExprEvaluator(exprOpts...)
	if defaultEvaluator == nil {
		return nil, ErrNoEvaluator
	}
	s.withEvaluator(defaultEvaluator)
	return defaultEvaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*customize.exprEvaluator":
		return "expr"
	case "*customize.celEvaluator":
		return "cel"
	case "*customize.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}

func truthy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		return typed != ""
	case int:
		return typed != 0
	case int32:
		return typed != 0
	case int64:
		return typed != 0
	case uint64:
		return typed != 0
	case float32:
		return typed != 0
	case float64:
		return typed != 0
	default:
		return true
	}
}
