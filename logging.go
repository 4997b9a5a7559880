package customize

import "time"

// LogEvent describes one observable operation for logging.
type LogEvent struct {
	Op       string
	Engine   string
	Setting  string
	Scope    string
	Expr     string
	Duration time.Duration
	Err      error
}

// Logger records setting lifecycle and evaluator events.
type Logger interface {
	LogEvent(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// LogEvent implements Logger.
func (f LoggerFunc) LogEvent(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogEvent(LogEvent) {}

// WithLogger attaches a logger to the setting.
func WithLogger(logger Logger) SettingOption {
	return func(cfg *settingConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

func (s *ItemSetting) logger() Logger {
	if s.cfg.logger != nil {
		return s.cfg.logger
	}
	return noopLogger{}
}

func (s *ItemSetting) log(event LogEvent) {
	s.logger().LogEvent(event)
}
