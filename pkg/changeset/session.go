package changeset

import (
	customize "github.com/goliatone/go-customize"
	"github.com/goliatone/go-customize/layering"
)

// SessionFor exposes a stored changeset as a customize.Session for scope.
// The session holds a detached copy of the staged values; later edits to the
// changeset do not leak into an already-built session.
func SessionFor(scope string, cs Changeset) customize.Session {
	values := make(map[string]any, len(cs.Values))
	for id, value := range cs.Values {
		values[id] = layering.Clone(value)
	}
	return &changesetSession{scope: scope, values: values}
}

type changesetSession struct {
	scope  string
	values map[string]any
}

func (s *changesetSession) ScopeID() string {
	return s.scope
}

func (s *changesetSession) StagedValue(id string) (any, bool) {
	value, ok := s.values[id]
	return value, ok
}
