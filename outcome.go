package customize

import "encoding/json"

// Commit statuses.
const (
	OutcomeUpdated  = "updated"
	OutcomeInserted = "inserted"
	OutcomeDeleted  = "deleted"
	OutcomeError    = "error"
)

// Outcome is the immutable result of one commit attempt. Setting holds the
// identifier the client used at commit entry, so a placeholder id survives
// the identity rebind and the client can reconcile its own state against
// PreviousKey and Key.
type Outcome struct {
	Setting     string `json:"setting"`
	Status      string `json:"status"`
	Key         int64  `json:"key"`
	PreviousKey *int64 `json:"previous_key,omitempty"`
	Code        string `json:"code,omitempty"`
	Err         error  `json:"-"`
}

// ToJSON serialises the outcome for transport inside the save response.
func (o Outcome) ToJSON() ([]byte, error) {
	type alias Outcome
	return json.Marshal(alias(o))
}

// OutcomeFromJSON deserialises a payload previously generated via ToJSON.
func OutcomeFromJSON(payload []byte) (Outcome, error) {
	type alias Outcome
	var out alias
	if err := json.Unmarshal(payload, &out); err != nil {
		return Outcome{}, err
	}
	return Outcome(out), nil
}
