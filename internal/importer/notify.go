package importer

// Kind is the severity of a notification.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Steps that notifications are emitted for.
const (
	StepValidation  = "validation"
	StepSplit       = "split"
	StepTeam        = "team"
	StepPlayer      = "player"
	StepPersistence = "persistence"
	StepComplete    = "complete"
)

// Notification is one progress message of an import.
type Notification struct {
	Step    string `json:"step"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Find returns the first notification for step, if any.
func Find(ns []Notification, step string) (Notification, bool) {
	for _, n := range ns {
		if n.Step == step {
			return n, true
		}
	}
	return Notification{}, false
}
