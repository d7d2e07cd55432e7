package domain

type ValidationStatus string

const (
	StatusValidated   ValidationStatus = "validated"
	StatusUnvalidated ValidationStatus = "unvalidated"
)

// ReasonUndefinedLocation is reported when the requested place does not exist.
const ReasonUndefinedLocation = "undefined location"

// ValidationResult is the outcome of a geofence validation. An unvalidated
// result is a normal negative outcome, not a failure.
type ValidationResult struct {
	Status  ValidationStatus
	Reason  string
	Place   *Place
	Window  TimeWindow
	Records []Record
}

func Unvalidated(reason string) *ValidationResult {
	return &ValidationResult{Status: StatusUnvalidated, Reason: reason}
}

// Matched reports whether at least one record fell inside the place.
func (r *ValidationResult) Matched() bool {
	return r.Status == StatusValidated && len(r.Records) > 0
}
