package handler

// ResolveRequest is the body of POST /integrity/anomalies/{id}/resolve.
type ResolveRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// FlagRequest is the body of POST /integrity/fund-flows/{id}/flag. Severity
// defaults to medium.
type FlagRequest struct {
	Description string `json:"description" validate:"required,max=2000"`
	Severity    string `json:"severity" validate:"omitempty,oneof=low medium high critical"`
}
