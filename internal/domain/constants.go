package domain

// Status is the lifecycle state of a request. A request is created pending
// and is resolved exactly once: pending -> approved or pending -> rejected.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known request states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// RequestKind identifies one of the three request collections.
type RequestKind string

const (
	KindDeposit      RequestKind = "deposit"
	KindWithdrawal   RequestKind = "withdrawal"
	KindVerification RequestKind = "verification"
)

// AdjustMode selects the direction of a staff balance adjustment.
type AdjustMode string

const (
	AdjustAdd      AdjustMode = "add"
	AdjustSubtract AdjustMode = "subtract"
)

const (
	DefaultLanguage = "ru"

	LanguageRU = "ru"
	LanguageEN = "en"
)
