package notification

import "time"

type Type string

const (
	TypeRequestCreated       Type = "request_created"
	TypeRequestResolved      Type = "request_resolved"
	TypeProfileApproved      Type = "profile_approved"
	TypeProfileRejected      Type = "profile_rejected"
	TypeProfilePendingReview Type = "profile_pending_review"
	TypeEnrichmentFailed     Type = "enrichment_failed"
)

// Notification is addressed to a recipient topic rather than a user, so HR
// notifications reach every HR account of the company.
type Notification struct {
	ID        string
	CompanyID string
	Recipient string
	Type      Type
	Title     string
	Message   string
	Data      map[string]interface{}
	CreatedAt time.Time
}

func EmployeeRecipient(employeeID string) string {
	return "employee:" + employeeID
}

func HRRecipient(companyID string) string {
	return "company:" + companyID + ":hr"
}
