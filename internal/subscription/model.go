package subscription

import "time"

// Record is the persisted license of one subject within one product scope.
type Record struct {
	SubjectID    string     `json:"subjectId" bson:"_id"`
	ExpiresOn    string     `json:"expiresOn" bson:"expiresOn"` // YYYY-MM-DD
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	RenewedAt    *time.Time `json:"renewedAt,omitempty" bson:"renewedAt,omitempty"`
	DurationDays int        `json:"durationDays" bson:"durationDays"`
}

// Patch lists the fields of a Record to overwrite. Nil fields are left alone.
type Patch struct {
	ExpiresOn    *string
	RenewedAt    *time.Time
	DurationDays *int
}

// Apply writes the set fields of p into r.
func (p Patch) Apply(r *Record) {
	if p.ExpiresOn != nil {
		r.ExpiresOn = *p.ExpiresOn
	}
	if p.RenewedAt != nil {
		t := *p.RenewedAt
		r.RenewedAt = &t
	}
	if p.DurationDays != nil {
		r.DurationDays = *p.DurationDays
	}
}

// Fields returns the set fields keyed by their JSON names.
func (p Patch) Fields() map[string]any {
	fields := make(map[string]any, 3)
	if p.ExpiresOn != nil {
		fields["expiresOn"] = *p.ExpiresOn
	}
	if p.RenewedAt != nil {
		fields["renewedAt"] = *p.RenewedAt
	}
	if p.DurationDays != nil {
		fields["durationDays"] = *p.DurationDays
	}
	return fields
}

type Status string

const (
	StatusActive         Status = "active"
	StatusExpired        Status = "expired"
	StatusNoSubscription Status = "no_subscription"
	StatusCreated        Status = "created"
	StatusRenewed        Status = "renewed"
	StatusCancelled      Status = "cancelled"
	StatusNotFound       Status = "not_found"
	StatusOK             Status = "ok"
	StatusInvalid        Status = "invalid"
	StatusUnauthorized   Status = "unauthorized"
	StatusUnknownProduct Status = "unknown_product"
	StatusError          Status = "error"
)

// State is the derived license state of a subject. ExpiresOn is empty for
// StatusNoSubscription.
type State struct {
	Status    Status
	ExpiresOn string
}

type Entry struct {
	Record
	Status Status `json:"status"`
}

type Stats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
}
