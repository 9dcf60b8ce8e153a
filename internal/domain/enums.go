package domain

// Category is the clinical area a consent template belongs to.
type Category string

const (
	CategoryGeneral      Category = "General"
	CategorySurgery      Category = "Cirugía"
	CategoryOrthodontics Category = "Ortodoncia"
	CategoryImplantology Category = "Implantología"
	CategoryEndodontics  Category = "Endodoncia"
	CategoryPeriodontics Category = "Periodoncia"
	CategoryAesthetics   Category = "Estética"
	CategoryPediatric    Category = "Pediatría"
	CategoryEmergency    Category = "Urgencias"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryGeneral, CategorySurgery, CategoryOrthodontics, CategoryImplantology,
	CategoryEndodontics, CategoryPeriodontics, CategoryAesthetics, CategoryPediatric,
	CategoryEmergency,
}

func (c Category) String() string { return string(c) }

func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Language of a template's legal text.
type Language string

const (
	LanguageES Language = "es"
	LanguageEN Language = "en"
	LanguageCA Language = "ca"
)

func (l Language) String() string { return string(l) }

func (l Language) IsValid() bool {
	switch l {
	case LanguageES, LanguageEN, LanguageCA:
		return true
	}
	return false
}

// RecordStatus is the lifecycle state of a consent record.
type RecordStatus string

const (
	RecordStatusPending  RecordStatus = "pending"
	RecordStatusSent     RecordStatus = "sent"
	RecordStatusViewed   RecordStatus = "viewed"
	RecordStatusSigned   RecordStatus = "signed"
	RecordStatusRejected RecordStatus = "rejected"
	RecordStatusExpired  RecordStatus = "expired"
)

// RecordStatuses lists every status in lifecycle order.
var RecordStatuses = []RecordStatus{
	RecordStatusPending, RecordStatusSent, RecordStatusViewed,
	RecordStatusSigned, RecordStatusRejected, RecordStatusExpired,
}

func (s RecordStatus) String() string { return string(s) }

func (s RecordStatus) IsValid() bool {
	switch s {
	case RecordStatusPending, RecordStatusSent, RecordStatusViewed,
		RecordStatusSigned, RecordStatusRejected, RecordStatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s RecordStatus) IsTerminal() bool {
	switch s {
	case RecordStatusSigned, RecordStatusRejected, RecordStatusExpired:
		return true
	}
	return false
}

// AwaitsPatient reports whether the record has been delivered and the
// patient can still sign or reject it.
func (s RecordStatus) AwaitsPatient() bool {
	return s == RecordStatusSent || s == RecordStatusViewed
}

// DeliveryMethod is the channel a record was delivered through.
type DeliveryMethod string

const (
	DeliveryEmail    DeliveryMethod = "email"
	DeliverySMS      DeliveryMethod = "sms"
	DeliveryInPerson DeliveryMethod = "in-person"
	DeliveryPortal   DeliveryMethod = "portal"
)

func (m DeliveryMethod) String() string { return string(m) }

func (m DeliveryMethod) IsValid() bool {
	switch m {
	case DeliveryEmail, DeliverySMS, DeliveryInPerson, DeliveryPortal:
		return true
	}
	return false
}

// TemplateStatus is the effective, derived status of a template.
type TemplateStatus string

const (
	TemplateStatusActive   TemplateStatus = "active"
	TemplateStatusInactive TemplateStatus = "inactive"
	TemplateStatusExpired  TemplateStatus = "expired"
)

func (s TemplateStatus) String() string { return string(s) }

// EntityType identifies the kind of domain entity (used in audit logs).
type EntityType string

const (
	EntityTypeTemplate EntityType = "TEMPLATE"
	EntityTypeRecord   EntityType = "RECORD"
)

func (e EntityType) String() string { return string(e) }

func (e EntityType) IsValid() bool {
	switch e {
	case EntityTypeTemplate, EntityTypeRecord:
		return true
	}
	return false
}

// AuditAction represents the kind of mutation recorded in the audit log.
type AuditAction string

const (
	AuditActionCreate     AuditAction = "CREATE"
	AuditActionUpdate     AuditAction = "UPDATE"
	AuditActionNewVersion AuditAction = "NEW_VERSION"
	AuditActionDeactivate AuditAction = "DEACTIVATE"
	AuditActionApprove    AuditAction = "APPROVE"
	AuditActionSend       AuditAction = "SEND"
	AuditActionView       AuditAction = "VIEW"
	AuditActionSign       AuditAction = "SIGN"
	AuditActionReject     AuditAction = "REJECT"
	AuditActionExpire     AuditAction = "EXPIRE"
	AuditActionToken      AuditAction = "REGENERATE_TOKEN"
	AuditActionReminder   AuditAction = "REMINDER"
)

func (a AuditAction) String() string { return string(a) }

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionNewVersion, AuditActionDeactivate,
		AuditActionApprove, AuditActionSend, AuditActionView, AuditActionSign,
		AuditActionReject, AuditActionExpire, AuditActionToken, AuditActionReminder:
		return true
	}
	return false
}
