package domain

import "time"

// TenantRecord is implemented by every domain entity that is scoped to a
// tenant. The isolation layer only ever talks to records through this
// interface, so the tenant check cannot be bypassed by forgetting a field.
type TenantRecord interface {
	Tenant() string
	Meta() *TenantMeta
}

// TenantMeta carries the ownership fields stamped onto every tenant-scoped
// record. TenantID is immutable after creation and must equal the tenant of
// the context that created the record.
//
// TenantValidated distinguishes records stamped through the isolation layer
// from records deserialized straight from storage or a request body; it is
// never persisted.
type TenantMeta struct {
	TenantID        string    `json:"tenant_id" bson:"tenant_id"`
	CreatedBy       string    `json:"created_by,omitempty" bson:"created_by,omitempty"`
	UpdatedBy       string    `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
	TenantValidated bool      `json:"-" bson:"-"`
}

func (m *TenantMeta) Tenant() string    { return m.TenantID }
func (m *TenantMeta) Meta() *TenantMeta { return m }

// AnimalStatus represents the lifecycle state of an animal record.
type AnimalStatus string

const (
	AnimalActive   AnimalStatus = "active"
	AnimalSold     AnimalStatus = "sold"
	AnimalDeceased AnimalStatus = "deceased"
)

// Animal is the primary aggregate of the farm dashboard: one head of
// livestock with its identification and husbandry details.
type Animal struct {
	TenantMeta `bson:",inline"`

	ID        string       `json:"id" bson:"_id,omitempty"`
	RFIDTag   string       `json:"rfid_tag" bson:"rfid_tag"`
	Name      string       `json:"name" bson:"name"`
	Species   string       `json:"species" bson:"species"`
	Breed     string       `json:"breed,omitempty" bson:"breed,omitempty"`
	BirthDate time.Time    `json:"birth_date" bson:"birth_date"`
	WeightKg  float64      `json:"weight_kg,omitempty" bson:"weight_kg,omitempty"`
	Status    AnimalStatus `json:"status" bson:"status"`
	// Notes may hold veterinary details; encrypted at rest when field
	// encryption is enabled.
	Notes string `json:"notes,omitempty" bson:"notes,omitempty"`
}

// HealthRecord documents a single treatment or checkup for an animal.
type HealthRecord struct {
	TenantMeta `bson:",inline"`

	ID        string    `json:"id" bson:"_id,omitempty"`
	AnimalID  string    `json:"animal_id" bson:"animal_id"`
	Type      string    `json:"type" bson:"type"`
	Diagnosis string    `json:"diagnosis,omitempty" bson:"diagnosis,omitempty"`
	Treatment string    `json:"treatment,omitempty" bson:"treatment,omitempty"`
	Date      time.Time `json:"date" bson:"date"`
}

// FinancialRecord is a single income or expense line.
type FinancialRecord struct {
	TenantMeta `bson:",inline"`

	ID          string    `json:"id" bson:"_id,omitempty"`
	Kind        string    `json:"kind" bson:"kind"` // income | expense
	Category    string    `json:"category" bson:"category"`
	Amount      float64   `json:"amount" bson:"amount"`
	Currency    string    `json:"currency" bson:"currency"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Date        time.Time `json:"date" bson:"date"`
}

// Task is a scheduled chore on the farm calendar.
type Task struct {
	TenantMeta `bson:",inline"`

	ID         string    `json:"id" bson:"_id,omitempty"`
	Title      string    `json:"title" bson:"title"`
	AssignedTo string    `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
	DueDate    time.Time `json:"due_date" bson:"due_date"`
	Done       bool      `json:"done" bson:"done"`
}
