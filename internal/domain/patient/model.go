package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a registered patient of one hospital. MRN is assigned by the
// backend on create.
type Patient struct {
	ID                    uuid.UUID `json:"id"`
	MRN                   string    `json:"mrn"`
	HospitalID            uuid.UUID `json:"hospital_id"`
	FirstName             string    `json:"first_name"`
	LastName              string    `json:"last_name"`
	DateOfBirth           string    `json:"date_of_birth"`
	Gender                string    `json:"gender"`
	Phone                 string    `json:"phone,omitempty"`
	Email                 string    `json:"email,omitempty"`
	Address               string    `json:"address,omitempty"`
	BloodGroup            string    `json:"blood_group,omitempty"`
	EmergencyContactName  string    `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string    `json:"emergency_contact_phone,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// FullName returns "First Last".
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Input is the writable part of a patient record.
type Input struct {
	FirstName             string `json:"first_name" validate:"required,max=100"`
	LastName              string `json:"last_name" validate:"required,max=100"`
	DateOfBirth           string `json:"date_of_birth" validate:"required,isodate"`
	Gender                string `json:"gender" validate:"required,oneof=male female other"`
	Phone                 string `json:"phone,omitempty" validate:"omitempty,phone"`
	Email                 string `json:"email,omitempty" validate:"omitempty,email"`
	Address               string `json:"address,omitempty"`
	BloodGroup            string `json:"blood_group,omitempty" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	EmergencyContactName  string `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string `json:"emergency_contact_phone,omitempty" validate:"omitempty,phone"`
	HospitalID            string `json:"hospital_id,omitempty" validate:"omitempty,uuid"`
}

// Apply copies the input onto p.
func (in Input) Apply(p *Patient) {
	p.FirstName = in.FirstName
	p.LastName = in.LastName
	p.DateOfBirth = in.DateOfBirth
	p.Gender = in.Gender
	p.Phone = in.Phone
	p.Email = in.Email
	p.Address = in.Address
	p.BloodGroup = in.BloodGroup
	p.EmergencyContactName = in.EmergencyContactName
	p.EmergencyContactPhone = in.EmergencyContactPhone
}

// Filter selects patients for a list call.
type Filter struct {
	HospitalID uuid.UUID
	Query      string // matches name, MRN or phone
}
