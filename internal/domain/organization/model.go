package organization

import (
	"time"

	"github.com/google/uuid"
)

type Region struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

type Hospital struct {
	ID          uuid.UUID `json:"id"`
	RegionID    uuid.UUID `json:"region_id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Address     string    `json:"address,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	BedCapacity int       `json:"bed_capacity"`
	CreatedAt   time.Time `json:"created_at"`
}

// Branding is stored and returned exactly as submitted.
type Branding struct {
	PrimaryColor   string `json:"primary_color,omitempty" validate:"omitempty,hexcolor6"`
	SecondaryColor string `json:"secondary_color,omitempty" validate:"omitempty,hexcolor6"`
	AccentColor    string `json:"accent_color,omitempty" validate:"omitempty,hexcolor6"`
	LogoURL        string `json:"logo_url,omitempty" validate:"omitempty,url"`
	BannerURL      string `json:"banner_url,omitempty" validate:"omitempty,url"`
	Tagline        string `json:"tagline,omitempty" validate:"max=200"`
	ContactEmail   string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone   string `json:"contact_phone,omitempty" validate:"omitempty,phone"`
	Website        string `json:"website,omitempty" validate:"omitempty,url"`
}

type CreateRegionRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code" validate:"required,alphanum,max=10"`
}

type CreateHospitalRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Code        string `json:"code" validate:"required,alphanum,max=10"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty" validate:"omitempty,phone"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	BedCapacity int    `json:"bed_capacity" validate:"gte=0"`
}
