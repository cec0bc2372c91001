package nursing

import (
	"time"

	"github.com/google/uuid"
)

// Vitals is one set of observations. Records are append-only.
type Vitals struct {
	ID               uuid.UUID  `json:"id"`
	PatientID        uuid.UUID  `json:"patient_id"`
	HospitalID       uuid.UUID  `json:"hospital_id"`
	VisitID          *uuid.UUID `json:"visit_id,omitempty"`
	RecordedBy       uuid.UUID  `json:"recorded_by"`
	RecordedAt       time.Time  `json:"recorded_at"`
	SystolicBP       *int       `json:"systolic_bp,omitempty"`
	DiastolicBP      *int       `json:"diastolic_bp,omitempty"`
	PulseRate        *int       `json:"pulse_rate,omitempty"`
	TemperatureC     *float64   `json:"temperature_c,omitempty"`
	RespiratoryRate  *int       `json:"respiratory_rate,omitempty"`
	OxygenSaturation *int       `json:"oxygen_saturation,omitempty"`
	WeightKg         *float64   `json:"weight_kg,omitempty"`
	HeightCm         *float64   `json:"height_cm,omitempty"`
	Notes            string     `json:"notes,omitempty"`
}

// RecordRequest is the body of POST /vitals. Ranges reject values no
// instrument would report.
type RecordRequest struct {
	PatientID        string   `json:"patient_id" validate:"required,uuid"`
	VisitID          string   `json:"visit_id,omitempty" validate:"omitempty,uuid"`
	SystolicBP       *int     `json:"systolic_bp,omitempty" validate:"omitempty,gte=50,lte=300"`
	DiastolicBP      *int     `json:"diastolic_bp,omitempty" validate:"omitempty,gte=30,lte=200"`
	PulseRate        *int     `json:"pulse_rate,omitempty" validate:"omitempty,gte=30,lte=220"`
	TemperatureC     *float64 `json:"temperature_c,omitempty" validate:"omitempty,gte=30,lte=45"`
	RespiratoryRate  *int     `json:"respiratory_rate,omitempty" validate:"omitempty,gte=5,lte=60"`
	OxygenSaturation *int     `json:"oxygen_saturation,omitempty" validate:"omitempty,gte=50,lte=100"`
	WeightKg         *float64 `json:"weight_kg,omitempty" validate:"omitempty,gte=1,lte=500"`
	HeightCm         *float64 `json:"height_cm,omitempty" validate:"omitempty,gte=30,lte=250"`
	Notes            string   `json:"notes,omitempty" validate:"max=1000"`
}

// Empty reports whether no observation was supplied.
func (r RecordRequest) Empty() bool {
	return r.SystolicBP == nil && r.DiastolicBP == nil && r.PulseRate == nil &&
		r.TemperatureC == nil && r.RespiratoryRate == nil && r.OxygenSaturation == nil &&
		r.WeightKg == nil && r.HeightCm == nil
}

// Finding is an observation outside the normal adult range.
type Finding struct {
	Severity string
	Message  string
}

// Assess returns the abnormal findings of v, most severe first.
func Assess(v *Vitals) []Finding {
	var critical, warning []Finding
	if v.OxygenSaturation != nil && *v.OxygenSaturation < 90 {
		critical = append(critical, Finding{"critical", "SpO2 " + itoa(*v.OxygenSaturation) + "%"})
	} else if v.OxygenSaturation != nil && *v.OxygenSaturation < 94 {
		warning = append(warning, Finding{"warning", "SpO2 " + itoa(*v.OxygenSaturation) + "%"})
	}
	if v.SystolicBP != nil {
		switch s := *v.SystolicBP; {
		case s >= 180 || s < 80:
			critical = append(critical, Finding{"critical", "systolic BP " + itoa(s)})
		case s >= 160 || s < 90:
			warning = append(warning, Finding{"warning", "systolic BP " + itoa(s)})
		}
	}
	if v.PulseRate != nil {
		switch p := *v.PulseRate; {
		case p > 140 || p < 40:
			critical = append(critical, Finding{"critical", "pulse " + itoa(p)})
		case p > 110 || p < 50:
			warning = append(warning, Finding{"warning", "pulse " + itoa(p)})
		}
	}
	if v.TemperatureC != nil {
		switch t := *v.TemperatureC; {
		case t >= 40 || t < 35:
			critical = append(critical, Finding{"critical", "temperature " + ftoa(t) + "°C"})
		case t >= 38.5:
			warning = append(warning, Finding{"warning", "temperature " + ftoa(t) + "°C"})
		}
	}
	if v.RespiratoryRate != nil {
		if r := *v.RespiratoryRate; r > 30 || r < 8 {
			critical = append(critical, Finding{"critical", "respiratory rate " + itoa(r)})
		} else if r > 24 {
			warning = append(warning, Finding{"warning", "respiratory rate " + itoa(r)})
		}
	}
	return append(critical, warning...)
}
