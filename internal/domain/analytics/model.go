package analytics

import "github.com/google/uuid"

// Occupancy summarizes bed usage in one hospital.
type Occupancy struct {
	Beds     int     `json:"beds"`
	Occupied int     `json:"occupied"`
	Rate     float64 `json:"rate"`
}

type HospitalAnalytics struct {
	HospitalID           uuid.UUID      `json:"hospital_id"`
	HospitalName         string         `json:"hospital_name"`
	Patients             int            `json:"patients"`
	AppointmentsByStatus map[string]int `json:"appointments_by_status"`
	LabTestsByStatus     map[string]int `json:"lab_tests_by_status"`
	ActivePrescriptions  int            `json:"active_prescriptions"`
	Occupancy            Occupancy      `json:"occupancy"`
}

type HospitalRank struct {
	HospitalID uuid.UUID `json:"hospital_id"`
	Name       string    `json:"name"`
	Patients   int       `json:"patients"`
}

type RegionalAnalytics struct {
	RegionID             uuid.UUID      `json:"region_id"`
	RegionName           string         `json:"region_name"`
	Hospitals            int            `json:"hospitals"`
	Patients             int            `json:"patients"`
	AppointmentsByStatus map[string]int `json:"appointments_by_status"`
	TopHospitals         []HospitalRank `json:"top_hospitals"`
}
