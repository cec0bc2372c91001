package sandbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/domain/diagnostics"
	"github.com/ehr/hms/internal/domain/identity"
	"github.com/ehr/hms/internal/domain/medication"
	"github.com/ehr/hms/internal/domain/nursing"
	"github.com/ehr/hms/internal/domain/organization"
	"github.com/ehr/hms/internal/domain/patient"
	"github.com/ehr/hms/internal/domain/scheduling"
	"github.com/ehr/hms/internal/domain/staffing"
	"github.com/ehr/hms/internal/platform/auth"
)

// SeedConfig controls the volume and shape of the synthetic data.
type SeedConfig struct {
	Seed                int64  `json:"seed"`
	PatientsPerHospital int    `json:"patients_per_hospital"`
	Password            string `json:"-"`
	// OTPCode is the one-time code of the two-factor demo account.
	OTPCode string `json:"-"`
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{Seed: 42, PatientsPerHospital: 12, Password: "password123", OTPCode: "246810"}
}

// Account is a seeded login.
type Account struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	HospitalID   string `json:"hospital_id,omitempty"`
	HospitalCode string `json:"hospital_code,omitempty"`
	RegionID     string `json:"region_id,omitempty"`
	TwoFactor    bool   `json:"two_factor"`
}

// SeedResult summarizes what was generated.
type SeedResult struct {
	Regions       int           `json:"regions"`
	Hospitals     int           `json:"hospitals"`
	Users         int           `json:"users"`
	Patients      int           `json:"patients"`
	Appointments  int           `json:"appointments"`
	Prescriptions int           `json:"prescriptions"`
	LabTests      int           `json:"lab_tests"`
	Vitals        int           `json:"vitals"`
	Beds          int           `json:"beds"`
	Shifts        int           `json:"shifts"`
	Accounts      []Account     `json:"accounts"`
	Duration      time.Duration `json:"duration"`
}

type regionDef struct {
	name, code string
	hospitals  []hospitalDef
}

type hospitalDef struct {
	name, code, address string
	beds                int
}

var seedRegions = []regionDef{
	{name: "North Region", code: "NTH", hospitals: []hospitalDef{
		{name: "City General Hospital", code: "CGH", address: "1 Hospital Way, Springfield", beds: 240},
		{name: "Riverside Medical Center", code: "RMC", address: "88 River Rd, Riverton", beds: 120},
	}},
	{name: "South Region", code: "STH", hospitals: []hospitalDef{
		{name: "Harbor Community Hospital", code: "HCH", address: "12 Pier St, Harbor City", beds: 80},
	}},
}

// hospitalStaff is the per-role roster of one seeded hospital.
type hospitalStaff struct {
	doctors []*identity.User
	nurses  []*identity.User
	lab     *identity.User
}

type seedRun struct {
	s     *Server
	cfg   SeedConfig
	gen   *generator
	today time.Time
	res   *SeedResult
}

func (s *Server) seed(ctx context.Context, cfg SeedConfig) (*SeedResult, error) {
	start := time.Now()
	if cfg.PatientsPerHospital <= 0 {
		cfg.PatientsPerHospital = DefaultSeedConfig().PatientsPerHospital
	}
	if cfg.Password == "" {
		cfg.Password = DefaultSeedConfig().Password
	}
	now := time.Now().UTC()
	run := &seedRun{
		s:     s,
		cfg:   cfg,
		gen:   newGenerator(cfg.Seed),
		today: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		res:   &SeedResult{Accounts: []Account{}},
	}

	if err := run.user(ctx, &identity.User{Email: "superadmin@hms.local", Name: "Sam Super", Role: auth.RoleSuperAdmin}, ""); err != nil {
		return nil, err
	}
	for _, rd := range seedRegions {
		if err := run.region(ctx, rd); err != nil {
			return nil, err
		}
	}

	run.res.Duration = time.Since(start)
	s.logger.Info().
		Int("hospitals", run.res.Hospitals).
		Int("patients", run.res.Patients).
		Int("appointments", run.res.Appointments).
		Dur("duration", run.res.Duration).
		Msg("sandbox seeded")
	return run.res, nil
}

func (r *seedRun) region(ctx context.Context, rd regionDef) error {
	reg := &organization.Region{ID: r.gen.id(), Name: rd.name, Code: rd.code, CreatedAt: r.today}
	if err := r.s.Services.orgRepo.CreateRegion(ctx, reg); err != nil {
		return fmt.Errorf("region %s: %w", rd.code, err)
	}
	r.res.Regions++
	if _, err := r.s.Services.Organization.UpdateRegionBranding(ctx, reg.ID, &organization.Branding{
		PrimaryColor: "#1F4E79",
		Tagline:      rd.name + " Health Network",
	}); err != nil {
		return err
	}

	admin := &identity.User{
		Email:    "regional." + strings.ToLower(rd.code) + "@hms.local",
		Name:     rd.name + " Administrator",
		Role:     auth.RoleRegionalAdmin,
		RegionID: &reg.ID,
	}
	if err := r.user(ctx, admin, ""); err != nil {
		return err
	}
	for _, hd := range rd.hospitals {
		if err := r.hospital(ctx, reg, hd); err != nil {
			return fmt.Errorf("hospital %s: %w", hd.code, err)
		}
	}
	return nil
}

func (r *seedRun) hospital(ctx context.Context, reg *organization.Region, hd hospitalDef) error {
	h := &organization.Hospital{
		ID:          r.gen.id(),
		RegionID:    reg.ID,
		Name:        hd.name,
		Code:        hd.code,
		Address:     hd.address,
		Phone:       r.gen.randomPhone(),
		Email:       "info@" + strings.ToLower(hd.code) + ".example",
		BedCapacity: hd.beds,
		CreatedAt:   r.today,
	}
	if err := r.s.Services.orgRepo.CreateHospital(ctx, h); err != nil {
		return err
	}
	r.res.Hospitals++
	if _, err := r.s.Services.Organization.UpdateHospitalBranding(ctx, h.ID, &organization.Branding{
		PrimaryColor:   "#0A4D8C",
		SecondaryColor: "#F2F6FA",
		AccentColor:    "#E07A1F",
		Tagline:        "Care, close to home",
		ContactEmail:   h.Email,
		ContactPhone:   h.Phone,
		Website:        "https://" + strings.ToLower(hd.code) + ".example",
	}); err != nil {
		return err
	}

	staff, err := r.staff(ctx, h)
	if err != nil {
		return err
	}
	patients, fresh, err := r.patients(ctx, h)
	if err != nil {
		return err
	}
	ids := make([]string, len(patients))
	for i, p := range patients {
		ids[i] = p.ID.String()
	}
	r.s.seeded[h.ID.String()] = ids

	if fresh {
		if err := r.appointments(ctx, h, staff, patients); err != nil {
			return err
		}
	}
	if err := r.prescriptions(ctx, h, staff, patients); err != nil {
		return err
	}
	if err := r.labTests(ctx, h, staff, patients); err != nil {
		return err
	}
	if err := r.vitals(ctx, h, staff, patients); err != nil {
		return err
	}
	if err := r.beds(ctx, h, patients); err != nil {
		return err
	}
	return r.shifts(ctx, h, staff)
}

func (r *seedRun) user(ctx context.Context, u *identity.User, code string) error {
	u.ID = r.gen.id()
	if err := r.s.Services.Identity.Register(ctx, u, r.cfg.Password); err != nil {
		return fmt.Errorf("user %s: %w", u.Email, err)
	}
	r.res.Users++
	r.res.Accounts = append(r.res.Accounts, Account{
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		HospitalID:   u.HospitalRef(),
		HospitalCode: code,
		RegionID:     u.RegionRef(),
		TwoFactor:    u.TwoFactorEnabled,
	})
	return nil
}

func (r *seedRun) staff(ctx context.Context, h *organization.Hospital) (*hospitalStaff, error) {
	code := strings.ToLower(h.Code)
	mk := func(prefix, name, role string) *identity.User {
		return &identity.User{
			Email:      prefix + "." + code + "@hms.local",
			Name:       name,
			Role:       role,
			HospitalID: &h.ID,
			RegionID:   &h.RegionID,
		}
	}
	last := func() string { return r.gen.pick(lastNames) }

	st := &hospitalStaff{
		doctors: []*identity.User{
			mk("doctor", "Dr. "+last(), auth.RoleDoctor),
			mk("doctor2", "Dr. "+last(), auth.RoleDoctor),
		},
		nurses: []*identity.User{
			mk("nurse", r.gen.pick(firstNamesFemale)+" "+last(), auth.RoleNurse),
			mk("nurse2", r.gen.pick(firstNamesMale)+" "+last(), auth.RoleNurse),
		},
		lab: mk("lab", r.gen.pick(firstNamesMale)+" "+last(), auth.RoleLabTechnician),
	}
	secure := mk("secure.doctor", "Dr. "+last(), auth.RoleDoctor)
	secure.OTPCode = r.cfg.OTPCode

	all := append([]*identity.User{
		mk("manager", r.gen.pick(firstNamesFemale)+" "+last(), auth.RoleManager),
		mk("reception", r.gen.pick(firstNamesFemale)+" "+last(), auth.RoleReceptionist),
		st.lab,
	}, st.doctors...)
	all = append(all, st.nurses...)
	if secure.OTPCode != "" {
		all = append(all, secure)
	}
	for _, u := range all {
		if err := r.user(ctx, u, h.Code); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// patients registers synthetic patients, or reuses the ones a persistent
// store already holds. fresh reports whether they were just created.
func (r *seedRun) patients(ctx context.Context, h *organization.Hospital) ([]*patient.Patient, bool, error) {
	existing, total, err := r.s.Services.Patients.List(ctx, patient.Filter{HospitalID: h.ID}, r.cfg.PatientsPerHospital, 0)
	if err != nil {
		return nil, false, err
	}
	if total > 0 {
		r.res.Patients += len(existing)
		return existing, false, nil
	}

	out := make([]*patient.Patient, 0, r.cfg.PatientsPerHospital)
	for attempts := 0; len(out) < r.cfg.PatientsPerHospital && attempts < 4*r.cfg.PatientsPerHospital; attempts++ {
		p, err := r.s.Services.Patients.Create(ctx, h.ID, r.gen.patient())
		if apperr.CodeOf(err) == apperr.CodeDuplicate {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		out = append(out, p)
	}
	r.res.Patients += len(out)
	return out, true, nil
}

// appointments books today's clinic: every patient walks a different
// distance along the workflow.
func (r *seedRun) appointments(ctx context.Context, h *organization.Hospital, st *hospitalStaff, patients []*patient.Patient) error {
	svc := r.s.Services.Appointments
	paths := [][]string{
		{},
		{scheduling.StatusCheckedIn},
		{scheduling.StatusCheckedIn, scheduling.StatusInProgress},
		{scheduling.StatusCheckedIn, scheduling.StatusInProgress, scheduling.StatusCompleted},
		{scheduling.StatusCancelled},
		{},
		{scheduling.StatusNoShow},
	}
	for i, p := range patients {
		at := r.today.Add(8*time.Hour + time.Duration(i)*30*time.Minute)
		if i%len(paths) == 5 {
			at = at.AddDate(0, 0, 1)
		}
		a, err := svc.Create(ctx, h.ID, scheduling.CreateRequest{
			PatientID:       p.ID.String(),
			DoctorID:        st.doctors[i%len(st.doctors)].ID.String(),
			ScheduledAt:     at,
			DurationMinutes: 30,
			Reason:          r.gen.pick(visitReasons),
		})
		if err != nil {
			return err
		}
		for _, to := range paths[i%len(paths)] {
			reason := ""
			if to == scheduling.StatusCancelled {
				reason = "Patient requested to reschedule"
			}
			if _, err := svc.UpdateStatus(ctx, a.ID, to, reason); err != nil {
				return err
			}
		}
		r.res.Appointments++
	}
	return nil
}

func (r *seedRun) prescriptions(ctx context.Context, h *organization.Hospital, st *hospitalStaff, patients []*patient.Patient) error {
	svc := r.s.Services.Prescriptions
	for i, p := range patients[:min(len(patients), 6)] {
		med := medications[r.gen.intn(len(medications))]
		rx, err := svc.Prescribe(ctx, h.ID, st.doctors[i%len(st.doctors)].ID, medication.CreateRequest{
			PatientID:    p.ID.String(),
			Medication:   med.name,
			Dosage:       med.dosage,
			Frequency:    med.frequency,
			Route:        med.route,
			DurationDays: 5 + r.gen.intn(25),
			Instructions: "Take with water",
		})
		if err != nil {
			return err
		}
		switch i % 4 {
		case 1:
			_, err = svc.UpdateStatus(ctx, rx.ID, medication.StatusDispensed)
			if err == nil {
				_, err = svc.Administer(ctx, rx.ID, st.nurses[0].ID, "First dose given")
			}
		case 2:
			_, err = svc.UpdateStatus(ctx, rx.ID, medication.StatusCompleted)
		}
		if err != nil {
			return err
		}
		r.res.Prescriptions++
	}
	return nil
}

func (r *seedRun) labTests(ctx context.Context, h *organization.Hospital, st *hospitalStaff, patients []*patient.Patient) error {
	svc := r.s.Services.LabTests
	urgencies := []string{diagnostics.UrgencyRoutine, diagnostics.UrgencyRoutine, diagnostics.UrgencyUrgent, diagnostics.UrgencyStat}
	for i, p := range patients[:min(len(patients), 8)] {
		lt, err := svc.Order(ctx, h.ID, st.doctors[i%len(st.doctors)].ID, diagnostics.OrderRequest{
			PatientID: p.ID.String(),
			TestType:  r.gen.pick(labTestTypes),
			Urgency:   urgencies[r.gen.intn(len(urgencies))],
		})
		if err != nil {
			return err
		}
		if i%3 != 0 {
			if _, err := svc.UpdateStatus(ctx, lt.ID, diagnostics.StatusInProgress); err != nil {
				return err
			}
		}
		if i%3 == 2 {
			result := map[string]interface{}{
				"hemoglobin_g_dl": 11 + float64(r.gen.intn(60))/10,
				"wbc_10e9_l":      4 + float64(r.gen.intn(70))/10,
				"interpretation":  "within reference range",
			}
			if _, err := svc.SubmitResult(ctx, lt.ID, diagnostics.ResultRequest{Result: result}); err != nil {
				return err
			}
		}
		r.res.LabTests++
	}
	return nil
}

func (r *seedRun) vitals(ctx context.Context, h *organization.Hospital, st *hospitalStaff, patients []*patient.Patient) error {
	svc := r.s.Services.Vitals
	ip := func(v int) *int { return &v }
	fp := func(v float64) *float64 { return &v }
	for i, p := range patients[:min(len(patients), 6)] {
		req := nursing.RecordRequest{
			PatientID:        p.ID.String(),
			SystolicBP:       ip(110 + r.gen.intn(25)),
			DiastolicBP:      ip(70 + r.gen.intn(15)),
			PulseRate:        ip(60 + r.gen.intn(30)),
			TemperatureC:     fp(36.4 + float64(r.gen.intn(8))/10),
			RespiratoryRate:  ip(12 + r.gen.intn(6)),
			OxygenSaturation: ip(95 + r.gen.intn(5)),
		}
		if i == 0 {
			req.OxygenSaturation = ip(89)
			req.PulseRate = ip(118)
		}
		if _, err := svc.Record(ctx, h.ID, st.nurses[i%len(st.nurses)].ID, req); err != nil {
			return err
		}
		r.res.Vitals++
	}
	return nil
}

func (r *seedRun) beds(ctx context.Context, h *organization.Hospital, patients []*patient.Patient) error {
	svc := r.s.Services.Staffing
	next := 0
	for w, ward := range wards[:3] {
		for n := 1; n <= 6; n++ {
			bed, err := svc.AddBed(ctx, h.ID, ward, fmt.Sprintf("%c%02d", 'A'+w, n))
			if err != nil {
				return err
			}
			r.res.Beds++
			req := staffing.BedStatusRequest{}
			switch roll := r.gen.intn(10); {
			case roll < 5 && next < len(patients):
				req = staffing.BedStatusRequest{Status: staffing.BedOccupied, PatientID: patients[next].ID.String()}
				next++
			case roll == 5:
				req.Status = staffing.BedCleaning
			case roll == 6:
				req.Status = staffing.BedMaintenance
			default:
				continue
			}
			if _, err := svc.SetBedStatus(ctx, bed.ID, req); err != nil {
				return err
			}
		}
	}
	return nil
}

// shifts rosters a day and a night shift around today.
func (r *seedRun) shifts(ctx context.Context, h *organization.Hospital, st *hospitalStaff) error {
	svc := r.s.Services.Staffing
	people := append(append([]*identity.User{}, st.doctors...), st.nurses...)
	for i, u := range people {
		start := r.today.Add(7 * time.Hour)
		if i%2 == 1 {
			start = r.today.Add(19 * time.Hour)
		}
		sh := &staffing.Shift{
			HospitalID: h.ID,
			StaffName:  u.Name,
			Role:       u.Role,
			Ward:       wards[i%3],
			StartsAt:   start,
			EndsAt:     start.Add(12 * time.Hour),
		}
		if err := svc.AddShift(ctx, sh); err != nil {
			return err
		}
		r.res.Shifts++
	}
	return nil
}
