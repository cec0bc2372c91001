package sandbox

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/hms/internal/checkin"
	"github.com/ehr/hms/internal/config"
	"github.com/ehr/hms/internal/domain/analytics"
	"github.com/ehr/hms/internal/domain/diagnostics"
	"github.com/ehr/hms/internal/domain/identity"
	"github.com/ehr/hms/internal/domain/medication"
	"github.com/ehr/hms/internal/domain/nursing"
	"github.com/ehr/hms/internal/domain/organization"
	"github.com/ehr/hms/internal/domain/patient"
	"github.com/ehr/hms/internal/domain/scheduling"
	"github.com/ehr/hms/internal/domain/staffing"
	"github.com/ehr/hms/internal/platform/auth"
	"github.com/ehr/hms/internal/platform/realtime"
)

// Services is every domain service the sandbox exposes.
type Services struct {
	Tokens        *auth.TokenIssuer
	Identity      *identity.Service
	Organization  *organization.Service
	Patients      *patient.Service
	Appointments  *scheduling.Service
	Prescriptions *medication.Service
	LabTests      *diagnostics.Service
	Vitals        *nursing.Service
	Staffing      *staffing.Service
	Analytics     *analytics.Service

	orgRepo organization.Repository
}

// newServices wires the domain services. Patients and appointments are
// kept in Postgres when a pool is given; everything else lives in memory.
func newServices(cfg *config.Config, pool *pgxpool.Pool, hub *realtime.Hub, hashCost int) *Services {
	patientRepo := patient.NewRepoMemory()
	apptRepo := scheduling.NewRepoMemory()
	if pool != nil {
		patientRepo = patient.NewRepoPG(pool)
		apptRepo = scheduling.NewRepoPG(pool)
	}
	orgRepo := organization.NewRepoMemory()
	labRepo := diagnostics.NewRepoMemory()
	rxRepo := medication.NewRepoMemory()
	staffRepo := staffing.NewRepoMemory()

	tokens := auth.NewTokenIssuer(cfg.SigningKey(), cfg.TokenTTL)
	ids := identity.NewService(identity.NewUserRepoMemory(), tokens)
	if hashCost > 0 {
		ids.WithHashCost(hashCost)
	}
	patients := patient.NewService(patientRepo)

	return &Services{
		Tokens:        tokens,
		Identity:      ids,
		Organization:  organization.NewService(orgRepo),
		Patients:      patients,
		Appointments:  scheduling.NewService(apptRepo, patients, ids, checkin.NewSigner(cfg.SigningKey(), cfg.QRTTL), hub),
		Prescriptions: medication.NewService(rxRepo, patients),
		LabTests:      diagnostics.NewService(labRepo, patients, hub),
		Vitals:        nursing.NewService(nursing.NewRepoMemory(), patients, hub),
		Staffing:      staffing.NewService(staffRepo),
		Analytics: analytics.NewService(analytics.Sources{
			Organization:  orgRepo,
			Patients:      patientRepo,
			Appointments:  apptRepo,
			LabTests:      labRepo,
			Prescriptions: rxRepo,
			Staffing:      staffRepo,
		}),
		orgRepo: orgRepo,
	}
}
