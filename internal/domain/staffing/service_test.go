package staffing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
)

var (
	hospital1 = uuid.MustParse("c1c1c1c1-1111-4111-8111-000000000001")
	hospital2 = uuid.MustParse("c2c2c2c2-2222-4222-8222-000000000002")
)

func TestService_SetBedStatus(t *testing.T) {
	svc := NewService(NewRepoMemory())
	bed, _ := svc.AddBed(context.Background(), hospital1, "ICU", "04")
	pid := uuid.New()

	if _, err := svc.SetBedStatus(context.Background(), bed.ID, BedStatusRequest{Status: BedOccupied}); apperr.FieldOf(err) != "patient_id" {
		t.Fatalf("expected patient_id required, got %v", err)
	}
	got, err := svc.SetBedStatus(context.Background(), bed.ID, BedStatusRequest{Status: BedOccupied, PatientID: pid.String()})
	if err != nil || got.PatientID == nil || *got.PatientID != pid {
		t.Fatalf("occupy: %v %+v", err, got)
	}
	if _, err := svc.SetBedStatus(context.Background(), bed.ID, BedStatusRequest{Status: BedOccupied, PatientID: uuid.NewString()}); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("expected conflict on double occupancy, got %v", err)
	}
	if _, err := svc.SetBedStatus(context.Background(), bed.ID, BedStatusRequest{Status: BedOccupied, PatientID: "bed-4"}); apperr.FieldOf(err) != "patient_id" {
		t.Errorf("expected patient_id error for a malformed reference, got %v", err)
	}
	got, _ = svc.SetBedStatus(context.Background(), bed.ID, BedStatusRequest{Status: BedCleaning})
	if got.PatientID != nil || got.Status != BedCleaning {
		t.Errorf("leaving occupied must clear the patient: %+v", got)
	}
}

func TestService_ListBeds(t *testing.T) {
	svc := NewService(NewRepoMemory())
	svc.AddBed(context.Background(), hospital1, "Ward B", "2")
	svc.AddBed(context.Background(), hospital1, "Ward A", "9")
	svc.AddBed(context.Background(), hospital1, "Ward A", "1")
	svc.AddBed(context.Background(), hospital2, "Ward A", "1")

	beds, _ := svc.ListBeds(context.Background(), BedFilter{HospitalID: hospital1})
	if len(beds) != 3 || beds[0].Ward != "Ward A" || beds[0].Number != "1" || beds[2].Ward != "Ward B" {
		t.Errorf("unexpected order: %+v %+v %+v", beds[0], beds[1], beds[2])
	}
}

func TestService_Shifts(t *testing.T) {
	svc := NewService(NewRepoMemory())
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	night := &Shift{HospitalID: hospital1, StaffName: "Nina", Role: "nurse", Ward: "ICU", StartsAt: day.Add(-4 * time.Hour), EndsAt: day.Add(8 * time.Hour)}
	late := &Shift{HospitalID: hospital1, StaffName: "Dr. Bello", Role: "doctor", Ward: "ER", StartsAt: day.Add(14 * time.Hour), EndsAt: day.Add(22 * time.Hour)}
	tomorrow := &Shift{HospitalID: hospital1, StaffName: "Sam", Role: "nurse", Ward: "ER", StartsAt: day.Add(30 * time.Hour), EndsAt: day.Add(38 * time.Hour)}
	for _, s := range []*Shift{late, night, tomorrow} {
		if err := svc.AddShift(context.Background(), s); err != nil {
			t.Fatalf("add shift: %v", err)
		}
	}
	if err := svc.AddShift(context.Background(), &Shift{StartsAt: day, EndsAt: day}); apperr.FieldOf(err) != "ends_at" {
		t.Errorf("expected ends_at error, got %v", err)
	}

	shifts, _ := svc.Shifts(context.Background(), hospital1, day.Add(10*time.Hour))
	if len(shifts) != 2 || shifts[0].StaffName != "Nina" {
		t.Fatalf("expected overnight and late shifts, got %+v", shifts)
	}
	if !shifts[0].OnDuty(day.Add(time.Hour)) || shifts[0].OnDuty(day.Add(8*time.Hour)) {
		t.Error("OnDuty should include the start and exclude the end")
	}
}
