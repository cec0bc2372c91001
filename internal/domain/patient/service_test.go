package patient

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
)

func newTestService() *Service {
	svc := NewService(NewRepoMemory())
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }
	return svc
}

var (
	hospital1 = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	hospital2 = uuid.MustParse("22222222-2222-4222-8222-222222222222")
)

func validInput() Input {
	return Input{FirstName: "Amara", LastName: "Okafor", DateOfBirth: "1988-07-14", Gender: "female", Phone: "+234 801 555 0101"}
}

var mrnPattern = regexp.MustCompile(`^MRN-2024-\d{6}$`)

func TestService_Create_AssignsMRN(t *testing.T) {
	svc := newTestService()
	p, err := svc.Create(context.Background(), hospital1, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mrnPattern.MatchString(p.MRN) {
		t.Errorf("unexpected MRN format: %s", p.MRN)
	}
	if p.HospitalID != hospital1 || p.ID == uuid.Nil {
		t.Errorf("unexpected patient: %+v", p)
	}

	in := validInput()
	in.FirstName = "Bola"
	p2, _ := svc.Create(context.Background(), hospital1, in)
	if p2.MRN == p.MRN {
		t.Error("MRNs must be unique")
	}
}

func TestService_Create_Duplicate(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Create(context.Background(), hospital1, validInput()); err != nil {
		t.Fatalf("create: %v", err)
	}

	in := validInput()
	in.FirstName = "  amara "
	_, err := svc.Create(context.Background(), hospital1, in)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if apperr.FieldOf(err) != "first_name" || apperr.CodeOf(err) != apperr.CodeDuplicate {
		t.Errorf("expected duplicate on first_name, got field=%q code=%q", apperr.FieldOf(err), apperr.CodeOf(err))
	}

	if _, err := svc.Create(context.Background(), hospital2, validInput()); err != nil {
		t.Errorf("same person in another hospital should be allowed: %v", err)
	}
}

func TestService_Create_FutureDOB(t *testing.T) {
	svc := newTestService()
	in := validInput()
	in.DateOfBirth = "2030-01-01"
	_, err := svc.Create(context.Background(), hospital1, in)
	if apperr.FieldOf(err) != "date_of_birth" {
		t.Errorf("expected date_of_birth error, got %v", err)
	}
}

func TestService_Create_RequiresHospital(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Create(context.Background(), uuid.Nil, validInput()); apperr.FieldOf(err) != "hospital_id" {
		t.Errorf("expected hospital_id error, got %v", err)
	}
}

func TestService_Update(t *testing.T) {
	svc := newTestService()
	p, _ := svc.Create(context.Background(), hospital1, validInput())

	in := validInput()
	in.Phone = "+234 801 555 0199"
	updated, err := svc.Update(context.Background(), p.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Phone != in.Phone || updated.MRN != p.MRN {
		t.Errorf("unexpected update: %+v", updated)
	}

	if _, err := svc.Update(context.Background(), uuid.New(), in); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_List_Search(t *testing.T) {
	svc := newTestService()
	svc.Create(context.Background(), hospital1, validInput())
	other := Input{FirstName: "Chidi", LastName: "Eze", DateOfBirth: "1970-01-01", Gender: "male"}
	svc.Create(context.Background(), hospital1, other)
	svc.Create(context.Background(), hospital2, other)

	items, total, err := svc.List(context.Background(), Filter{HospitalID: hospital1, Query: "chi"}, 50, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].FirstName != "Chidi" {
		t.Errorf("unexpected search result: %d %+v", total, items)
	}

	_, total, _ = svc.List(context.Background(), Filter{HospitalID: hospital1}, 50, 0)
	if total != 2 {
		t.Errorf("expected 2 patients in h1, got %d", total)
	}
}
