// Package pages holds one controller per console route. A page reads the
// session, owns its controller.Resource values, derives its view model and
// exposes the user's intents as methods. Pages never render.
package pages

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/controller"
	"github.com/ehr/hms/internal/platform/validation"
	"github.com/ehr/hms/internal/session"
)

// SessionReader is the read side of the session a page needs.
type SessionReader interface {
	Token() string
	Identity() (session.Identity, bool)
}

// Page is implemented by every page controller.
type Page interface {
	Load(ctx context.Context) error
	Close()
}

// DateLayout is the date format used by list filters.
const DateLayout = "2006-01-02"

var (
	validatorOnce sync.Once
	formValidator *validation.Validator
)

func forms() *validation.Validator {
	validatorOnce.Do(func() { formValidator = validation.New() })
	return formValidator
}

func hospitalOf(s SessionReader) func() string {
	return func() string {
		id, _ := s.Identity()
		return id.HospitalID
	}
}

func regionOf(s SessionReader) func() string {
	return func() string {
		id, _ := s.Identity()
		return id.RegionID
	}
}

func signedIn(s SessionReader) controller.Precondition {
	return func(op string) error {
		if _, ok := s.Identity(); !ok || s.Token() == "" {
			return apperr.New(apperr.KindAuthentication, op, "not signed in")
		}
		return nil
	}
}

// base carries what every page shares.
type base struct {
	sess   SessionReader
	logger zerolog.Logger
	now    func() time.Time
}

func newBase(sess SessionReader, logger zerolog.Logger) base {
	return base{sess: sess, logger: logger, now: time.Now}
}

func (b base) identity() session.Identity {
	id, _ := b.sess.Identity()
	return id
}

func (b base) today() string {
	return b.now().UTC().Format(DateLayout)
}

// FormState is the inline state of a form: per-field messages, a form-level
// error and the last success message.
type FormState struct {
	FieldErrors map[string]string
	SubmitErr   error
	Success     string
}

// HasErrors reports whether the form failed validation or submission.
func (f FormState) HasErrors() bool {
	return len(f.FieldErrors) > 0 || f.SubmitErr != nil
}

// rejected records a submission error: a field-scoped validation error goes
// next to its field, anything else is form-level.
func (f *FormState) rejected(err error) {
	f.Success = ""
	if field := apperr.FieldOf(err); field != "" && apperr.Is(err, apperr.KindValidation) {
		f.FieldErrors = map[string]string{field: apperr.UserMessage(err)}
		f.SubmitErr = nil
		return
	}
	f.FieldErrors = nil
	f.SubmitErr = err
}

// check runs the local validation rules on v. The returned error names the
// first failing field in struct order.
func (f *FormState) check(v interface{}) error {
	err := forms().Validate(v)
	if err == nil {
		f.FieldErrors = nil
		return nil
	}
	f.FieldErrors = forms().Fields(v)
	if len(f.FieldErrors) == 0 {
		f.FieldErrors = map[string]string{apperr.FieldOf(err): apperr.UserMessage(err)}
	}
	f.SubmitErr = nil
	f.Success = ""
	return err
}

// Status is the lifecycle part of every page view.
type Status struct {
	State       controller.State
	Err         error
	MutationErr error
	// Loaded is true once any load has succeeded; data from it is kept
	// through later errors.
	Loaded bool
}

func statusOf[T any](s controller.Snapshot[T]) Status {
	return Status{State: s.State, Err: s.Err, MutationErr: s.MutationErr, Loaded: s.Loaded()}
}
