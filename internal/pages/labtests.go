package pages

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/apiclient"
	"github.com/ehr/hms/internal/controller"
	"github.com/ehr/hms/internal/domain/diagnostics"
	"github.com/ehr/hms/internal/viewmodel"
	"github.com/ehr/hms/pkg/pagination"
)

type LabTestsClient interface {
	ListLabTests(ctx context.Context, token string, f apiclient.LabTestFilter) (*pagination.Page[diagnostics.LabTest], error)
	CreateLabTest(ctx context.Context, token string, req diagnostics.OrderRequest) (*diagnostics.LabTest, error)
	UpdateLabTestStatus(ctx context.Context, token, id, status string) (*diagnostics.LabTest, error)
	SubmitLabResult(ctx context.Context, token, id string, req diagnostics.ResultRequest) (*diagnostics.LabTest, error)
	DownloadLabResult(ctx context.Context, token, id string, w io.Writer) error
}

// LabTestsPage is the laboratory worklist, stat orders first.
type LabTestsPage struct {
	base
	client LabTestsClient
	list   *controller.Resource[[]diagnostics.LabTest]

	mu      sync.Mutex
	status  string
	urgency string
	state   FormState
	notice  string
}

func NewLabTestsPage(sess SessionReader, client LabTestsClient, logger zerolog.Logger) *LabTestsPage {
	p := &LabTestsPage{base: newBase(sess, logger), client: client}
	p.list = controller.New("lab-tests", logger, p.fetch, signedIn(sess), controller.Require("hospital", hospitalOf(sess)))
	return p
}

func (p *LabTestsPage) fetch(ctx context.Context) ([]diagnostics.LabTest, error) {
	token := p.sess.Token()
	list, _, err := pagination.Collect(ctx, func(ctx context.Context, pg pagination.Params) (*pagination.Page[diagnostics.LabTest], error) {
		return p.client.ListLabTests(ctx, token, apiclient.LabTestFilter{Page: pg})
	})
	return list, err
}

func (p *LabTestsPage) Load(ctx context.Context) error { return p.list.Load(ctx) }
func (p *LabTestsPage) Close()                         { p.list.Close() }

func (p *LabTestsPage) SetStatus(status string) {
	p.mu.Lock()
	p.status = status
	p.mu.Unlock()
}

func (p *LabTestsPage) SetUrgency(urgency string) {
	p.mu.Lock()
	p.urgency = urgency
	p.mu.Unlock()
}

func (p *LabTestsPage) change(ctx context.Context, notice string, fn func(ctx context.Context, token string) error) error {
	p.setNotice("")
	err := p.list.Mutate(ctx, func(ctx context.Context) error { return fn(ctx, p.sess.Token()) })
	if err == nil {
		p.setNotice(notice)
	}
	return err
}

func (p *LabTestsPage) setNotice(s string) {
	p.mu.Lock()
	p.notice = s
	p.mu.Unlock()
}

func (p *LabTestsPage) Start(ctx context.Context, id string) error {
	return p.change(ctx, "Test started", func(ctx context.Context, token string) error {
		_, err := p.client.UpdateLabTestStatus(ctx, token, id, diagnostics.StatusInProgress)
		return err
	})
}

func (p *LabTestsPage) Cancel(ctx context.Context, id string) error {
	return p.change(ctx, "Test cancelled", func(ctx context.Context, token string) error {
		_, err := p.client.UpdateLabTestStatus(ctx, token, id, diagnostics.StatusCancelled)
		return err
	})
}

// Complete submits the result, which also completes the test.
func (p *LabTestsPage) Complete(ctx context.Context, id string, result map[string]interface{}, fileURL string) error {
	req := diagnostics.ResultRequest{Result: result, ResultFileURL: fileURL}
	var st FormState
	if err := st.check(&req); err != nil {
		p.setForm(st)
		return err
	}
	err := p.change(ctx, "Result submitted", func(ctx context.Context, token string) error {
		_, err := p.client.SubmitLabResult(ctx, token, id, req)
		return err
	})
	if err != nil {
		st.rejected(err)
	}
	p.setForm(st)
	return err
}

// Order places a new test, for doctors.
func (p *LabTestsPage) Order(ctx context.Context, req diagnostics.OrderRequest) (*diagnostics.LabTest, error) {
	var st FormState
	if err := st.check(&req); err != nil {
		p.setForm(st)
		return nil, err
	}
	var created *diagnostics.LabTest
	err := p.list.Mutate(ctx, func(ctx context.Context) error {
		var err error
		created, err = p.client.CreateLabTest(ctx, p.sess.Token(), req)
		return err
	})
	if err != nil {
		st.rejected(err)
		p.setForm(st)
		return nil, err
	}
	p.setForm(FormState{Success: fmt.Sprintf("%s ordered (%s)", created.TestType, created.Urgency)})
	return created, nil
}

// Download writes the result report of a completed test to w.
func (p *LabTestsPage) Download(ctx context.Context, id string, w io.Writer) error {
	return p.client.DownloadLabResult(ctx, p.sess.Token(), id, w)
}

func (p *LabTestsPage) setForm(st FormState) {
	p.mu.Lock()
	p.state = st
	p.mu.Unlock()
}

type LabTestsView struct {
	Status
	StatusFilter  string
	UrgencyFilter string
	Tests         []diagnostics.LabTest
	Counts        []viewmodel.Count
	FormState
	Notice string
}

func (p *LabTestsPage) View() LabTestsView {
	snap := p.list.Snapshot()
	p.mu.Lock()
	defer p.mu.Unlock()
	tests := viewmodel.Filter(snap.Data, p.status, func(t diagnostics.LabTest) string { return t.Status })
	tests = viewmodel.Filter(tests, p.urgency, func(t diagnostics.LabTest) string { return t.Urgency })
	return LabTestsView{
		Status:        statusOf(snap),
		StatusFilter:  p.status,
		UrgencyFilter: p.urgency,
		Tests:         viewmodel.SortBy(tests, urgencyFirst),
		Counts:        viewmodel.CountsIn(viewmodel.CountBy(snap.Data, func(t diagnostics.LabTest) string { return t.Status }), diagnostics.Statuses),
		FormState:     p.state,
		Notice:        p.notice,
	}
}

// urgencyFirst orders stat before urgent before routine, oldest first.
func urgencyFirst(a, b diagnostics.LabTest) bool {
	ra, rb := diagnostics.UrgencyRank(a.Urgency), diagnostics.UrgencyRank(b.Urgency)
	if ra != rb {
		return ra < rb
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
