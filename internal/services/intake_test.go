package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Damon-N58/job-application-screener/internal/mail"
	"github.com/Damon-N58/job-application-screener/internal/models"
	"github.com/Damon-N58/job-application-screener/internal/store"
)

type fakeIntakeStore struct {
	owners   map[string]string
	existing map[string]*models.Applicant
	jobs     []models.Job
	created  []*models.Applicant

	jobsErr error
}

func (f *fakeIntakeStore) OwnerForInbox(_ context.Context, inbox string) (string, error) {
	if owner, ok := f.owners[inbox]; ok {
		return owner, nil
	}
	return "", store.ErrNotFound
}

func (f *fakeIntakeStore) FindActiveApplicant(_ context.Context, ownerID, email string) (*models.Applicant, error) {
	if a, ok := f.existing[ownerID+"/"+email]; ok {
		return a, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeIntakeStore) ActiveJobs(_ context.Context, _ string) ([]models.Job, error) {
	if f.jobsErr != nil {
		return nil, f.jobsErr
	}
	return f.jobs, nil
}

func (f *fakeIntakeStore) CreateApplicant(_ context.Context, a *models.Applicant) (string, error) {
	f.created = append(f.created, a)
	return "applicant-1", nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, fromHeader, _, _ string) mail.Identity {
	return mail.ResolveHeuristic(fromHeader)
}

type fakeDispatcher struct {
	dispatched []string
	err        error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, applicantID string) (string, error) {
	f.dispatched = append(f.dispatched, applicantID)
	if f.err != nil {
		return DispatchModeLocal, f.err
	}
	return DispatchModeEnqueued, nil
}

type fakeResumeStore struct {
	objects map[string][]byte
	err     error
}

func (f *fakeResumeStore) Save(_ context.Context, objectName, _ string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[objectName] = data
	return "https://storage.googleapis.com/resumes-test/" + objectName, nil
}

func newTestIntake(st *fakeIntakeStore, d *fakeDispatcher, rs *fakeResumeStore) *IntakeFunction {
	return &IntakeFunction{
		store:      st,
		resolver:   fakeResolver{},
		dispatcher: d,
		resumes:    rs,
		config:     IntakeConfig{DefaultOwnerID: "default"},
	}
}

func inboundEmail() *models.InboundEmail {
	return &models.InboundEmail{
		FromHeader: "Jane Doe <jane@x.com>",
		To:         "jobs@acme.test",
		Subject:    "Application for Senior Python Developer",
		PlainBody:  "I would like to apply for the senior python developer role.",
	}
}

func TestProcessCreatesApplicantAndDispatches(t *testing.T) {
	st := &fakeIntakeStore{
		jobs: []models.Job{
			{ID: "job-new", Title: "Senior Python Developer"},
			{ID: "job-old", Title: "Product Designer"},
		},
	}
	d := &fakeDispatcher{}
	intake := newTestIntake(st, d, &fakeResumeStore{})

	resp, err := intake.Process(context.Background(), inboundEmail())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !resp.Success || resp.ApplicantID != "applicant-1" || resp.JobID != "job-new" {
		t.Fatalf("resp = %+v", resp)
	}

	if len(st.created) != 1 {
		t.Fatalf("created %d applicants, want 1", len(st.created))
	}
	a := st.created[0]
	if a.Name != "Jane Doe" || a.Email != "jane@x.com" {
		t.Errorf("identity = %q <%s>", a.Name, a.Email)
	}
	if a.Status != models.ApplicantStatusAnalyzing {
		t.Errorf("status = %q, want analyzing at creation", a.Status)
	}
	if a.OwnerID != "default" {
		t.Errorf("ownerID = %q", a.OwnerID)
	}
	if a.Source != "email" || !strings.Contains(a.SourceDetail, "jobs@acme.test") {
		t.Errorf("source = %q / %q", a.Source, a.SourceDetail)
	}
	if len(d.dispatched) != 1 || d.dispatched[0] != "applicant-1" {
		t.Errorf("dispatched = %v", d.dispatched)
	}
}

func TestProcessResolvesOwnerFromInbox(t *testing.T) {
	st := &fakeIntakeStore{
		owners: map[string]string{"jobs@acme.test": "owner-42"},
		jobs:   []models.Job{{ID: "job-1", Title: "Senior Python Developer"}},
	}
	intake := newTestIntake(st, &fakeDispatcher{}, &fakeResumeStore{})

	if _, err := intake.Process(context.Background(), inboundEmail()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if st.created[0].OwnerID != "owner-42" {
		t.Errorf("ownerID = %q, want inbox-resolved owner", st.created[0].OwnerID)
	}
}

func TestProcessDuplicateShortCircuits(t *testing.T) {
	st := &fakeIntakeStore{
		existing: map[string]*models.Applicant{
			"default/jane@x.com": {ID: "existing-1", JobID: "job-1"},
		},
		jobs: []models.Job{{ID: "job-1", Title: "Senior Python Developer"}},
	}
	d := &fakeDispatcher{}
	intake := newTestIntake(st, d, &fakeResumeStore{})

	resp, err := intake.Process(context.Background(), inboundEmail())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !resp.Success || resp.ApplicantID != "existing-1" {
		t.Fatalf("resp = %+v, want acknowledged duplicate", resp)
	}
	if len(st.created) != 0 {
		t.Errorf("duplicate created %d applicants", len(st.created))
	}
	if len(d.dispatched) != 0 {
		t.Errorf("duplicate triggered %d dispatches", len(d.dispatched))
	}
}

func TestProcessNoActiveJobs(t *testing.T) {
	intake := newTestIntake(&fakeIntakeStore{}, &fakeDispatcher{}, &fakeResumeStore{})

	_, err := intake.Process(context.Background(), inboundEmail())
	if !errors.Is(err, ErrNoActiveJob) {
		t.Fatalf("err = %v, want ErrNoActiveJob", err)
	}
}

func TestProcessStoresResume(t *testing.T) {
	st := &fakeIntakeStore{jobs: []models.Job{{ID: "job-1", Title: "Senior Python Developer"}}}
	rs := &fakeResumeStore{}
	intake := newTestIntake(st, &fakeDispatcher{}, rs)

	email := inboundEmail()
	email.Attachments = []models.Attachment{
		{FileName: "photo.png", ContentType: "image/png", Content: []byte("img")},
		{FileName: "cv.pdf", ContentType: "application/pdf", Content: []byte("%PDF")},
	}

	if _, err := intake.Process(context.Background(), email); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(rs.objects) != 1 {
		t.Fatalf("stored %d objects, want only the document attachment", len(rs.objects))
	}
	for name := range rs.objects {
		if !strings.HasPrefix(name, "resumes/") || !strings.HasSuffix(name, "-cv.pdf") {
			t.Errorf("object name = %q", name)
		}
	}
	if st.created[0].ResumeURL == "" {
		t.Error("applicant missing resume URL")
	}
}

func TestProcessContinuesOnResumeUploadFailure(t *testing.T) {
	st := &fakeIntakeStore{jobs: []models.Job{{ID: "job-1", Title: "Senior Python Developer"}}}
	rs := &fakeResumeStore{err: errors.New("bucket unavailable")}
	intake := newTestIntake(st, &fakeDispatcher{}, rs)

	email := inboundEmail()
	email.Attachments = []models.Attachment{{FileName: "cv.pdf", ContentType: "application/pdf", Content: []byte("%PDF")}}

	resp, err := intake.Process(context.Background(), email)
	if err != nil {
		t.Fatalf("upload failure must not fail intake: %v", err)
	}
	if !resp.Success {
		t.Fatalf("resp = %+v", resp)
	}
	if st.created[0].ResumeURL != "" {
		t.Errorf("ResumeURL = %q, want empty after failed upload", st.created[0].ResumeURL)
	}
}

func TestProcessSucceedsWhenDispatchFails(t *testing.T) {
	st := &fakeIntakeStore{jobs: []models.Job{{ID: "job-1", Title: "Senior Python Developer"}}}
	d := &fakeDispatcher{err: errors.New("workflow api down")}
	intake := newTestIntake(st, d, &fakeResumeStore{})

	resp, err := intake.Process(context.Background(), inboundEmail())
	if err != nil {
		t.Fatalf("dispatch failure must not fail intake: %v", err)
	}
	if !resp.Success || resp.ApplicantID != "applicant-1" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestProcessFallsBackToHTMLBody(t *testing.T) {
	st := &fakeIntakeStore{jobs: []models.Job{{ID: "job-1", Title: "Senior Python Developer"}}}
	intake := newTestIntake(st, &fakeDispatcher{}, &fakeResumeStore{})

	email := inboundEmail()
	email.PlainBody = ""
	email.HTMLBody = "<p>Applying for the <b>senior python developer</b> position.</p>"

	if _, err := intake.Process(context.Background(), email); err != nil {
		t.Fatalf("Process: %v", err)
	}
	body := st.created[0].EmailBody
	if strings.Contains(body, "<p>") || !strings.Contains(body, "senior python developer") {
		t.Errorf("EmailBody = %q, want stripped HTML text", body)
	}
}

func TestPickResumeAttachmentByExtension(t *testing.T) {
	atts := []models.Attachment{
		{FileName: "notes.txt", ContentType: "text/plain"},
		{FileName: "Resume.DOCX", ContentType: "application/octet-stream"},
	}
	got := pickResumeAttachment(atts)
	if got == nil || got.FileName != "Resume.DOCX" {
		t.Fatalf("pickResumeAttachment = %+v", got)
	}
}
