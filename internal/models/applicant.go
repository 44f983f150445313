package models

import "time"

// Applicant lifecycle: incoming -> analyzing -> qualified | rejected.
// An oracle failure reverts analyzing -> incoming so a later dispatch can retry.
const (
	ApplicantStatusIncoming  = "incoming"
	ApplicantStatusAnalyzing = "analyzing"
	ApplicantStatusQualified = "qualified"
	ApplicantStatusRejected  = "rejected"
)

// Applicant is one candidate's submission record for a specific job.
// Created exactly once per (owner, lower-cased email) pair; the pipeline
// only ever moves Status forward and never deletes the row.
type Applicant struct {
	ID           string    `firestore:"-"`
	OwnerID      string    `firestore:"ownerId"`
	JobID        string    `firestore:"jobId"`
	Name         string    `firestore:"name"`
	Email        string    `firestore:"email"`
	Status       string    `firestore:"status"`
	Source       string    `firestore:"source"`
	SourceDetail string    `firestore:"sourceDetail,omitempty"`
	EmailSubject string    `firestore:"emailSubject,omitempty"`
	EmailBody    string    `firestore:"emailBody,omitempty"`
	ResumeURL    string    `firestore:"resumeUrl,omitempty"`
	SubmittedAt  time.Time `firestore:"submittedAt"`
}
