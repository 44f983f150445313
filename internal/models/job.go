package models

import "time"

// Job status values. Matching only ever considers active postings.
const (
	JobStatusActive = "active"
	JobStatusPaused = "paused"
	JobStatusClosed = "closed"
)

// AIPersona is the employer-defined screening profile for a posting.
// It is read-only to the pipeline and fed verbatim into the evaluation prompt.
type AIPersona struct {
	MustHaves   []string `firestore:"mustHaves"`
	NiceToHaves []string `firestore:"niceToHaves"`
	CulturalFit string   `firestore:"culturalFit"`
}

// Job represents one job posting in Firestore.
// Created and edited by the owner's dashboard; the pipeline never writes it.
type Job struct {
	ID          string    `firestore:"-"`
	OwnerID     string    `firestore:"ownerId"`
	Title       string    `firestore:"title"`
	Department  string    `firestore:"department,omitempty"`
	Description string    `firestore:"description,omitempty"`
	Status      string    `firestore:"status"`
	Persona     AIPersona `firestore:"aiPersona"`
	CreatedAt   time.Time `firestore:"createdAt"`
}
