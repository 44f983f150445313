package services

import "errors"

// Pipeline error taxonomy. Everything not listed here is either swallowed
// behind a documented degraded fallback (identity resolution, document
// extraction, dispatch-enqueue, resume storage) or wrapped as a plain
// downstream failure.
var (
	// ErrNoActiveJob: the owner has zero active postings, so the email
	// cannot be attributed. Terminal for the message; the webhook
	// answers 422 and an operator must create or activate a job.
	ErrNoActiveJob = errors.New("no active job to attribute the application to")

	// ErrDataIntegrity: an evaluation run referenced a missing applicant
	// or job. Fatal and never retried, since retrying cannot restore
	// missing referential data.
	ErrDataIntegrity = errors.New("referenced record is missing")
)
