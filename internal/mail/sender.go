package mail

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Sentinel identity returned when no address-like token exists at all.
const (
	UnknownName  = "Unknown"
	UnknownEmail = "unknown@example.com"
)

// Identity is the resolved sender of an inbound application.
type Identity struct {
	Name  string
	Email string
}

var (
	angleAddrRe = regexp.MustCompile(`^(.*?)\s*<([^<>\s]+@[^<>\s]+)>`)
	bareAddrRe  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
)

// Markers that suggest the message was forwarded and the From header
// therefore names the forwarder, not the applicant.
var forwardedMarkers = []string{
	"forwarded message",
	"fwd:",
}

// IdentityExtractor is the AI escalation path for ambiguous senders.
type IdentityExtractor interface {
	ExtractIdentity(ctx context.Context, subject, body string) (Identity, error)
}

// Resolver extracts the applicant's identity from the From header, with
// an oracle escalation for the cases the heuristic cannot settle. The
// escalation is allowed to fail silently: a degraded identity is better
// than a dropped application.
type Resolver struct {
	extractor IdentityExtractor
}

func NewResolver(extractor IdentityExtractor) *Resolver {
	return &Resolver{extractor: extractor}
}

// ResolveHeuristic applies the three-tier header parse on its own:
// conventional `"Display Name" <address>` shape, then any bare address
// in the header, then the documented sentinel.
func ResolveHeuristic(fromHeader string) Identity {
	fromHeader = strings.TrimSpace(fromHeader)

	if m := angleAddrRe.FindStringSubmatch(fromHeader); m != nil {
		name := strings.Trim(strings.TrimSpace(m[1]), `"'`)
		email := strings.ToLower(strings.TrimSpace(m[2]))
		if name == "" {
			name = localPart(email)
		}
		return Identity{Name: name, Email: email}
	}

	if addr := bareAddrRe.FindString(fromHeader); addr != "" {
		email := strings.ToLower(addr)
		return Identity{Name: localPart(email), Email: email}
	}

	return Identity{Name: UnknownName, Email: UnknownEmail}
}

// Resolve runs the heuristic and escalates to the extraction oracle when
// the result is the sentinel, the address still contains "unknown", or
// the body carries a forwarded-message marker.
func (r *Resolver) Resolve(ctx context.Context, fromHeader, subject, body string) Identity {
	identity := ResolveHeuristic(fromHeader)

	if !r.needsEscalation(identity, body) {
		return identity
	}

	extracted, err := r.extractor.ExtractIdentity(ctx, subject, body)
	if err != nil {
		slog.Warn("Sender extraction escalation failed, keeping heuristic result.",
			"heuristicEmail", identity.Email, "error", err)
		return identity
	}

	if !wellFormed(extracted) {
		slog.Warn("Sender extraction returned a malformed identity, keeping heuristic result.",
			"heuristicEmail", identity.Email)
		return identity
	}

	extracted.Email = strings.ToLower(strings.TrimSpace(extracted.Email))
	extracted.Name = strings.TrimSpace(extracted.Name)
	return extracted
}

func (r *Resolver) needsEscalation(identity Identity, body string) bool {
	if r == nil || r.extractor == nil {
		return false
	}
	if identity.Name == UnknownName || strings.Contains(identity.Email, "unknown") {
		return true
	}
	lower := strings.ToLower(body)
	for _, marker := range forwardedMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func wellFormed(identity Identity) bool {
	return strings.TrimSpace(identity.Name) != "" &&
		bareAddrRe.MatchString(identity.Email)
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
