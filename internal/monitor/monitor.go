package monitor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingCredential is returned when a private source is polled without a token.
	ErrMissingCredential = errors.New("private source requires a credential")

	// ErrRateLimited is returned when the source refuses the request due to rate limits.
	ErrRateLimited = errors.New("rate limited by source")

	// ErrNotFound is returned when the document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrMalformedResponse is returned when the response lacks the expected structure.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrDecode is returned when document content cannot be decoded.
	ErrDecode = errors.New("decode document content")

	// ErrHeaderNotFound is returned when the table header marker is absent.
	ErrHeaderNotFound = errors.New("table header not found")
)

// StatusError reports an unexpected HTTP status from the source.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("source returned status %d", e.Code)
}

// Source retrieves the current fingerprint of a monitored document.
type Source interface {
	// Name returns the name of this source.
	Name() string

	// Fetch retrieves the current fingerprint.
	Fetch(ctx context.Context) (Fingerprint, error)
}

// Record is a single row extracted from the document's table.
type Record struct {
	Company  string
	Role     string
	Location string
}

// NewRecord builds a Record, rejecting empty fields.
func NewRecord(company, role, location string) (Record, error) {
	r := Record{
		Company:  strings.TrimSpace(company),
		Role:     strings.TrimSpace(role),
		Location: strings.TrimSpace(location),
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Validate checks that all fields are present.
func (r Record) Validate() error {
	switch {
	case r.Company == "":
		return errors.New("record has empty company")
	case r.Role == "":
		return errors.New("record has empty role")
	case r.Location == "":
		return errors.New("record has empty location")
	}
	return nil
}

func (r Record) String() string {
	return fmt.Sprintf("%s | %s | %s", r.Company, r.Role, r.Location)
}

// Kind identifies how a fingerprint is compared.
type Kind int

const (
	// KindNone marks the zero fingerprint (no observation yet).
	KindNone Kind = iota
	// KindToken compares an opaque content token by equality.
	KindToken
	// KindRecords compares extracted records by set difference.
	KindRecords
)

func (k Kind) String() string {
	switch k {
	case KindToken:
		return "token"
	case KindRecords:
		return "records"
	default:
		return "none"
	}
}

// Fingerprint is the comparable identity of a document at one point in time.
type Fingerprint struct {
	Kind    Kind
	Token   string
	Records []Record
}

// TokenFingerprint wraps a content token such as a blob SHA.
func TokenFingerprint(token string) Fingerprint {
	return Fingerprint{Kind: KindToken, Token: token}
}

// RecordsFingerprint wraps an ordered list of extracted records.
func RecordsFingerprint(records []Record) Fingerprint {
	return Fingerprint{Kind: KindRecords, Records: records}
}

// IsZero reports whether the fingerprint holds no observation.
func (f Fingerprint) IsZero() bool {
	return f.Kind == KindNone
}

// String returns a short form suitable for logs and history.
func (f Fingerprint) String() string {
	switch f.Kind {
	case KindToken:
		return f.Token
	case KindRecords:
		return fmt.Sprintf("records:%d:%s", len(f.Records), HashRecords(f.Records))
	default:
		return ""
	}
}

// Change describes the difference between a baseline and a new observation.
type Change struct {
	Changed    bool
	NewRecords []Record
}

// Diff compares current against baseline.
// A zero baseline or zero current never counts as a change.
func Diff(baseline, current Fingerprint) Change {
	if baseline.IsZero() || current.IsZero() {
		return Change{}
	}

	if baseline.Kind != current.Kind {
		return Change{Changed: true, NewRecords: current.Records}
	}

	switch current.Kind {
	case KindToken:
		return Change{Changed: baseline.Token != current.Token}
	case KindRecords:
		added := NewRecords(baseline.Records, current.Records)
		return Change{Changed: len(added) > 0, NewRecords: added}
	}
	return Change{}
}

// NewRecords returns the records in current that are absent from baseline,
// in the order they appear in current.
func NewRecords(baseline, current []Record) []Record {
	seen := make(map[Record]struct{}, len(baseline))
	for _, r := range baseline {
		seen[r] = struct{}{}
	}

	var added []Record
	for _, r := range current {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		added = append(added, r)
	}
	return added
}

// HashRecords generates a short digest of a record list.
func HashRecords(records []Record) string {
	h := sha256.New()
	for _, r := range records {
		fmt.Fprintf(h, "%s\x1f%s\x1f%s\x1e", r.Company, r.Role, r.Location)
	}
	return hex.EncodeToString(h.Sum(nil)[:8])
}
