package report

import (
	"strings"
	"time"

	"codeberg.org/mutker/sysreport/internal/errors"
)

// Layout decides how a multi-domain snapshot is serialized.
type Layout string

const (
	// LayoutList writes one document per domain, in collection order.
	LayoutList Layout = "list"
	// LayoutMerged writes a single document holding every domain section.
	LayoutMerged Layout = "merged"
)

func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case "", LayoutList:
		return LayoutList, nil
	case LayoutMerged:
		return LayoutMerged, nil
	default:
		return "", errors.New().WithData(errors.ErrInvalidLayout, s)
	}
}

// Result is the outcome of one collector: either Document or Err is set.
type Result struct {
	Domain   Domain
	Document *Document
	Err      error
	// Generated is the stamp used for the error marker of a failed result.
	Generated string
	Duration  time.Duration
}

func (r Result) OK() bool {
	return r.Err == nil && r.Document != nil
}

// Section returns the collector document, or an error marker in its place.
func (r Result) Section() *Document {
	if r.OK() {
		return r.Document
	}

	return ErrorDocument(r.Domain, r.Err, r.Generated)
}

// ErrorDocument builds the marker written in place of a failed domain.
func ErrorDocument(d Domain, err error, generated string) *Document {
	if err == nil {
		err = errors.New().New(errors.ErrCollectorFailed)
	}

	body := NewDocument().
		Set("Error", err.Error()).
		Set("Error Code", string(errors.CodeOf(err))).
		Set(GeneratedKey, generated)

	return NewDocument().Set(d.Title(), body)
}

// Snapshot is everything one collection request produced.
type Snapshot struct {
	Selection Selection
	Results   []Result
	Started   time.Time
	Finished  time.Time
}

// Documents returns one section document per result, in collection order.
func (s *Snapshot) Documents() []*Document {
	docs := make([]*Document, len(s.Results))
	for i, r := range s.Results {
		docs[i] = r.Section()
	}

	return docs
}

// Merged combines every domain section into one document. Section titles
// are unique per domain, so a conflict means two results for one domain.
func (s *Snapshot) Merged() (*Document, error) {
	merged := NewDocument()
	for _, doc := range s.Documents() {
		if err := merged.Merge(doc); err != nil {
			return nil, err
		}
	}

	return merged, nil
}

// Failed returns the results that carry an error.
func (s *Snapshot) Failed() []Result {
	var failed []Result
	for _, r := range s.Results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}

	return failed
}

// Payload is the value handed to a serializer: the bare document for a
// single-domain snapshot, otherwise a list or merged document per layout.
func (s *Snapshot) Payload(layout Layout) (any, error) {
	if !s.Selection.All() && len(s.Results) == 1 {
		return s.Results[0].Section(), nil
	}

	if layout == LayoutMerged {
		return s.Merged()
	}

	return s.Documents(), nil
}
