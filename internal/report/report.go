package report

import (
	"github.com/roach88/geocheck/internal/analysis"
	"github.com/roach88/geocheck/internal/dataset"
	"github.com/roach88/geocheck/internal/gate"
)

// Report is the validation artifact of one run.
type Report struct {
	OK         bool                  `json:"ok"`
	Failures   []string              `json:"failures"`
	Thresholds gate.Config           `json:"thresholds"`
	Metrics    *analysis.Metrics     `json:"metrics"`
	Warnings   []dataset.Warning     `json:"warnings"`
	Inputs     []dataset.InputDigest `json:"inputs"`

	// Autofix is present only when symmetry repair was requested.
	Autofix *Autofix `json:"autofix,omitempty"`

	// Timing holds per-phase wall time in milliseconds. It is never part
	// of the content hash.
	Timing map[string]float64 `json:"timing,omitempty"`
}

// Autofix summarizes the repaired adjacency artifact.
type Autofix struct {
	AddedEdgeCount int    `json:"addedEdgeCount"`
	FixedSHA256    string `json:"fixedSha256,omitempty"`
}

// New assembles a report from the outputs of each pipeline stage.
func New(res *dataset.Result, m *analysis.Metrics, cfg gate.Config, d gate.Decision) *Report {
	r := &Report{
		OK:         d.OK,
		Failures:   d.Failures,
		Thresholds: cfg,
		Metrics:    m,
		Warnings:   res.Warnings,
		Inputs:     res.Inputs,
	}
	if r.Failures == nil {
		r.Failures = []string{}
	}
	if r.Warnings == nil {
		r.Warnings = []dataset.Warning{}
	}
	if r.Inputs == nil {
		r.Inputs = []dataset.InputDigest{}
	}
	if m.Repair != nil {
		r.Autofix = &Autofix{AddedEdgeCount: m.Repair.AddedEdgeCount}
	}
	return r
}

// Encode returns the file bytes for r and its content hash.
//
// The hash covers the canonical encoding of r without Timing, so it is
// stable whether or not timings were requested.
func (r *Report) Encode() (data []byte, hash string, err error) {
	body := *r
	body.Timing = nil
	canon, err := MarshalCanonical(&body)
	if err != nil {
		return nil, "", err
	}
	hash = Hash(DomainReport, canon)

	if len(r.Timing) > 0 {
		if canon, err = MarshalCanonical(r); err != nil {
			return nil, "", err
		}
	}
	data, err = indent(canon)
	if err != nil {
		return nil, "", err
	}
	return data, hash, nil
}
