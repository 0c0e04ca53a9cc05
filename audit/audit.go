// Package audit records every accepted and rejected reassignment decision,
// so a run can be replayed and each move argued from its evidence.
package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/geovalida/geovalida/territory"
)

// Entry is one recorded decision about one municipality.
type Entry struct {
	// ID is a unique identifier assigned at record time.
	ID uuid.UUID `json:"id"`

	// Stage names the pass that produced the decision.
	Stage string `json:"stage"`

	// Municipality is the subject of the decision.
	Municipality territory.MunicipalityID `json:"municipality"`

	// Source and Target are the units involved; Target is empty for
	// decisions that do not propose a destination.
	Source territory.UnitID `json:"source"`
	Target territory.UnitID `json:"target,omitempty"`

	// Accepted reports whether the move was applied.
	Accepted bool `json:"accepted"`

	// Reason is the machine-readable outcome, e.g. "principal-flow" or
	// "rejected:region".
	Reason string `json:"reason"`

	// Evidence carries the numbers the decision was argued from.
	Evidence map[string]float64 `json:"evidence,omitempty"`

	// At is the record timestamp.
	At time.Time `json:"at"`
}

// Log is an append-only decision trail. Every Record call is mirrored to
// the structured logger at Info (accepted) or Debug (rejected).
type Log struct {
	entries []Entry
	log     *slog.Logger
}

// NewLog returns an empty trail. A nil logger falls back to slog.Default().
func NewLog(l *slog.Logger) *Log {
	if l == nil {
		l = slog.Default()
	}
	return &Log{log: l}
}

// Record appends a decision and returns the stored entry.
func (a *Log) Record(e Entry) Entry {
	e.ID = uuid.New()
	e.At = time.Now().UTC()
	a.entries = append(a.entries, e)

	lvl := a.log.Debug
	if e.Accepted {
		lvl = a.log.Info
	}
	lvl("decision",
		"stage", e.Stage,
		"municipality", int64(e.Municipality),
		"source", string(e.Source),
		"target", string(e.Target),
		"accepted", e.Accepted,
		"reason", e.Reason)
	return e
}

// Accept records an applied move.
func (a *Log) Accept(stage string, m territory.MunicipalityID, source, target territory.UnitID, reason string, evidence map[string]float64) Entry {
	return a.Record(Entry{
		Stage: stage, Municipality: m, Source: source, Target: target,
		Accepted: true, Reason: reason, Evidence: evidence,
	})
}

// Reject records a refused move with the rule that blocked it.
func (a *Log) Reject(stage string, m territory.MunicipalityID, source, target territory.UnitID, rule string, evidence map[string]float64) Entry {
	return a.Record(Entry{
		Stage: stage, Municipality: m, Source: source, Target: target,
		Accepted: false, Reason: "rejected:" + rule, Evidence: evidence,
	})
}

// Entries returns a copy of the full trail in record order.
func (a *Log) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// ByStage returns the entries of one stage in record order.
func (a *Log) ByStage(stage string) []Entry {
	var out []Entry
	for _, e := range a.entries {
		if e.Stage == stage {
			out = append(out, e)
		}
	}
	return out
}

// AcceptedCount returns the number of applied moves across all stages.
func (a *Log) AcceptedCount() int {
	n := 0
	for _, e := range a.entries {
		if e.Accepted {
			n++
		}
	}
	return n
}

// Summary returns per-reason entry counts, useful for run reports.
func (a *Log) Summary() map[string]int {
	out := make(map[string]int)
	for _, e := range a.entries {
		out[e.Reason]++
	}
	return out
}

// Reasons returns the distinct reasons seen, sorted.
func (a *Log) Reasons() []string {
	s := a.Summary()
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Encode writes the full trail as indented JSON.
func (a *Log) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a.entries); err != nil {
		return fmt.Errorf("audit: encode trail: %w", err)
	}
	return nil
}
