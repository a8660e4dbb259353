// Package report renders and persists reliability-diagnostic reports. A
// report is the outcome of one evaluation run: per-method Pearson
// correlations against observed error, and the ICV selection if one was
// made. Reports are persisted to BoltDB keyed by timestamp so runs on the
// same dataset stay comparable over time.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"relest/internal/estimate"
)

// Row is one method's diagnostic outcome.
type Row struct {
	Method int
	Name   string
	R      float64
	P      float64
}

type rowJSON struct {
	Method int      `json:"method"`
	Name   string   `json:"name"`
	R      *float64 `json:"r"`
	P      *float64 `json:"p"`
}

// MarshalJSON encodes NaN correlations (degenerate estimate series) as
// null, since JSON has no NaN literal.
func (r Row) MarshalJSON() ([]byte, error) {
	enc := rowJSON{Method: r.Method, Name: r.Name}
	if !math.IsNaN(r.R) {
		enc.R = &r.R
	}
	if !math.IsNaN(r.P) {
		enc.P = &r.P
	}
	return json.Marshal(enc)
}

func (r *Row) UnmarshalJSON(data []byte) error {
	var dec rowJSON
	if err := json.Unmarshal(data, &dec); err != nil {
		return err
	}
	r.Method, r.Name = dec.Method, dec.Name
	r.R, r.P = math.NaN(), math.NaN()
	if dec.R != nil {
		r.R = *dec.R
	}
	if dec.P != nil {
		r.P = *dec.P
	}
	return nil
}

// Report is one evaluation run.
type Report struct {
	Timestamp time.Time `json:"timestamp"`
	Dataset   string    `json:"dataset"`
	Folds     int       `json:"folds"`
	Seed      int64     `json:"seed"`
	Rows      []Row     `json:"rows"`
	Selected  *int      `json:"selected,omitempty"` // ICV-chosen method id
}

// FromCorrelations assembles a report from diagnostic output.
func FromCorrelations(dataset string, folds int, seed int64, corrs []estimate.Correlation) Report {
	rows := make([]Row, len(corrs))
	for i, c := range corrs {
		rows[i] = Row{
			Method: int(c.Method),
			Name:   c.Method.String(),
			R:      c.R,
			P:      c.P,
		}
	}
	return Report{
		Timestamp: time.Now().UTC(),
		Dataset:   dataset,
		Folds:     folds,
		Seed:      seed,
		Rows:      rows,
	}
}

// Table renders the report as an aligned text table.
func (r Report) Table() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-22s %8s %8s\n", "Estimate", "r", "p")
	for _, row := range r.Rows {
		fmt.Fprintf(&b, "%-22s %8.3f %8.3f\n", row.Name, row.R, row.P)
	}
	if r.Selected != nil {
		fmt.Fprintf(&b, "ICV selection: %s\n", estimate.MethodID(*r.Selected))
	}
	return b.String()
}
