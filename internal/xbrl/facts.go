// Package xbrl turns SEC XBRL company facts into normalized fundamentals.
//
// Only a fixed set of US-GAAP/DEI concepts is read; this is deliberately
// not an accounting-standard-compliant XBRL parser. Filings are irregular
// (some companies report only annual facts, some only quarterly, some both
// with overlaps), so period classification is duration-based rather than
// trusting any field flag.
package xbrl

import (
	"encoding/json"
	"fmt"
)

// Observation is one reported fact. Immutable once decoded.
type Observation struct {
	Val   float64 `json:"val"`
	End   string  `json:"end"`             // period end, YYYY-MM-DD
	Start string  `json:"start,omitempty"` // empty for instant-style facts
	FY    int     `json:"fy,omitempty"`
	FP    string  `json:"fp,omitempty"`
}

// ConceptSeries holds the observations of one concept per unit of measure.
type ConceptSeries struct {
	Label string                   `json:"label,omitempty"`
	Units map[string][]Observation `json:"units"`
}

// FactTree is the decoded companyfacts document:
// namespace → concept tag → series.
type FactTree struct {
	CIK        int                                 `json:"cik"`
	EntityName string                              `json:"entityName"`
	Facts      map[string]map[string]ConceptSeries `json:"facts"`
}

// rawObservation tolerates entries with missing or non-numeric fields;
// such entries are dropped during decode, never surfaced to callers.
type rawObservation struct {
	Val   *float64 `json:"val"`
	End   string   `json:"end"`
	Start string   `json:"start"`
	FY    int      `json:"fy"`
	FP    string   `json:"fp"`
}

type rawConcept struct {
	Label string                       `json:"label"`
	Units map[string][]json.RawMessage `json:"units"`
}

type rawFactTree struct {
	CIK        int                              `json:"cik"`
	EntityName string                           `json:"entityName"`
	Facts      map[string]map[string]rawConcept `json:"facts"`
}

// DecodeFactTree parses a companyfacts JSON document into a typed tree.
// Malformed observations (no numeric val, no end date) are filtered here
// so downstream code never sees them.
func DecodeFactTree(data []byte) (*FactTree, error) {
	var raw rawFactTree
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse company facts: %w", err)
	}

	tree := &FactTree{
		CIK:        raw.CIK,
		EntityName: raw.EntityName,
		Facts:      make(map[string]map[string]ConceptSeries, len(raw.Facts)),
	}

	for ns, concepts := range raw.Facts {
		dst := make(map[string]ConceptSeries, len(concepts))
		for tag, c := range concepts {
			series := ConceptSeries{
				Label: c.Label,
				Units: make(map[string][]Observation, len(c.Units)),
			}
			for unit, items := range c.Units {
				obs := make([]Observation, 0, len(items))
				for _, item := range items {
					var ro rawObservation
					if err := json.Unmarshal(item, &ro); err != nil {
						continue
					}
					if ro.Val == nil || ro.End == "" {
						continue
					}
					obs = append(obs, Observation{
						Val:   *ro.Val,
						End:   trimDate(ro.End),
						Start: trimDate(ro.Start),
						FY:    ro.FY,
						FP:    ro.FP,
					})
				}
				series.Units[unit] = obs
			}
			dst[tag] = series
		}
		tree.Facts[ns] = dst
	}

	return tree, nil
}

// Series returns the observations reported for (namespace, concept, unit).
// Missing levels yield an empty slice, never nil-pointer trouble.
func (t *FactTree) Series(ns, tag, unit string) []Observation {
	if t == nil {
		return nil
	}
	concepts, ok := t.Facts[ns]
	if !ok {
		return nil
	}
	series, ok := concepts[tag]
	if !ok {
		return nil
	}
	return series.Units[unit]
}

// trimDate keeps only the YYYY-MM-DD prefix of a timestamp-ish string.
func trimDate(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
