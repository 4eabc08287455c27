// Package dataset loads and validates the item/descriptor input files.
//
// A dataset is a JSON document with the labeled items and their optional
// links. Validation is deliberately two-tiered: structural problems
// (unparseable file, duplicate or unsafe ids, no items at all) reject the
// dataset, while content problems (unknown dimensions, out-of-enum values,
// items without descriptors) are reported per item and the dataset is kept.
// Degraded items score as zero contributions downstream.
package dataset

import (
	"encoding/json"
	"os"

	"github.com/quadmap/quadmap/pkg/errors"
	"github.com/quadmap/quadmap/pkg/plane"
	"github.com/quadmap/quadmap/pkg/scoring"
)

// Dataset is the parsed input file.
type Dataset struct {
	Items []plane.Item `json:"items"`
	Links []plane.Link `json:"links,omitempty"`
}

// Finding is one content-level validation issue. Findings never abort a
// load; they are surfaced so the operator can fix the data.
type Finding struct {
	ItemID    string `json:"item_id"`
	Dimension string `json:"dimension,omitempty"`
	Value     string `json:"value,omitempty"`
	Problem   string `json:"problem"`
}

// Report collects the findings of a validation pass.
type Report struct {
	Findings []Finding `json:"findings"`
}

// Clean reports whether validation found nothing to complain about.
func (r Report) Clean() bool { return len(r.Findings) == 0 }

// Load reads, parses, and structurally validates a dataset file. The
// returned report carries the content-level findings; a non-clean report
// still comes with a usable dataset.
func Load(path string) (*Dataset, Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, Report{}, errors.Wrap(errors.ErrCodeInvalidDataset, err, "read dataset %s", path)
	}
	return Parse(raw)
}

// Parse decodes and validates a dataset from raw JSON.
func Parse(raw []byte) (*Dataset, Report, error) {
	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, Report{}, errors.Wrap(errors.ErrCodeInvalidDataset, err, "parse dataset")
	}
	if err := ds.validateStructure(); err != nil {
		return nil, Report{}, err
	}
	return &ds, ds.Validate(scoring.DefaultTable), nil
}

// validateStructure enforces the hard requirements: at least one item, safe
// unique ids, links referencing existing items.
func (ds *Dataset) validateStructure() error {
	if len(ds.Items) == 0 {
		return errors.New(errors.ErrCodeInvalidDataset, "dataset contains no items")
	}

	seen := make(map[string]struct{}, len(ds.Items))
	for _, it := range ds.Items {
		if err := errors.ValidateItemID(it.ID); err != nil {
			return err
		}
		if _, dup := seen[it.ID]; dup {
			return errors.New(errors.ErrCodeInvalidDataset, "duplicate item id %q", it.ID)
		}
		seen[it.ID] = struct{}{}
	}

	for _, l := range ds.Links {
		if _, ok := seen[l.From]; !ok {
			return errors.New(errors.ErrCodeInvalidDataset, "link references unknown item %q", l.From)
		}
		if _, ok := seen[l.To]; !ok {
			return errors.New(errors.ErrCodeInvalidDataset, "link references unknown item %q", l.To)
		}
	}
	return nil
}

// Validate checks every item's descriptors against the score table and
// returns the findings. Items are never rejected here: unknown dimensions,
// unenumerated values, and missing descriptor sets all degrade gracefully.
func (ds *Dataset) Validate(table scoring.Table) Report {
	if table == nil {
		table = scoring.DefaultTable
	}

	var findings []Finding
	for _, it := range ds.Items {
		if len(it.Descriptors) == 0 {
			findings = append(findings, Finding{
				ItemID:  it.ID,
				Problem: "item has no descriptors; it will score to the origin",
			})
			continue
		}

		for dim, value := range it.Descriptors {
			if _, known := table[dim]; !known {
				findings = append(findings, Finding{
					ItemID:    it.ID,
					Dimension: dim,
					Value:     value,
					Problem:   "unknown descriptor dimension",
				})
				continue
			}
			if _, known := table.Lookup(dim, value); !known {
				findings = append(findings, Finding{
					ItemID:    it.ID,
					Dimension: dim,
					Value:     value,
					Problem:   "value not enumerated for this dimension",
				})
			}
		}

		for _, dim := range scoring.Dimensions {
			if _, ok := it.Descriptors[dim]; !ok {
				findings = append(findings, Finding{
					ItemID:    it.ID,
					Dimension: dim,
					Problem:   "missing descriptor dimension",
				})
			}
		}
	}
	return Report{Findings: findings}
}
