package consensus

import (
	"fmt"
	"sort"
)

// Confidence grades how trustworthy a row's resolved identities look.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Field names used in tags. Stable: they appear in exported reports.
const (
	FieldTitle      = "title"
	FieldYear       = "year"
	FieldPlatforms  = "platforms"
	FieldDevelopers = "developers"
	FieldPublishers = "publishers"
)

// Values holds the majority value per field, for fields that reached
// consensus. Zero values mean no consensus (or nobody reported the field).
type Values struct {
	Title      string   `json:"title,omitempty"`
	Year       int      `json:"year,omitempty"`
	Platforms  []string `json:"platforms,omitempty"`
	Developers []string `json:"developers,omitempty"`
	Publishers []string `json:"publishers,omitempty"`
}

// Report is the diagnostic outcome for one row.
type Report struct {
	RowID      string     `json:"row_id"`
	Tags       []string   `json:"tags,omitempty"`
	Confidence Confidence `json:"confidence"`
	Consensus  Values     `json:"consensus,omitempty"`

	// Outliers lists, per field, the providers that disagreed with that
	// field's consensus. Kept structured (and persisted) so policy code does
	// not parse tags.
	Outliers map[string][]string `json:"outliers,omitempty"`
	// Wrong lists providers that were outliers on two or more fields.
	Wrong []string `json:"likely_wrong,omitempty"`
}

// LikelyWrong returns the providers flagged as probably misidentified,
// sorted.
func (r Report) LikelyWrong() []string {
	out := make([]string, len(r.Wrong))
	copy(out, r.Wrong)
	return out
}

// IsOutlier reports whether provider disagreed with the consensus for field.
func (r Report) IsOutlier(field, provider string) bool {
	for _, p := range r.Outliers[field] {
		if p == provider {
			return true
		}
	}
	return false
}

// OutlierFields returns the fields on which provider is an outlier, sorted.
func (r Report) OutlierFields(provider string) []string {
	var out []string
	for field, providers := range r.Outliers {
		for _, p := range providers {
			if p == provider {
				out = append(out, field)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

func tagMissing(provider string) string {
	return "missing:" + provider
}

func tagOutlier(field, provider string) string {
	return fmt.Sprintf("%s_outlier:%s", field, provider)
}

func tagNoConsensus(field string) string {
	return field + "_no_consensus"
}

func tagLikelyWrong(provider string) string {
	return "likely_wrong:" + provider
}

const tagAmbiguousTitleYear = "ambiguous_title_year"
