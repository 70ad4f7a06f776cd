package consensus

import (
	"sort"
	"strings"

	"gamepin/internal/identity"
	"gamepin/internal/textutil"
)

// Diagnose cross-checks the resolved identities for one row. The input maps
// provider name to that provider's outcome; unresolved providers participate
// only as missing tags. Permuting the map never changes the output.
func Diagnose(rowID string, resolved map[string]identity.ResolvedIdentity) Report {
	report := Report{
		RowID:    rowID,
		Outliers: make(map[string][]string),
	}

	providers := make([]string, 0, len(resolved))
	for name := range resolved {
		providers = append(providers, name)
	}
	sort.Strings(providers)

	var tags []string
	missingCount := 0
	for _, name := range providers {
		if !resolved[name].Resolved {
			tags = append(tags, tagMissing(name))
			missingCount++
		}
	}

	noConsensus := make(map[string]bool)
	outlierFieldCount := make(map[string]int)

	for _, field := range []string{FieldTitle, FieldYear, FieldPlatforms, FieldDevelopers, FieldPublishers} {
		obs := observationsFor(field, providers, resolved)
		if len(obs.providers) == 0 {
			continue
		}

		majority, rest := splitByMajority(obs)
		if majority == nil {
			if len(obs.providers) > 1 {
				noConsensus[field] = true
				tags = append(tags, tagNoConsensus(field))
			}
			continue
		}

		fillConsensusValue(&report.Consensus, field, majority, obs)
		for _, name := range rest {
			report.Outliers[field] = append(report.Outliers[field], name)
			outlierFieldCount[name]++
			tags = append(tags, tagOutlier(field, name))
		}
	}

	for _, name := range providers {
		if outlierFieldCount[name] >= 2 {
			report.Wrong = append(report.Wrong, name)
			tags = append(tags, tagLikelyWrong(name))
		}
	}

	if noConsensus[FieldTitle] && noConsensus[FieldYear] {
		tags = append(tags, tagAmbiguousTitleYear)
	}

	sort.Strings(tags)
	report.Tags = tags
	report.Confidence = confidenceFor(tags, missingCount, len(report.Wrong) > 0, noConsensus)
	return report
}

func confidenceFor(tags []string, missingCount int, anyLikelyWrong bool, noConsensus map[string]bool) Confidence {
	if anyLikelyWrong || (noConsensus[FieldTitle] && noConsensus[FieldYear]) {
		return ConfidenceLow
	}
	// A single absent provider is normal catalog coverage, not a warning.
	if len(tags) == 0 || (len(tags) == 1 && missingCount == 1) {
		return ConfidenceHigh
	}
	return ConfidenceMedium
}

// observations collects one field's values across providers. Providers that
// did not report the field (no year, empty set) are simply absent.
type observations struct {
	providers []string // sorted subset of all providers
	agree     func(a, b string) bool
	titles    map[string]string
	years     map[string]int
	sets      map[string]map[string]struct{}
	raw       map[string][]string // original spellings for reporting
}

func observationsFor(field string, providers []string, resolved map[string]identity.ResolvedIdentity) observations {
	obs := observations{
		titles: make(map[string]string),
		years:  make(map[string]int),
		sets:   make(map[string]map[string]struct{}),
		raw:    make(map[string][]string),
	}

	for _, name := range providers {
		ri := resolved[name]
		if !ri.Resolved {
			continue
		}
		switch field {
		case FieldTitle:
			if strings.TrimSpace(ri.Title) == "" {
				continue
			}
			obs.titles[name] = textutil.Normalize(ri.Title)
			obs.raw[name] = []string{ri.Title}
		case FieldYear:
			if ri.Year == 0 {
				continue
			}
			obs.years[name] = ri.Year
		case FieldPlatforms:
			set, raw := normalizeSet(ri.Platforms, normalizePlatform)
			if len(set) == 0 {
				continue
			}
			obs.sets[name] = set
			obs.raw[name] = raw
		case FieldDevelopers:
			set, raw := normalizeSet(ri.Developers, normalizeCompany)
			if len(set) == 0 {
				continue
			}
			obs.sets[name] = set
			obs.raw[name] = raw
		case FieldPublishers:
			set, raw := normalizeSet(ri.Publishers, normalizeCompany)
			if len(set) == 0 {
				continue
			}
			obs.sets[name] = set
			obs.raw[name] = raw
		}
		obs.providers = append(obs.providers, name)
	}

	switch field {
	case FieldTitle:
		obs.agree = func(a, b string) bool { return obs.titles[a] == obs.titles[b] }
	case FieldYear:
		obs.agree = func(a, b string) bool {
			d := obs.years[a] - obs.years[b]
			return d >= -1 && d <= 1
		}
	default:
		obs.agree = func(a, b string) bool { return intersects(obs.sets[a], obs.sets[b]) }
	}
	return obs
}

// splitByMajority groups the reporting providers by pairwise agreement and
// returns the strict-majority group plus everyone outside it, or nil when no
// group covers more than half the reporters. Agreement by year tolerance and
// set intersection is not transitive, so grouping uses union-find rather
// than bucketing by value.
func splitByMajority(obs observations) (majority, rest []string) {
	n := len(obs.providers)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if obs.agree(obs.providers[i], obs.providers[j]) {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]string)
	for i, name := range obs.providers {
		root := find(i)
		groups[root] = append(groups[root], name)
	}

	for _, members := range groups {
		if len(members)*2 > n {
			for _, name := range obs.providers {
				if containsString(members, name) {
					majority = append(majority, name)
				} else {
					rest = append(rest, name)
				}
			}
			return majority, rest
		}
	}
	return nil, nil
}

// fillConsensusValue records the majority group's value on the report. Ties
// break deterministically toward the most common value, then the smallest.
func fillConsensusValue(v *Values, field string, majority []string, obs observations) {
	switch field {
	case FieldTitle:
		counts := make(map[string]int)
		for _, name := range majority {
			counts[obs.raw[name][0]]++
		}
		v.Title = mostCommonString(counts)
	case FieldYear:
		counts := make(map[int]int)
		for _, name := range majority {
			counts[obs.years[name]]++
		}
		best, bestCount := 0, 0
		for year, count := range counts {
			if count > bestCount || (count == bestCount && year < best) {
				best, bestCount = year, count
			}
		}
		v.Year = best
	default:
		seen := make(map[string]struct{})
		var values []string
		for _, name := range majority {
			for _, raw := range obs.raw[name] {
				if _, ok := seen[raw]; ok {
					continue
				}
				seen[raw] = struct{}{}
				values = append(values, raw)
			}
		}
		sort.Strings(values)
		switch field {
		case FieldPlatforms:
			v.Platforms = values
		case FieldDevelopers:
			v.Developers = values
		case FieldPublishers:
			v.Publishers = values
		}
	}
}

func mostCommonString(counts map[string]int) string {
	best, bestCount := "", 0
	for s, count := range counts {
		if count > bestCount || (count == bestCount && s < best) {
			best, bestCount = s, count
		}
	}
	return best
}

// companySuffixes are corporate forms that carry no identity signal.
// "Ubisoft" and "Ubisoft Entertainment SA" are the same developer.
var companySuffixes = map[string]struct{}{
	"inc": {}, "ltd": {}, "llc": {}, "co": {}, "corp": {}, "corporation": {},
	"gmbh": {}, "sa": {}, "srl": {}, "ab": {}, "as": {}, "entertainment": {},
	"interactive": {}, "games": {}, "studios": {}, "studio": {}, "software": {},
}

func normalizeCompany(name string) string {
	tokens := textutil.Tokens(name)
	kept := tokens[:0]
	for _, tok := range tokens {
		if _, ok := companySuffixes[tok]; ok {
			continue
		}
		kept = append(kept, tok)
	}
	// An all-suffix name ("Interactive Entertainment") keeps its full form
	// rather than collapsing to nothing and matching everyone.
	if len(kept) == 0 {
		kept = tokens
	}
	return strings.Join(kept, " ")
}

func normalizePlatform(name string) string {
	return textutil.Normalize(name)
}

func normalizeSet(values []string, normalize func(string) string) (map[string]struct{}, []string) {
	set := make(map[string]struct{})
	var raw []string
	for _, value := range values {
		norm := normalize(value)
		if norm == "" {
			continue
		}
		if _, ok := set[norm]; !ok {
			raw = append(raw, strings.TrimSpace(value))
		}
		set[norm] = struct{}{}
	}
	sort.Strings(raw)
	return set, raw
}

func intersects(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
