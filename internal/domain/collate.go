package domain

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortRegionNames sorts Korean region names in natural reading order.
// A Collator is not safe for concurrent use, so each call builds its own.
func SortRegionNames(names []string) {
	collate.New(language.Korean).SortStrings(names)
}

// SortRegionStats orders stats by region name using Korean collation.
func SortRegionStats(stats []RegionStats) {
	collate.New(language.Korean).Sort(regionStatsByName(stats))
}

type regionStatsByName []RegionStats

func (s regionStatsByName) Len() int           { return len(s) }
func (s regionStatsByName) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s regionStatsByName) Bytes(i int) []byte { return []byte(s[i].Region) }
