package service

import (
	"sort"

	customerdomain "github.com/smallbiznis/churnlens/internal/customer/domain"
	"github.com/smallbiznis/churnlens/internal/dashboard/domain"
	"github.com/smallbiznis/churnlens/internal/taxonomy"
	"github.com/smallbiznis/churnlens/pkg/numeric"
)

// summarize groups the table by segment and risk. Every segment row lists
// every risk label present in the table, with zero counts filled in.
func summarize(customers []customerdomain.Customer) domain.Summary {
	type acc struct {
		customers int
		clv       float64
		revenue   float64
		risks     map[string]int
	}

	bySegment := map[string]*acc{}
	riskSeen := map[string]struct{}{}
	var totalCLV, totalRevenue float64
	highRisk := 0

	for _, c := range customers {
		a, ok := bySegment[c.Segment]
		if !ok {
			a = &acc{risks: map[string]int{}}
			bySegment[c.Segment] = a
		}
		a.customers++
		a.clv += c.CLV6M
		a.revenue += c.ExpectedRevenue30D
		a.risks[c.ChurnRisk]++

		riskSeen[c.ChurnRisk] = struct{}{}
		totalCLV += c.CLV6M
		totalRevenue += c.ExpectedRevenue30D
		if c.ChurnRisk == taxonomy.RiskHigh {
			highRisk++
		}
	}

	riskLabels := make([]string, 0, len(riskSeen))
	for r := range riskSeen {
		riskLabels = append(riskLabels, r)
	}
	sortRisks(riskLabels)

	summary := domain.Summary{
		ChurnCounts:      make(map[string]map[string]int, len(bySegment)),
		AvgCLVBySegment:  make(map[string]float64, len(bySegment)),
		RevenueBySegment: make(map[string]float64, len(bySegment)),
		Segments:         make([]domain.SegmentSummary, 0, len(bySegment)),
		RiskLabels:       riskLabels,
	}

	for _, segment := range orderedSegments(bySegment) {
		a := bySegment[segment]
		counts := make(map[string]int, len(riskLabels))
		for _, r := range riskLabels {
			counts[r] = a.risks[r]
		}
		avg := a.clv / float64(a.customers)

		summary.ChurnCounts[segment] = counts
		summary.AvgCLVBySegment[segment] = avg
		summary.RevenueBySegment[segment] = a.revenue
		summary.Segments = append(summary.Segments, domain.SegmentSummary{
			Segment:            segment,
			Customers:          a.customers,
			RiskCounts:         counts,
			AvgCLV:             avg,
			TotalCLV:           a.clv,
			ExpectedRevenue30D: a.revenue,
		})
	}

	summary.Summary = domain.Totals{
		TotalCustomers:       len(customers),
		TotalExpectedRevenue: numeric.Money(totalRevenue),
		HighRiskCount:        highRisk,
	}
	if len(customers) > 0 {
		summary.Summary.AvgCLV = numeric.Money(totalCLV / float64(len(customers)))
	}
	return summary
}

// orderedSegments lists known segments in display order, then any others
// alphabetically.
func orderedSegments[T any](bySegment map[string]T) []string {
	out := make([]string, 0, len(bySegment))
	for _, s := range taxonomy.Segments() {
		if _, ok := bySegment[s]; ok {
			out = append(out, s)
		}
	}
	var rest []string
	for s := range bySegment {
		if !taxonomy.IsSegment(s) {
			rest = append(rest, s)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func sortRisks(risks []string) {
	sort.Slice(risks, func(i, j int) bool {
		ri, rj := taxonomy.RiskRank(risks[i]), taxonomy.RiskRank(risks[j])
		if ri != rj {
			return ri < rj
		}
		return risks[i] < risks[j]
	})
}

// sortForListing orders customers by risk urgency, then by CLV descending,
// then by id.
func sortForListing(customers []customerdomain.Customer) {
	sort.SliceStable(customers, func(i, j int) bool {
		a, b := customers[i], customers[j]
		if ra, rb := taxonomy.RiskRank(a.ChurnRisk), taxonomy.RiskRank(b.ChurnRisk); ra != rb {
			return ra < rb
		}
		if a.CLV6M != b.CLV6M {
			return a.CLV6M > b.CLV6M
		}
		return a.ID < b.ID
	})
}
