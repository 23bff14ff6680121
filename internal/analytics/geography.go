package analytics

import (
	"strings"
	"sync"

	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reportlens/internal/gaexport"
)

// UnknownRegion collects countries the resolver does not know.
const UnknownRegion = "Unknown"

// CountryResolver maps a country code to a display name and a world region.
type CountryResolver interface {
	Resolve(code string) (name, region string)
}

var loadCountries = sync.OnceValue(gountries.New)

type gountriesResolver struct {
	query *gountries.Query
}

// NewCountryResolver returns a resolver backed by the gountries dataset.
func NewCountryResolver() CountryResolver {
	return &gountriesResolver{query: loadCountries()}
}

func (r *gountriesResolver) Resolve(code string) (string, string) {
	country, err := r.query.FindCountryByAlpha(strings.TrimSpace(code))
	if err != nil {
		return cases.Upper(language.AmericanEnglish).String(code), UnknownRegion
	}
	region := country.Geo.Region
	if region == "" {
		region = UnknownRegion
	}
	return country.Name.Common, region
}

// GeographySummary describes where active users are.
type GeographySummary struct {
	Countries          gaexport.CategoryTotals   `json:"countries" yaml:"countries"`
	TotalUsers         int64                     `json:"total_users" yaml:"total_users"`
	TopCountry         string                    `json:"top_country" yaml:"top_country"`
	TopCountryUsers    int64                     `json:"top_country_users" yaml:"top_country_users"`
	CountryCount       int                       `json:"country_count" yaml:"country_count"`
	CountryPercentages gaexport.Ordered[float64] `json:"country_percentages" yaml:"country_percentages"`
	CountryNames       gaexport.Ordered[string]  `json:"country_names" yaml:"country_names"`
	Regions            gaexport.CategoryTotals   `json:"regions" yaml:"regions"`
}

func summarizeGeography(geo gaexport.CategoryTotals, resolver CountryResolver) GeographySummary {
	top := Top(geo)
	summary := GeographySummary{
		Countries:          geo,
		TotalUsers:         gaexport.Sum(geo),
		TopCountry:         top.Name,
		TopCountryUsers:    top.Count,
		CountryCount:       geo.Len(),
		CountryPercentages: Percentages(geo),
	}

	var regions gaexport.CategoryTotals
	for _, e := range geo.Entries() {
		name, region := resolver.Resolve(e.Label)
		summary.CountryNames.Set(e.Label, name)
		current, _ := regions.Get(region)
		regions.Set(region, current+e.Value)
	}
	summary.Regions = toOrdered(Ranked(regions))
	return summary
}
