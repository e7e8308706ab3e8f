package classify

import (
	"slices"

	"github.com/cinetrack/cinetrack/internal/media"
)

// ReleaseDates is the per-region extraction of a movie's release schedule.
type ReleaseDates struct {
	Theatrical  string
	Digital     string
	DigitalNote string
}

// ExtractReleaseDates picks the theatrical and digital dates for region.
//
// Theatrical is the earliest regional limited/wide theatrical date, falling
// back to the earliest theatrical or digital date of any region. Digital is
// the earliest regional digital date, falling back to the regional physical
// release. Dates are reduced to their YYYY-MM-DD prefix.
func ExtractReleaseDates(resp media.ReleaseDatesResponse, region string) ReleaseDates {
	region = media.NormalizeRegion(region)

	var out ReleaseDates
	var regional []media.ReleaseDate
	for _, r := range resp.Results {
		if media.NormalizeRegion(r.Iso31661) == region {
			regional = r.ReleaseDates
			break
		}
	}

	out.Theatrical = earliestOfTypes(regional, media.ReleaseTypeTheatricalLimited, media.ReleaseTypeTheatrical).ReleaseDate
	if out.Theatrical == "" {
		var all []media.ReleaseDate
		for _, r := range resp.Results {
			all = append(all, r.ReleaseDates...)
		}
		out.Theatrical = earliestOfTypes(all,
			media.ReleaseTypeTheatricalLimited, media.ReleaseTypeTheatrical, media.ReleaseTypeDigital).ReleaseDate
	}

	digital := earliestOfTypes(regional, media.ReleaseTypeDigital)
	if digital.ReleaseDate == "" {
		digital = earliestOfTypes(regional, media.ReleaseTypePhysical)
	}
	out.Digital = digital.ReleaseDate
	out.DigitalNote = digital.Note

	return out
}

// earliestOfTypes returns the earliest dated entry whose type is one of
// types, with its date trimmed to the day.
func earliestOfTypes(dates []media.ReleaseDate, types ...int) media.ReleaseDate {
	var best media.ReleaseDate
	var bestDay media.Date
	for _, rd := range dates {
		if !slices.Contains(types, rd.Type) {
			continue
		}
		day, ok := media.ParseDate(rd.ReleaseDate)
		if !ok {
			continue
		}
		if best.ReleaseDate == "" || day.Before(bestDay) {
			best = rd
			best.ReleaseDate = day.String()
			bestDay = day
		}
	}
	return best
}
