package classify

import (
	"time"

	"github.com/cinetrack/cinetrack/internal/media"
)

// MovieInput carries everything the movie classifier looks at.
type MovieInput struct {
	Details       media.Metadata
	ReleaseDates  media.ReleaseDatesResponse
	Dates         *ReleaseDates // used instead of ReleaseDates when set
	Region        string
	CurrentStatus media.Status    // empty for items being added
	Existing      *media.Metadata // stored metadata, nil for new items
	Now           time.Time       // zero means time.Now()
}

// MovieResult is the classifier's decision.
type MovieResult struct {
	Status         media.Status
	MovedToLibrary bool
	Dates          ReleaseDates
}

// movieFacts are derived once per classification.
type movieFacts struct {
	hasRegionalAvailability bool
	isReleased              bool
	hasFutureDigitalDate    bool
	isAvailableGlobally     bool
	isOldRelease            bool
	manualOverride          bool
}

// ClassifyMovie decides a movie's status and whether it belongs in the main
// library rather than the upcoming view. Rules are evaluated in order and the
// first match wins; a watched movie always stays watched.
func ClassifyMovie(in MovieInput) MovieResult {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	var dates ReleaseDates
	if in.Dates != nil {
		dates = *in.Dates
	} else {
		dates = ExtractReleaseDates(in.ReleaseDates, in.Region)
	}
	if in.Existing != nil && in.Existing.ManualDateOverride && in.Existing.DigitalReleaseDate != "" {
		dates.Digital = in.Existing.DigitalReleaseDate
		dates.DigitalNote = ""
	}

	f := deriveMovieFacts(in, dates, now)
	prev := in.CurrentStatus

	var res MovieResult
	switch {
	case f.hasRegionalAvailability && f.isReleased:
		res = libraryStatus(prev)

	case f.hasRegionalAvailability || f.hasFutureDigitalDate ||
		(prev == media.StatusMovieComingSoon && f.isReleased && dates.Digital != "") ||
		f.manualOverride:
		if prev != "" && prev != media.StatusMovieComingSoon && !f.manualOverride && !f.hasRegionalAvailability {
			res = MovieResult{Status: media.StatusMovieUnwatched, MovedToLibrary: true}
		} else {
			res = MovieResult{Status: media.StatusMovieOnOTT}
		}

	case f.isAvailableGlobally:
		res = libraryStatus(prev)

	case f.isOldRelease:
		res = libraryStatus(prev)

	default:
		res = MovieResult{Status: media.StatusMovieComingSoon}
	}

	switch prev {
	case media.StatusMovieOnOTT:
		if res.Status == media.StatusMovieUnwatched {
			res = MovieResult{Status: media.StatusMovieOnOTT}
		}
	case media.StatusMovieWatched:
		res = MovieResult{Status: media.StatusMovieWatched, MovedToLibrary: true}
	}

	if in.Existing != nil && in.Existing.MovedToLibrary {
		res.MovedToLibrary = true
	}

	res.Dates = dates
	return res
}

// Apply writes the decision's bookkeeping into m. A manual digital date is
// left untouched.
func (r MovieResult) Apply(m media.Metadata) media.Metadata {
	m.TheatricalReleaseDate = r.Dates.Theatrical
	if !m.ManualDateOverride {
		m.DigitalReleaseDate = r.Dates.Digital
	}
	m.MovedToLibrary = r.MovedToLibrary
	return m
}

func deriveMovieFacts(in MovieInput, dates ReleaseDates, now time.Time) movieFacts {
	today := media.Today(now)

	var f movieFacts
	if rp, ok := in.Details.ProvidersFor(in.Region); ok {
		f.hasRegionalAvailability = rp.HasAny()
	}
	f.manualOverride = in.Existing != nil && in.Existing.ManualDateOverride
	f.hasFutureDigitalDate = media.IsFuture(dates.Digital, now)

	effective, ok := media.ParseDate(media.EarlierDate(dates.Theatrical, in.Details.ReleaseDate))
	if !ok {
		f.isReleased = true
		return f
	}
	f.isReleased = !effective.After(today)
	f.isAvailableGlobally = effective.Before(today.AddDate(0, -6, 0)) && in.Details.HasProvidersAnywhere()
	f.isOldRelease = effective.Before(today.AddDate(-1, 0, 0))
	return f
}

// libraryStatus is the in-library outcome given the previous status. A movie
// that was announced as coming soon surfaces as newly on OTT first.
func libraryStatus(prev media.Status) MovieResult {
	switch prev {
	case media.StatusMovieWatched:
		return MovieResult{Status: media.StatusMovieWatched, MovedToLibrary: true}
	case media.StatusMovieComingSoon:
		return MovieResult{Status: media.StatusMovieOnOTT}
	}
	return MovieResult{Status: media.StatusMovieUnwatched, MovedToLibrary: true}
}
