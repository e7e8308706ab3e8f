// Package classify turns catalog metadata and viewing progress into a
// watch-list status. Everything here is pure and shared by the interactive
// watch-list service and the scheduled reclassification job.
package classify

import (
	"strings"
	"time"

	"github.com/cinetrack/cinetrack/internal/media"
)

// terminalShowStatuses are catalog lifecycle values after which no new
// seasons are expected.
var terminalShowStatuses = []string{"Ended", "Canceled", "Cancelled", "Miniseries"}

// DetermineShowStatus classifies a show relative to the current local day.
func DetermineShowStatus(m media.Metadata, lastWatchedSeason int) media.Status {
	return DetermineShowStatusAt(m, lastWatchedSeason, time.Now())
}

// DetermineShowStatusAt classifies a show from its season list, episode
// pointers and the last season the viewer finished. Dates are compared as
// calendar days in now's location.
func DetermineShowStatusAt(m media.Metadata, lastWatchedSeason int, now time.Time) media.Status {
	released := releasedSeasons(m.Seasons, now)

	if len(released) == 0 {
		// A dangling last-aired pointer without dated seasons means the show
		// is already airing.
		if m.LastEpisodeToAir != nil {
			return media.StatusShowOngoing
		}
		return media.StatusShowNew
	}

	if lastWatchedSeason <= 0 {
		if isTerminalShow(m) {
			return media.StatusShowFinished
		}
		return media.StatusShowOngoing
	}

	if lastWatchedSeason < len(released) {
		return media.StatusShowWatching
	}

	if next := m.NextEpisodeToAir; next != nil && media.IsFuture(next.AirDate, now) {
		if next.SeasonNumber == lastWatchedSeason {
			return media.StatusShowWatching
		}
		return media.StatusShowReturning
	}

	for _, s := range m.Seasons {
		if s.SeasonNumber > lastWatchedSeason && media.IsFuture(s.AirDate, now) {
			return media.StatusShowReturning
		}
	}

	return media.StatusShowWatched
}

// ReleasedSeasonCount is the number of regular seasons that have premiered
// by now. A viewer who has watched that many seasons is caught up.
func ReleasedSeasonCount(m media.Metadata, now time.Time) int {
	return len(releasedSeasons(m.Seasons, now))
}

// releasedSeasons returns the regular seasons whose premiere has passed.
// Season 0 holds specials and never counts.
func releasedSeasons(seasons []media.Season, now time.Time) []media.Season {
	var out []media.Season
	for _, s := range seasons {
		if s.SeasonNumber > 0 && media.IsReleased(s.AirDate, now) {
			out = append(out, s)
		}
	}
	return out
}

func isTerminalShow(m media.Metadata) bool {
	for _, st := range terminalShowStatuses {
		if strings.EqualFold(m.Status, st) || strings.EqualFold(m.Type, st) {
			return true
		}
	}
	return false
}
