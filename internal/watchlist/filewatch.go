package watchlist

import (
	"github.com/rs/zerolog"

	"github.com/cinetrack/cinetrack/internal/watcher"
)

// WatchLocalFile drops the cached local list whenever the local store's file
// is changed by something other than the store itself, e.g. a sync tool or a
// hand edit.
func WatchLocalFile(store *LocalStore, svc *Service, logger zerolog.Logger) (*watcher.Watcher, error) {
	w, err := watcher.New(watcher.DefaultConfig(), func(changes []watcher.Change) {
		if !store.ChangedExternally() {
			return
		}
		logger.Info().Str("path", store.Path()).Msg("Local watchlist changed on disk")
		svc.Invalidate(LocalUserID)
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := w.AddFile(store.Path()); err != nil {
		w.Stop()
		return nil, err
	}
	return w, nil
}
