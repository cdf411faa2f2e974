package history

import (
	"os"

	"github.com/rs/zerolog"

	"reqclassify/internal/store"
	"reqclassify/models"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// HistoryService owns the append-mostly classification log.
type HistoryService struct {
	store *store.HistoryStore
}

func NewHistoryService(historyStore *store.HistoryStore) *HistoryService {
	return &HistoryService{store: historyStore}
}

func (s *HistoryService) All() ([]models.HistoryEntry, error) {
	entries, err := s.store.Load()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load history")
		return nil, err
	}
	return entries, nil
}

func (s *HistoryService) Append(entries ...models.HistoryEntry) error {
	if err := s.store.Append(entries...); err != nil {
		logger.Error().Err(err).Int("count", len(entries)).Msg("Failed to append history entries")
		return err
	}
	return nil
}

// Delete removes the entry at the given position. Out-of-range indexes
// report store.ErrIndexOutOfRange and leave the log unchanged.
func (s *HistoryService) Delete(index int) error {
	return s.store.Delete(index)
}

// Counts tallies the log per label for the summary chart.
func (s *HistoryService) Counts() (functional, nonFunctional int, err error) {
	entries, err := s.All()
	if err != nil {
		return 0, 0, err
	}
	for _, entry := range entries {
		switch entry.Prediction {
		case models.LabelFunctional:
			functional++
		case models.LabelNonFunctional:
			nonFunctional++
		}
	}
	return functional, nonFunctional, nil
}
