package storage

import (
	"fmt"
	"os"
	"sync"

	"github.com/taxlot/matcher/internal/types"
)

// FileMatchStore implements MatchStore with append-only writes of the
// tab-separated match line, one per row, so the log stays sortable with the
// same tooling as stdout output. Write-only: use CompositeMatchStore with
// InMemoryMatchStore for reads.
type FileMatchStore struct {
	file  *os.File
	mutex sync.Mutex
}

// NewFileMatchStore creates a file-backed match store, appending to filePath.
func NewFileMatchStore(filePath string) (*FileMatchStore, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open match log: %w", err)
	}
	return &FileMatchStore{file: file}, nil
}

func (s *FileMatchStore) Save(match *types.Match) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, err := fmt.Fprintln(s.file, match.String())
	return err
}

func (s *FileMatchStore) SaveBatch(matches []*types.Match) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, match := range matches {
		if _, err := fmt.Fprintln(s.file, match.String()); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileMatchStore) GetRecent(limit int) ([]*types.Match, error) {
	return []*types.Match{}, nil
}

func (s *FileMatchStore) Close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
