package client

import (
	"encoding/json"
	"time"

	"github.com/chatrelay/chatrelay/domain"
)

// SessionExport is the downloadable form of a full session.
type SessionExport struct {
	Messages      []domain.Turn `json:"messages"`
	ExportDate    time.Time     `json:"exportDate"`
	TotalMessages int           `json:"totalMessages"`
}

// Export serializes the current session for download.
func (s *Store) Export() ([]byte, error) {
	turns := s.Turns()
	return json.MarshalIndent(SessionExport{
		Messages:      turns,
		ExportDate:    s.now().UTC(),
		TotalMessages: len(turns),
	}, "", "  ")
}
