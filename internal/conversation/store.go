package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// logFile is the conversation log filename within the state directory.
const logFile = "conversation.json"

// record is the persisted form of a Message.
type record struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store persists one conversation log in a state directory. The log
// file is either the previous complete log or the new complete log;
// readers never observe a partial write, because Save writes to a
// temp file and renames it into place.
//
// Store assumes a single in-flight turn per state directory. Callers
// that run concurrent turns against the same directory must add their
// own serialization.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a store rooted at dir. The directory is created on
// first Save if it does not exist.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

// Path returns the absolute location of the log file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, logFile)
}

// Load returns the persisted log. A missing, empty, or corrupt file
// yields an empty log: corruption is logged but never propagated, so
// the conversation resumes empty rather than blocking the user.
func (s *Store) Load() Log {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("conversation log unreadable, starting empty",
				"path", s.Path(),
				"error", err,
			)
		}
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Error("conversation log corrupt, starting empty",
			"path", s.Path(),
			"error", err,
		)
		return nil
	}

	log := make(Log, 0, len(records))
	for _, r := range records {
		log = append(log, Message{Role: ParseRole(r.Role), Content: r.Content})
	}
	return log
}

// Save writes the complete log, replacing any prior content. Write
// failure is logged and returned but callers treat it as non-fatal:
// the in-memory result for the current turn is still delivered.
func (s *Store) Save(log Log) error {
	records := make([]record, 0, len(log))
	for _, m := range log {
		records = append(records, record{Role: m.Role.String(), Content: m.Content})
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		s.logger.Error("conversation log serialize failed", "error", err)
		return fmt.Errorf("serialize conversation log: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Error("conversation state dir create failed",
			"dir", s.dir,
			"error", err,
		)
		return fmt.Errorf("create state dir: %w", err)
	}

	// Atomic replace: write a sibling temp file, then rename over the
	// log. A crash mid-write leaves the previous complete log intact.
	tmp, err := os.CreateTemp(s.dir, logFile+".tmp-*")
	if err != nil {
		s.logger.Error("conversation log temp file failed", "error", err)
		return fmt.Errorf("create temp log: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		s.logger.Error("conversation log write failed", "error", err)
		return fmt.Errorf("write temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		s.logger.Error("conversation log close failed", "error", err)
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		os.Remove(tmpName)
		s.logger.Error("conversation log replace failed",
			"path", s.Path(),
			"error", err,
		)
		return fmt.Errorf("replace conversation log: %w", err)
	}
	return nil
}
