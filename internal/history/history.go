/*
Package history provides the append-only record of every alert key ever reported.
*/
package history

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/shanehull/racealert/internal/types"
)

const (
	DefaultFileName = "seen_entries.txt"
	defaultDirName  = "racealert"
	entryKeyPrefix  = "ENTRY:"
	keySeparator    = "::"
)

// ErrPersist is returned when a key could not be appended to the history file.
var ErrPersist = errors.New("failed to persist seen key")

// CacheKey builds the dedup key for a match. Entries get their own namespace so a row seen
// on the upcoming page still alerts once when it shows up as an entry.
func CacheKey(source types.Source, name types.TrackedName, normalized string) string {
	key := string(name) + keySeparator + normalized
	if source == types.SourceEntries {
		return entryKeyPrefix + key
	}
	return key
}

// DefaultPath returns the history file location used when none is configured.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), defaultDirName, DefaultFileName)
}

// Store is the in-memory seen set backed by a newline-delimited file. Every key in memory
// has been written to the file first.
type Store struct {
	mutex    sync.Mutex
	seen     map[string]struct{}
	filePath string
}

// Load reads every key from path. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory %s: %w", filepath.Dir(path), err)
	}

	s := &Store{
		seen:     make(map[string]struct{}),
		filePath: path,
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("history file not found, starting fresh", "path", path)
			return s, nil
		}
		return nil, fmt.Errorf("failed to open history file %s: %w", path, err)
	}
	defer f.Close()

	var size int64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		size += int64(len(line)) + 1
		key := strings.TrimRight(line, "\r")
		if key == "" {
			continue
		}
		s.seen[key] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history file %s: %w", path, err)
	}

	slog.Info("loaded seen keys",
		"path", path,
		"keys", len(s.seen),
		"size", humanize.Bytes(uint64(size)),
	)
	return s, nil
}

func (s *Store) Contains(key string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, ok := s.seen[key]
	return ok
}

// AddAndPersist appends key to the file and only then records it in memory. An append
// failure leaves the in-memory set untouched and wraps ErrPersist.
func (s *Store) AddAndPersist(key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.seen[key]; ok {
		return nil
	}

	if err := appendLine(s.filePath, key); err != nil {
		return fmt.Errorf("%w %q to %s: %w", ErrPersist, key, s.filePath, err)
	}

	s.seen[key] = struct{}{}
	return nil
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *Store) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return len(s.seen)
}

func (s *Store) Path() string {
	return s.filePath
}

// Compact rewrites the history file with one line per unique key, sorted. The rewrite goes
// through a temp file and a rename so a crash never leaves a truncated history behind.
// Returns the number of duplicate or blank lines dropped.
func (s *Store) Compact() (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read history file %s: %w", s.filePath, err)
	}

	lines := strings.Split(string(data), "\n")
	unique := make(map[string]struct{}, len(lines))
	total := 0
	for _, line := range lines {
		key := strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		total++
		if key == "" {
			continue
		}
		unique[key] = struct{}{}
		s.seen[key] = struct{}{}
	}

	keys := make([]string, 0, len(unique))
	for k := range unique {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), filepath.Base(s.filePath)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary history file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	for _, k := range keys {
		if _, err := w.WriteString(k + "\n"); err != nil {
			tmp.Close()
			return 0, fmt.Errorf("failed to write temporary history file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to flush temporary history file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to sync temporary history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temporary history file: %w", err)
	}

	if err := os.Rename(tmpName, s.filePath); err != nil {
		return 0, fmt.Errorf("failed to replace history file %s: %w", s.filePath, err)
	}

	dropped := total - len(keys)
	slog.Info("compacted history file", "path", s.filePath, "keys", len(keys), "dropped", dropped)
	return dropped, nil
}
