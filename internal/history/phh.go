package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/lox/holdemtable/internal/fileutil"
	"github.com/lox/holdemtable/internal/game"
	"github.com/lox/holdemtable/internal/phh"
)

// PHHStore writes each hand as a PHH file at <dir>/<table>/<number>-<id>.phh.
// Listing reads the files back, so pot breakdowns and winning hand names
// are not available from this backend.
type PHHStore struct {
	dir string

	mu     sync.Mutex
	closed bool
}

func NewPHHStore(dir string) (*PHHStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create phh directory: %w", err)
	}
	return &PHHStore{dir: dir}, nil
}

func (s *PHHStore) tableDir(tableID string) string {
	return filepath.Join(s.dir, safeName(tableID))
}

func (s *PHHStore) Save(_ context.Context, rec game.HandRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	path := filepath.Join(s.tableDir(rec.TableID), fmt.Sprintf("%08d-%s.phh", rec.HandNumber, safeName(rec.ID)))
	hand := phh.FromRecord(rec)
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return phh.Encode(w, hand)
	})
}

func (s *PHHStore) List(ctx context.Context, tableID string) ([]game.HandRecord, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	dir := s.tableDir(tableID)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []game.HandRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	out := []game.HandRecord{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".phh" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		hand, err := phh.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		rec, err := phh.ToRecord(hand)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out = append(out, rec)
	}
	slices.SortFunc(out, compareRecords)
	return out, nil
}

// LastHandNumber reads the hand numbers from the file names.
func (s *PHHStore) LastHandNumber(_ context.Context, tableID string) (int, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}

	entries, err := os.ReadDir(s.tableDir(tableID))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", tableID, err)
	}
	last := 0
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".phh")
		if e.IsDir() || !ok {
			continue
		}
		prefix, _, _ := strings.Cut(name, "-")
		if n, err := strconv.Atoi(prefix); err == nil {
			last = max(last, n)
		}
	}
	return last, nil
}

func (s *PHHStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// safeName keeps table ids from escaping the store directory.
func safeName(id string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	if id = r.Replace(id); id == "" {
		return "_"
	}
	return id
}
