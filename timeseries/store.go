// Package timeseries loads the per-room sensor CSV tables and answers the
// tabular fallback questions (hottest, coldest, occupancy pattern) from them.
//
// The room mapping is immutable once published: Reload builds a complete new
// mapping and swaps it in atomically, so readers never see a partial load.
package timeseries

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/roomq/building"
	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/logger"
)

const defaultDebounce = 500 * time.Millisecond

// snapshot is one complete, immutable load of the directory
type snapshot struct {
	rooms    map[string]building.RoomTimeSeries
	order    []string
	loadedAt time.Time
}

// Store serves room time series loaded from a directory of CSV files
type Store struct {
	dir      string
	log      *zap.SugaredLogger
	debounce time.Duration
	now      func() time.Time
	loc      *time.Location
	current  atomic.Pointer[snapshot]
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the store's logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Store) { s.log = l }
}

// WithDebounce sets how long Watch waits for file events to settle
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// WithLocation sets the timezone hours of day are read in (default UTC).
// Use the forecast timezone so occupancy patterns and forecasts agree.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Open loads every CSV file in dir. An unreadable directory fails with
// errors.ErrDataLoad; a single bad file only removes that room.
func Open(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:      dir,
		debounce: defaultDebounce,
		now:      time.Now,
		loc:      time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrNop(s.log)

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewFromSeries builds a store from in-memory series. Used by tests and
// by callers that already hold the data.
func NewFromSeries(series ...building.RoomTimeSeries) *Store {
	s := &Store{debounce: defaultDebounce, now: time.Now, loc: time.UTC, log: logger.OrNop(nil)}
	rooms := make(map[string]building.RoomTimeSeries, len(series))
	for _, rs := range series {
		rooms[rs.RoomID] = rs
	}
	s.current.Store(newSnapshot(rooms, s.now()))
	return s
}

// Dir returns the directory the store loads from
func (s *Store) Dir() string {
	return s.dir
}

// Reload re-reads the directory and publishes the result atomically.
// On failure the previous mapping stays in place.
func (s *Store) Reload() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return errors.WrapAs(errors.ErrDataLoad, err, "read time-series directory "+s.dir)
	}

	rooms := make(map[string]building.RoomTimeSeries)
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		roomID, ok := RoomIDFromFilename(entry.Name())
		if !ok {
			s.log.Warnw("Skipping time-series file with unexpected name",
				logger.FieldFile, entry.Name())
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		series, err := readFile(path, roomID)
		if err != nil {
			// The room is simply absent from this load
			s.log.Warnw("Skipping unreadable time-series file",
				logger.FieldFile, path,
				logger.FieldRoom, roomID,
				logger.FieldError, err)
			continue
		}
		if prev, dup := rooms[roomID]; dup {
			s.log.Warnw("Duplicate room file, keeping first",
				logger.FieldRoom, roomID,
				logger.FieldFile, path,
				logger.FieldCount, len(prev.Samples))
			continue
		}
		rooms[roomID] = series
	}

	snap := newSnapshot(rooms, s.now())
	s.current.Store(snap)

	s.log.Debugw("Time-series tables loaded",
		logger.FieldDir, s.dir,
		logger.FieldRooms, len(snap.order))
	return nil
}

func newSnapshot(rooms map[string]building.RoomTimeSeries, at time.Time) *snapshot {
	order := make([]string, 0, len(rooms))
	for id := range rooms {
		order = append(order, id)
	}
	sort.Strings(order)
	return &snapshot{rooms: rooms, order: order, loadedAt: at}
}

func (s *Store) snap() *snapshot {
	if snap := s.current.Load(); snap != nil {
		return snap
	}
	return &snapshot{rooms: map[string]building.RoomTimeSeries{}}
}

// Rooms returns the loaded room ids in ascending order
func (s *Store) Rooms() []string {
	order := s.snap().order
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// Series returns one room's series
func (s *Store) Series(room string) (building.RoomTimeSeries, bool) {
	rs, ok := s.snap().rooms[room]
	return rs, ok
}

// All returns a copy of the room mapping. The series themselves are shared
// and must be treated as read-only.
func (s *Store) All() map[string]building.RoomTimeSeries {
	rooms := s.snap().rooms
	out := make(map[string]building.RoomTimeSeries, len(rooms))
	for k, v := range rooms {
		out[k] = v
	}
	return out
}

// LoadedAt reports when the current mapping was published
func (s *Store) LoadedAt() time.Time {
	return s.snap().loadedAt
}

// RoomIDFromFilename extracts the room id from "room_<id>_timeseries.csv":
// the second underscore-delimited token.
func RoomIDFromFilename(name string) (string, bool) {
	parts := strings.Split(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)), "_")
	if len(parts) < 2 || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
