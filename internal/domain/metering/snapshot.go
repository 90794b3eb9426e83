package metering

import "sort"

// Snapshot is an immutable, indexed view over a set of readings.
// Billing works against a snapshot taken once per computation so that
// concurrent writes do not leak into a half-finished result.
type Snapshot struct {
	byRoom map[string][]*MeterReading // sorted by month ascending
}

// NewSnapshot indexes readings by room. Later duplicates of the same key win.
func NewSnapshot(readings []MeterReading) *Snapshot {
	latest := make(map[string]*MeterReading, len(readings))
	for i := range readings {
		r := readings[i]
		latest[r.Key()] = &r
	}

	byRoom := make(map[string][]*MeterReading)
	for _, r := range latest {
		byRoom[r.RoomNumber] = append(byRoom[r.RoomNumber], r)
	}
	for _, list := range byRoom {
		sort.Slice(list, func(i, j int) bool { return list[i].Month.Before(list[j].Month) })
	}
	return &Snapshot{byRoom: byRoom}
}

// Current returns the room's reading for month
func (s *Snapshot) Current(roomNumber string, month Month) (*MeterReading, bool) {
	list := s.byRoom[roomNumber]
	i := sort.Search(len(list), func(i int) bool { return !list[i].Month.Before(month) })
	if i < len(list) && list[i].Month == month {
		return list[i], true
	}
	return nil, false
}

// PreviousBefore returns the room's most recent reading strictly before month
func (s *Snapshot) PreviousBefore(roomNumber string, month Month) (*MeterReading, bool) {
	list := s.byRoom[roomNumber]
	i := sort.Search(len(list), func(i int) bool { return !list[i].Month.Before(month) })
	if i == 0 {
		return nil, false
	}
	return list[i-1], true
}

// Rooms returns the room numbers present in the snapshot
func (s *Snapshot) Rooms() []string {
	rooms := make([]string, 0, len(s.byRoom))
	for room := range s.byRoom {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}
