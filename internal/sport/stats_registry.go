package sport

import (
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Order tells the ranking aggregator which direction is better.
type Order int

const (
	// HigherIsBetter ranks the largest value first.
	HigherIsBetter Order = iota
	// LowerIsBetter ranks the smallest non-zero value first. Zero means
	// "not recorded" and sorts last.
	LowerIsBetter
)

// Metric is one independently ranked stats column.
type Metric struct {
	Name  string `json:"name"`
	Order Order  `json:"order"`
}

// Descriptor describes the stats schema and ranking metrics of one sport.
type Descriptor struct {
	Key     string
	Metrics []Metric

	newStats func(profileID uint) any
	load     func(db *gorm.DB, profileIDs []uint) ([]Stats, error)
}

// NewStats returns an empty stats record bound to profileID, ready to insert.
func (d Descriptor) NewStats(profileID uint) any {
	return d.newStats(profileID)
}

// Load fetches the stats rows for the given profiles.
func (d Descriptor) Load(db *gorm.DB, profileIDs []uint) ([]Stats, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}
	return d.load(db, profileIDs)
}

// Metric looks up a metric by name.
func (d Descriptor) Metric(name string) (Metric, bool) {
	for _, m := range d.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}

func loadStats[T Stats](db *gorm.DB, profileIDs []uint) ([]Stats, error) {
	var rows []T
	if err := db.Where("profile_id IN ?", profileIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Stats, 0, len(rows))
	for _, r := range rows {
		out = append(out, r)
	}
	return out, nil
}

// Registry maps a sport name to its Descriptor.
type Registry struct {
	byKey map[string]Descriptor
}

// Key normalizes a sport name into a registry key.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewRegistry builds a registry from descriptors. Later entries win.
func NewRegistry(descriptors ...Descriptor) *Registry {
	r := &Registry{byKey: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		r.byKey[Key(d.Key)] = d
	}
	return r
}

// Lookup finds the descriptor for a sport name, case-insensitively.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.byKey[Key(name)]
	return d, ok
}

// Keys returns the registered sport keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultRegistry knows the four built-in sports.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Descriptor{
			Key: "cricket",
			Metrics: []Metric{
				{Name: "runs"}, {Name: "wickets"}, {Name: "average"}, {Name: "strike_rate"},
			},
			newStats: func(id uint) any { return &CricketStats{ProfileID: id} },
			load:     loadStats[CricketStats],
		},
		Descriptor{
			Key: "football",
			Metrics: []Metric{
				{Name: "goals"}, {Name: "assists"}, {Name: "tackles"},
			},
			newStats: func(id uint) any { return &FootballStats{ProfileID: id} },
			load:     loadStats[FootballStats],
		},
		Descriptor{
			Key: "basketball",
			Metrics: []Metric{
				{Name: "points"}, {Name: "rebounds"}, {Name: "assists"},
			},
			newStats: func(id uint) any { return &BasketballStats{ProfileID: id} },
			load:     loadStats[BasketballStats],
		},
		Descriptor{
			Key: "running",
			Metrics: []Metric{
				{Name: "total_distance_km"},
				{Name: "best_time_seconds", Order: LowerIsBetter},
			},
			newStats: func(id uint) any { return &RunningStats{ProfileID: id} },
			load:     loadStats[RunningStats],
		},
	)
}
