// Package mood groups diary days into mood periods using k-means clustering
// over their daily arousal/valence/dominance averages.
package mood

import (
	"fmt"
	"slices"
	"time"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/justestif/go-voice-diary/internal/emotion"
)

// Config holds clustering parameters.
type Config struct {
	NumClusters    int // Number of clusters to create (default: 3)
	MinClusterSize int // Minimum days per period (smaller clusters become outliers)
	// Classifier names each period from its centroid. Nil uses emotion.Default.
	Classifier *emotion.Classifier
}

// DefaultConfig returns the recommended default configuration.
func DefaultConfig() Config {
	return Config{
		NumClusters:    3,
		MinClusterSize: 3,
	}
}

// Day is one calendar day of a user's diary.
type Day struct {
	Date       time.Time       `json:"date"`
	VAD        *emotion.VAD    `json:"vad,omitempty"` // nil when no recording was analysed that day
	Dominant   emotion.Emotion `json:"dominantEmotion,omitempty"`
	Recordings int             `json:"totalRecordings"`
}

// HasEmotion reports whether the day carries emotion data.
func (d Day) HasEmotion() bool {
	return d.VAD != nil && d.VAD.Finite()
}

// Period is a cluster of days with a similar voice mood.
type Period struct {
	Name      string          `json:"name"`     // "Calm: Jan 15, 2026 - Feb 3, 2026"
	Emotion   emotion.Emotion `json:"emotion"`  // Classification of the centroid
	Days      []Day           `json:"days"`     // Days in this period, oldest first
	Centroid  emotion.VAD     `json:"centroid"` // Mean VAD of the cluster
	StartDate time.Time       `json:"startDate"`
	EndDate   time.Time       `json:"endDate"`
}

// dayObservation wraps a Day to implement clusters.Observation.
type dayObservation struct {
	day    *Day
	coords clusters.Coordinates
}

func (o dayObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o dayObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// DetectPeriods groups days by VAD similarity.
// Returns mood periods (most recent first) and outlier days that don't belong
// to any period. Days without emotion data are always outliers; they are
// never treated as neutral points.
func DetectPeriods(days []Day, cfg Config) ([]Period, []Day, error) {
	if len(days) == 0 {
		return nil, nil, nil
	}

	if cfg.NumClusters <= 0 {
		cfg.NumClusters = DefaultConfig().NumClusters
	}
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = emotion.Default
	}

	var valid []*Day
	var missing []Day
	for i := range days {
		d := &days[i]
		if d.HasEmotion() {
			valid = append(valid, d)
		} else {
			missing = append(missing, *d)
		}
	}

	// Fewer days than clusters: nothing to group.
	if len(valid) < cfg.NumClusters {
		return nil, append(deref(valid), missing...), nil
	}

	var obs clusters.Observations
	for _, d := range valid {
		obs = append(obs, dayObservation{
			day:    d,
			coords: clusters.Coordinates{d.VAD.Arousal, d.VAD.Valence, d.VAD.Dominance},
		})
	}

	result, err := kmeans.New().Partition(obs, cfg.NumClusters)
	if err != nil {
		return nil, append(deref(valid), missing...), fmt.Errorf("partitioning %d days: %w", len(valid), err)
	}

	var periods []Period
	var outliers []Day

	for _, cluster := range result {
		var members []Day
		for _, o := range cluster.Observations {
			if do, ok := o.(dayObservation); ok {
				members = append(members, *do.day)
			}
		}

		if len(members) == 0 {
			continue
		}
		if len(members) < cfg.MinClusterSize {
			outliers = append(outliers, members...)
			continue
		}

		slices.SortFunc(members, func(a, b Day) int {
			return a.Date.Compare(b.Date)
		})

		centroid := centroidOf(members)
		label := classifier.Classify(centroid)
		start := members[0].Date
		end := members[len(members)-1].Date

		periods = append(periods, Period{
			Name:      formatPeriodName(label, start, end),
			Emotion:   label,
			Days:      members,
			Centroid:  centroid,
			StartDate: start,
			EndDate:   end,
		})
	}

	outliers = append(outliers, missing...)
	slices.SortFunc(outliers, func(a, b Day) int {
		return a.Date.Compare(b.Date)
	})

	// Most recent period first
	slices.SortFunc(periods, func(a, b Period) int {
		return b.StartDate.Compare(a.StartDate)
	})

	return periods, outliers, nil
}

// centroidOf averages member VADs directly so the result does not depend on
// the final iteration state of the partitioner.
func centroidOf(members []Day) emotion.VAD {
	vs := make([]emotion.VAD, len(members))
	for i, d := range members {
		vs[i] = *d.VAD
	}
	c, _ := emotion.Mean(vs)
	return c
}

func deref(ds []*Day) []Day {
	out := make([]Day, 0, len(ds))
	for _, d := range ds {
		out = append(out, *d)
	}
	return out
}
