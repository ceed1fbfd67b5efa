package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	workoutCommittedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "liftlog",
		Subsystem: "engine",
		Name:      "last_workout_committed_timestamp_seconds",
		Help:      "Unix timestamp of the most recent workout committed to the store.",
	})
	xpAwardedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "liftlog",
		Subsystem: "engine",
		Name:      "xp_awarded_total",
		Help:      "Total experience points awarded across all users.",
	})
	personalRecordCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "liftlog",
		Subsystem: "engine",
		Name:      "personal_records_total",
		Help:      "Total personal records detected at commit time.",
	})
)

func init() {
	prometheus.MustRegister(workoutCommittedGauge, xpAwardedCounter, personalRecordCounter)
}

// RecordWorkoutCommitted updates the commit watermark gauge.
func RecordWorkoutCommitted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	workoutCommittedGauge.Set(float64(ts.Unix()))
}

// RecordXPAwarded adds one commit's XP to the running counter.
func RecordXPAwarded(xp float64) {
	if xp <= 0 {
		return
	}
	xpAwardedCounter.Add(xp)
}

// RecordPersonalRecords counts records detected in one commit.
func RecordPersonalRecords(n int) {
	if n <= 0 {
		return
	}
	personalRecordCounter.Add(float64(n))
}
