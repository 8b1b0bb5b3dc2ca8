// Package metrics defines the prometheus collectors of the onboarding service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "agent_onboarding"

	submissionsTotal  = "submissions_total"
	pollAttemptsTotal = "poll_attempts_total"
	buildsTotal       = "builds_total"
	buildDuration     = "build_duration_seconds"
	activeBuilds      = "active_builds"
	profileLoadsTotal = "profile_loads_total"
	profileSavesTotal = "profile_saves_total"

	outcomeLabel = "outcome"
	resultLabel  = "result"
)

// Label values.
const (
	SubmissionAccepted = "accepted"
	SubmissionRejected = "rejected"
	SubmissionFailed   = "failed"

	PollFound    = "found"
	PollNotFound = "not_found"
	PollError    = "error"

	BuildFound     = "found"
	BuildTimeout   = "timeout"
	BuildCancelled = "cancelled"

	ProfileOK       = "ok"
	ProfileNotFound = "not_found"
	ProfileError    = "error"
)

var submissionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      submissionsTotal,
		Help:      "number of onboarding submissions sent to the automation webhook",
	},
	[]string{outcomeLabel},
)

var pollAttemptsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      pollAttemptsTotal,
		Help:      "number of agent store polls partitioned by result",
	},
	[]string{resultLabel},
)

var buildsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      buildsTotal,
		Help:      "number of finished build sessions partitioned by outcome",
	},
	[]string{outcomeLabel},
)

var buildDurationMetric = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      buildDuration,
		Help:      "time from build start to completion",
		Buckets:   []float64{5, 10, 20, 30, 45, 60, 75, 90, 120},
	},
)

var activeBuildsMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      activeBuilds,
		Help:      "number of build sessions currently tracked",
	},
)

var profileLoadsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      profileLoadsTotal,
		Help:      "number of profile loads partitioned by outcome",
	},
	[]string{outcomeLabel},
)

var profileSavesTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      profileSavesTotal,
		Help:      "number of profile saves partitioned by outcome",
	},
	[]string{outcomeLabel},
)

func IncreaseSubmissionsTotalMetric(outcome string) {
	submissionsTotalMetric.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

func IncreasePollAttemptsTotalMetric(result string) {
	pollAttemptsTotalMetric.With(prometheus.Labels{resultLabel: result}).Inc()
}

// ObserveBuild records a finished build session.
func ObserveBuild(outcome string, elapsed time.Duration) {
	buildsTotalMetric.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
	if outcome != BuildCancelled {
		buildDurationMetric.Observe(elapsed.Seconds())
	}
}

func UpdateActiveBuildsMetric(count int) {
	activeBuildsMetric.Set(float64(count))
}

func IncreaseProfileLoadsTotalMetric(outcome string) {
	profileLoadsTotalMetric.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

func IncreaseProfileSavesTotalMetric(outcome string) {
	profileSavesTotalMetric.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(submissionsTotalMetric)
	prometheus.MustRegister(pollAttemptsTotalMetric)
	prometheus.MustRegister(buildsTotalMetric)
	prometheus.MustRegister(buildDurationMetric)
	prometheus.MustRegister(activeBuildsMetric)
	prometheus.MustRegister(profileLoadsTotalMetric)
	prometheus.MustRegister(profileSavesTotalMetric)
}
