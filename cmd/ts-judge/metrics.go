package main

import (
	"github.com/criyle/ts-judge/worker"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "ts_judge"
)

var (
	// 1ms -> 10s
	timeBuckets = []float64{
		0.001, 0.002, 0.005, 0.008, 0.010, 0.025, 0.050, 0.075, 0.1, 0.2,
		0.4, 0.6, 0.8, 1.0, 1.5, 2, 5, 10,
	}

	metricsSummaryQuantile = map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001}

	runErrorCount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "run_error",
		Help:      "Number of runs failed before any test case",
	})

	runCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "run_total",
		Help:      "Number of finished runs",
	}, []string{"status"})

	runTimeHist = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "run_time_seconds",
		Help:      "Histogram for the time of a whole run",
		Buckets:   timeBuckets,
	}, []string{"status"})

	caseTimeHist = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "case_time_seconds",
		Help:      "Histogram for the time of a test case invocation",
		Buckets:   timeBuckets,
	}, []string{"status"})

	caseTimeSummary = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace:  metricsNamespace,
		Name:       "case_time",
		Help:       "Summary for the time of a test case invocation",
		Objectives: metricsSummaryQuantile,
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(runErrorCount, runCount, runTimeHist)
	prometheus.MustRegister(caseTimeHist, caseTimeSummary)
}

func execObserve(res worker.Response) {
	status := "failed"
	switch {
	case res.Result == nil || res.Result.Error != "":
		status = "error"
		runErrorCount.Inc()
	case res.Result.AllPassed:
		status = "passed"
	}
	runCount.WithLabelValues(status).Inc()
	runTimeHist.WithLabelValues(status).Observe(res.Time.Seconds())
	if res.Result == nil {
		return
	}
	for _, r := range res.Result.Results {
		s := "failed"
		switch {
		case r.Error != "":
			s = "error"
		case r.Passed:
			s = "passed"
		}
		ob := r.Time.Seconds()
		caseTimeHist.WithLabelValues(s).Observe(ob)
		caseTimeSummary.WithLabelValues(s).Observe(ob)
	}
}
