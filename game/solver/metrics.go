package solver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// solvesTotal counts finished searches by outcome
	solvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boxpusher_solver_solves_total",
		Help: "Total solver runs by outcome",
	}, []string{"outcome"})

	// solveDuration tracks wall-clock time per search
	solveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "boxpusher_solver_duration_seconds",
		Help:    "Solver run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
	}, []string{"outcome"})

	// solveIterations tracks frontier pops per search
	solveIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "boxpusher_solver_iterations",
		Help:    "Frontier pops per solver run",
		Buckets: prometheus.ExponentialBuckets(1, 10, 8),
	})

	// deadlocksPruned counts successor states dropped as deadlocked
	deadlocksPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boxpusher_solver_deadlocks_pruned_total",
		Help: "Total successor states pruned by deadlock detection",
	})
)

func recordSolve(sol *Solution, pruned int) {
	outcome := sol.Outcome.String()
	solvesTotal.WithLabelValues(outcome).Inc()
	solveDuration.WithLabelValues(outcome).Observe(sol.TotalTime.Seconds())
	solveIterations.Observe(float64(sol.Iterations))
	deadlocksPruned.Add(float64(pruned))
}
