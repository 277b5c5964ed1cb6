package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "namestofaces"

var (
	// PeopleStored is the size of the collection, locked or not
	PeopleStored = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "people_stored",
		Help:      "Number of people in the collection.",
	})

	SaveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "save_failures_total",
		Help:      "Number of times the collection could not be persisted.",
	})

	UnlockAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unlock_attempts_total",
		Help:      "Unlock attempts by outcome.",
	}, []string{"outcome"})
)
