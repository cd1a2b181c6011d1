package assignment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var acceptRaceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "assignment_accept_race_total",
	Help: "Delivery accept attempts, by race outcome.",
}, []string{"result"})
