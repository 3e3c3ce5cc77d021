package service

import "github.com/prometheus/client_golang/prometheus"

// Lookup outcomes, used as metric labels and in logs.
const (
	OutcomeSuccess    = "success"
	OutcomeSuperseded = "superseded"
)

var lookupsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "postcodes_lookups_total",
		Help: "Postcode lookups by outcome",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(lookupsTotal)
}
