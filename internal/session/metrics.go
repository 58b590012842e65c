package session

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cpgview_session_commands_total",
		Help: "Session commands applied, by command and outcome",
	}, []string{"command", "outcome"})

	expansionsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cpgview_expansions_in_flight",
		Help: "Expansions waiting for a backend response",
	})

	staleExpansions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cpgview_stale_expansions_total",
		Help: "Expansion results discarded because the store was reset meanwhile",
	})

	storeNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cpgview_store_nodes",
		Help: "Nodes in the session store",
	})
)

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrStaleExpansion):
		return "stale"
	default:
		return "error"
	}
}
