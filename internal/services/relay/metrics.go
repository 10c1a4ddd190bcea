package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeReplied        = "replied"
	outcomeFallback       = "fallback"
	outcomeAuthFailed     = "auth_failed"
	outcomeRejected       = "upstream_rejected"
	outcomeNotFound       = "upstream_not_found"
	outcomeTimeout        = "upstream_timeout"
	outcomeUnavailable    = "upstream_unavailable"
	outcomeUpstreamError  = "upstream_error"
	outcomeDeliveryFailed = "delivery_failed"
)

var repliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "agent_relay",
	Name:      "replies_total",
	Help:      "Messages handled by the relay, by outcome.",
}, []string{"outcome"})
