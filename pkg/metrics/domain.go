package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain counters for the payment core. Registered on the default
// registry so they are exposed by the same scrape endpoint as the HTTP
// metrics.
var (
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Inbound gateway webhook events, partitioned by outcome.",
	}, []string{"outcome"})

	DonationsPaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "donations_paid_total",
		Help: "Donations transitioned into the paid state.",
	})

	ReconcileOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconcile_donations_total",
		Help: "Donations examined by the reconciliation job, partitioned by outcome.",
	}, []string{"outcome"})
)
