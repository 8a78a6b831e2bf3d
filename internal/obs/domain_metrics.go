package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// DispatchBatchesTotal counts batch send requests processed.
	DispatchBatchesTotal prometheus.Counter
	// DispatchRecipientsTotal counts per-recipient dispatch outcomes.
	DispatchRecipientsTotal *prometheus.CounterVec
	// DispatchBatchDuration records wall time per batch in milliseconds.
	DispatchBatchDuration prometheus.Histogram
	// MailSendLatency records transport call latency in milliseconds.
	MailSendLatency *prometheus.HistogramVec
	// NonprofitRegistrationsTotal counts registration attempts by result.
	NonprofitRegistrationsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		DispatchBatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_batches_total",
			Help:      "Number of batch send requests processed.",
		})
		DispatchRecipientsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_recipients_total",
			Help:      "Per-recipient dispatch outcomes.",
		}, []string{"outcome"})
		DispatchBatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_batch_duration_ms",
			Help:      "Batch dispatch latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
		})
		MailSendLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mail_send_duration_ms",
			Help:      "Mail transport call latency in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"result"})
		NonprofitRegistrationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nonprofit_registrations_total",
			Help:      "Nonprofit registration attempts by result.",
		}, []string{"result"})

		mustRegisterCollector(reg, DispatchBatchesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				DispatchBatchesTotal = v
			}
		})
		mustRegisterCollector(reg, DispatchRecipientsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DispatchRecipientsTotal = v
			}
		})
		mustRegisterCollector(reg, DispatchBatchDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				DispatchBatchDuration = v
			}
		})
		mustRegisterCollector(reg, MailSendLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				MailSendLatency = v
			}
		})
		mustRegisterCollector(reg, NonprofitRegistrationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				NonprofitRegistrationsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
