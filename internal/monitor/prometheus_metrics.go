package monitor

import "github.com/prometheus/client_golang/prometheus"

var SummaryVecMetrics = map[MetricTag]*prometheus.SummaryVec{
	HTTPRequestDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: DefaultNamespace, Subsystem: "http", Name: string(HTTPRequestDurationTag),
		Help: "HTTP requests durations, sliding window = 10m",
	},
		[]string{"status", "route", "method"},
	),
	SuccessfulQueryDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: DefaultNamespace, Subsystem: "db", Name: string(SuccessfulQueryDurationTag),
		Help: "Successful DB query durations",
	},
		[]string{"query_type"},
	),
	FailureQueryDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: DefaultNamespace, Subsystem: "db", Name: string(FailureQueryDurationTag),
		Help: "Failure DB query durations",
	},
		[]string{"query_type"},
	),
	ProviderRequestDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: DefaultNamespace, Subsystem: "provider", Name: string(ProviderRequestDurationTag),
		Help: "Payment provider API request durations",
	},
		[]string{"op", "result"},
	),
}

var CounterMetrics = map[MetricTag]prometheus.Counter{
	SlowSweepTickTag: prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: DefaultNamespace, Subsystem: "engine", Name: string(SlowSweepTickTag),
		Help: "Number of SlowSweeper ticks that ran to completion",
	}),
	SlowSweepCoalescedTag: prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: DefaultNamespace, Subsystem: "engine", Name: string(SlowSweepCoalescedTag),
		Help: "Number of SlowSweeper ticks dropped because the previous tick was still running",
	}),
	LeaseAcquiredTag: prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: DefaultNamespace, Subsystem: "engine", Name: string(LeaseAcquiredTag),
		Help: "Number of processing leases acquired",
	}),
	LeaseStolenTag: prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: DefaultNamespace, Subsystem: "engine", Name: string(LeaseStolenTag),
		Help: "Number of stale processing leases reclaimed from another instance",
	}),
}

var HistogramVecMetrics map[MetricTag]prometheus.HistogramVec

var CounterVecMetrics = map[MetricTag]*prometheus.CounterVec{
	VerificationStartedTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: DefaultNamespace, Subsystem: "engine", Name: string(VerificationStartedTag),
		Help: "Number of transactions that entered verification",
	},
		[]string{},
	),
	PaymentConfirmedTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: DefaultNamespace, Subsystem: "engine", Name: string(PaymentConfirmedTag),
		Help: "Number of transactions confirmed paid, by detection path",
	},
		[]string{"path"},
	),
	TransactionExpiredTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: DefaultNamespace, Subsystem: "engine", Name: string(TransactionExpiredTag),
		Help: "Number of transactions moved to PAYOUT_FAILED by the expiry sweeper",
	},
		[]string{},
	),
	NotificationFailedTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: DefaultNamespace, Subsystem: "notify", Name: string(NotificationFailedTag),
		Help: "Number of notification delivery failures, by channel",
	},
		[]string{"channel"},
	),
	ProviderRequestsTotalTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: DefaultNamespace, Subsystem: "provider", Name: string(ProviderRequestsTotalTag),
		Help: "Payment provider API requests, by operation and result",
	},
		[]string{"op", "status_code", "result"},
	),
	WebhookRequestsTotalTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: DefaultNamespace, Subsystem: "notify", Name: string(WebhookRequestsTotalTag),
		Help: "Outbound webhook deliveries, by result",
	},
		[]string{"channel", "result"},
	),
	EmailRequestsTotalTag: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: DefaultNamespace, Subsystem: "notify", Name: string(EmailRequestsTotalTag),
		Help: "Outbound email deliveries, by result",
	},
		[]string{"channel", "result"},
	),
}
