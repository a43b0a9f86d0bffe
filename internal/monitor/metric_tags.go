package monitor

type MetricTag string

const (
	SuccessfulQueryDurationTag MetricTag = "successful_queries_duration"
	FailureQueryDurationTag    MetricTag = "failure_queries_duration"
	HTTPRequestDurationTag     MetricTag = "requests_duration_seconds"

	// Verification engine lifecycle
	VerificationStartedTag    MetricTag = "verification_started_counter"
	PaymentConfirmedTag       MetricTag = "payment_confirmed_counter"
	TransactionExpiredTag     MetricTag = "transaction_expired_counter"
	NotificationFailedTag     MetricTag = "notification_failed_counter"
	SlowSweepTickTag          MetricTag = "slow_sweep_tick_counter"
	SlowSweepCoalescedTag     MetricTag = "slow_sweep_coalesced_counter"
	LeaseAcquiredTag          MetricTag = "lease_acquired_counter"
	LeaseStolenTag            MetricTag = "lease_stolen_counter"

	// Provider API requests
	ProviderRequestDurationTag MetricTag = "provider_request_duration_seconds"
	ProviderRequestsTotalTag   MetricTag = "provider_requests_total"

	// Notification channel requests
	WebhookRequestsTotalTag MetricTag = "webhook_requests_total"
	EmailRequestsTotalTag   MetricTag = "email_requests_total"

	// Connection pool gauges (real-time state)
	DBOpenConnectionsTag    MetricTag = "open_connections"
	DBInUseConnectionsTag   MetricTag = "in_use_connections"
	DBIdleConnectionsTag    MetricTag = "idle_connections"
	DBMaxOpenConnectionsTag MetricTag = "max_open_connections"

	// Connection pool counters (cumulative)
	DBWaitCountTotalTag           MetricTag = "wait_count_total"
	DBWaitDurationSecondsTotalTag MetricTag = "wait_duration_seconds_total"
	DBMaxIdleClosedTotalTag       MetricTag = "max_idle_closed_total"
	DBMaxIdleTimeClosedTotalTag   MetricTag = "max_idle_time_closed_total"
	DBMaxLifetimeClosedTotalTag   MetricTag = "max_lifetime_closed_total"
)

func (m MetricTag) ListAll() []MetricTag {
	return []MetricTag{
		SuccessfulQueryDurationTag,
		FailureQueryDurationTag,
		HTTPRequestDurationTag,

		VerificationStartedTag,
		PaymentConfirmedTag,
		TransactionExpiredTag,
		NotificationFailedTag,
		SlowSweepTickTag,
		SlowSweepCoalescedTag,
		LeaseAcquiredTag,
		LeaseStolenTag,

		ProviderRequestDurationTag,
		ProviderRequestsTotalTag,

		WebhookRequestsTotalTag,
		EmailRequestsTotalTag,

		DBOpenConnectionsTag,
		DBInUseConnectionsTag,
		DBIdleConnectionsTag,
		DBMaxOpenConnectionsTag,
		DBWaitCountTotalTag,
		DBWaitDurationSecondsTotalTag,
		DBMaxIdleClosedTotalTag,
		DBMaxIdleTimeClosedTotalTag,
		DBMaxLifetimeClosedTotalTag,
	}
}
