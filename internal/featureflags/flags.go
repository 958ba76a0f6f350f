package featureflags

// Flags read by the services.
const (
	// PublishClassifier gates publishing on the content classifier verdict.
	PublishClassifier = "publish_classifier"
	// ReconcileTicker runs the counter reconciliation sweep on an interval.
	ReconcileTicker = "reconcile_ticker"
)
