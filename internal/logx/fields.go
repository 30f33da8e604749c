package logx

const (
	FieldAttempt     = "attempt"
	FieldAggregate   = "aggregate"
	FieldChannel     = "channel"
	FieldDate        = "date"
	FieldDurationMs  = "duration-ms"
	FieldEventType   = "event-type"
	FieldFailureKind = "failure-kind"
	FieldFailed      = "failed"
	FieldGold        = "gold"
	FieldGoldDiff    = "gold-diff"
	FieldMaxAttempts = "max-attempts"
	FieldRecipient   = "recipient"
	FieldRunID       = "run-id"
	FieldSilver      = "silver"
	FieldSilverDiff  = "silver-diff"
	FieldSucceeded   = "succeeded"
	FieldTopic       = "topic"
	FieldTrigger     = "trigger"
)
