package ports

// UsageEvent is one metering sample emitted after a data operation.
type UsageEvent struct {
	TenantID  string
	Operation string
	DataSize  int64
}

// UsageSink accepts metering events off the request hot path. Implementations
// must preserve per-tenant ordering and must never block the caller beyond a
// bounded buffer.
type UsageSink interface {
	Enqueue(event UsageEvent)
}
