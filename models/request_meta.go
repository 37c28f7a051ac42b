package models

// RequestMeta carries per-request metadata attached to audit trail entries.
type RequestMeta struct {
	RequestID string
	IPAddress string
	UserAgent string
}
