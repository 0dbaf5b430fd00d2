package constants

import "time"

// Session and context keys
const (
	SessionCookieName   = "nirmaan_session"
	ContextKeyUserID    = "user_id"
	ContextKeyUserRole  = "user_role"
	ContextKeyRequestID = "request_id"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Auth
const (
	MinPasswordLength  = 8
	TempPasswordLength = 12
	DefaultJWTTTL      = 24 * time.Hour
)

// Task numbering
const (
	TaskNumberPrefix         = "TSK-"
	TaskNumberStart   uint64 = 10001
	TaskNumberRetries        = 3
)

// Real-time
const (
	TypingExpiry     = 5 * time.Second
	SocketSendBuffer = 64
	SocketWriteWait  = 10 * time.Second
	SocketPongWait   = 60 * time.Second
	SocketPingPeriod = (SocketPongWait * 9) / 10
	SocketMaxMessage = 64 * 1024
	RelayChannel     = "nirmaan:realtime"
	AdminRoom        = "role:admin"
)

// MaxAIGeneratedTasks caps the number of drafts accepted from one generation call.
const MaxAIGeneratedTasks = 20
