package protocol

// Kind is the value of the `msg` discriminator field of a DDP frame.
type Kind string

const (
	KindConnect     Kind = "connect"
	KindConnected   Kind = "connected"
	KindFailed      Kind = "failed"
	KindPing        Kind = "ping"
	KindPong        Kind = "pong"
	KindMethod      Kind = "method"
	KindResult      Kind = "result"
	KindSub         Kind = "sub"
	KindUnsub       Kind = "unsub"
	KindNosub       Kind = "nosub"
	KindAdded       Kind = "added"
	KindAddedBefore Kind = "addedBefore"
	KindChanged     Kind = "changed"
	KindRemoved     Kind = "removed"
	KindReady       Kind = "ready"
)

// Field names used by DDP frames.
const (
	FieldMessage    = "msg"
	FieldVersion    = "version"
	FieldSupport    = "support"
	FieldSession    = "session"
	FieldID         = "id"
	FieldMethod     = "method"
	FieldParams     = "params"
	FieldRandomSeed = "randomSeed"
	FieldName       = "name"
	FieldCollection = "collection"
	FieldFields     = "fields"
	FieldCleared    = "cleared"
	FieldResult     = "result"
	FieldError      = "error"
	FieldReason     = "reason"
	FieldDetails    = "details"
	FieldSubs       = "subs"
)
