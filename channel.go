package waktunya

// Channel is a persistent, bidirectional, message-oriented connection to
// a named room. Implementations deliver inbound messages in the order
// the room emits them and invoke each lifecycle callback at most once
// per transition. Callbacks must be registered before Start.
type Channel interface {
	OnOpen(func())
	OnClose(func(reason string))
	OnError(func(err error))
	OnMessage(func(data []byte))

	Start()
	Send(data []byte) error
	Close() error
}
