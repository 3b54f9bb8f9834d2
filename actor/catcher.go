package actor

// Catch registers a typed handler on r — a thin, ergonomic alias for
// RegisterReceiverHandler built strictly on Receiver's public surface,
// adding no coupling of its own.
func Catch[V any](r *Receiver, handler func(V, Address)) {
	RegisterReceiverHandler[V](r, handler)
}
