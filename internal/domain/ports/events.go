package ports

// Events is the push-channel boundary. Handlers receive no payload: pushes
// are wake-up signals only, and subscribers reconcile by pulling a full
// snapshot instead of trusting embedded data.
type Events interface {
	On(channel string, fn func())
	Off(channel string)
}
