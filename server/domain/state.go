package domain

// State bundles the shared resources of one server process. It is built once
// at startup and handed to every component that needs it.
type State struct {
	Sessions    *SessionRegistry
	Contents    *ContentRegistry
	Messages    *MessageLog
	Broadcaster *Broadcaster
}

func NewState(historyLimit int, broadcaster *Broadcaster) *State {
	if broadcaster == nil {
		broadcaster = NewBroadcaster(DefaultQueueSize)
	}
	return &State{
		Sessions:    NewSessionRegistry(),
		Contents:    NewContentRegistry(),
		Messages:    NewMessageLog(historyLimit),
		Broadcaster: broadcaster,
	}
}
