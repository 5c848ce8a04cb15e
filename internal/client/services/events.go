package services

// State is a step of one upload run. Runs only ever move forward.
type State string

const (
	StateIdle                State = "idle"
	StateMaterializing       State = "materializing"
	StateNegotiatingSlots    State = "negotiating_slots"
	StateTransferring        State = "transferring"
	StateNegotiatingAnnounce State = "negotiating_announce"
	StateReconciling         State = "reconciling"
	StateDone                State = "done"
)

// Event is a progress notification. Total is the number of assets still in
// the batch when the state was entered.
type Event struct {
	State     State
	Total     int
	Succeeded int
	Failed    int
	Err       error
}

type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

type nopObserver struct{}

func (nopObserver) OnEvent(Event) {}

// ChannelObserver forwards events to a buffered channel. OnEvent never
// blocks; events that do not fit are dropped.
type ChannelObserver struct {
	C chan Event
}

func NewChannelObserver(buffer int) *ChannelObserver {
	return &ChannelObserver{C: make(chan Event, buffer)}
}

func (o *ChannelObserver) OnEvent(e Event) {
	select {
	case o.C <- e:
	default:
	}
}
