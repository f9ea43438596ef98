package modem

import (
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

// EventKind identifies what an Event reports.
type EventKind int

const (
	EventStarted EventKind = iota + 1
	EventStopped
	// EventTimeZone carries the network time zone (+CTZV).
	EventTimeZone
	// EventDaylightSaving carries the network daylight saving adjustment (DST:).
	EventDaylightSaving
	// EventDateTime carries the network date and time (*PSUTTZ).
	EventDateTime
	// EventPDPDeactivated is published when the network deactivates the PDP context.
	EventPDPDeactivated
	// EventAppNetwork reports the application network going up or down (+APP PDP).
	EventAppNetwork
	EventFunctionality
	EventSIMStatus
	// EventMessage carries an MQTT message received by the modem client (+SMSUB).
	EventMessage
	// EventNavigation carries a GNSS navigation report (+UGNSINF or NMEA).
	EventNavigation
	// EventMQTTState reports the modem MQTT client state (+SMSTATE).
	EventMQTTState
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventTimeZone:
		return "time_zone"
	case EventDaylightSaving:
		return "daylight_saving"
	case EventDateTime:
		return "date_time"
	case EventPDPDeactivated:
		return "pdp_deactivated"
	case EventAppNetwork:
		return "app_network"
	case EventFunctionality:
		return "functionality"
	case EventSIMStatus:
		return "sim_status"
	case EventMessage:
		return "message"
	case EventNavigation:
		return "navigation"
	case EventMQTTState:
		return "mqtt_state"
	default:
		return "unknown"
	}
}

// Message is an MQTT message delivered by the modem client.
type Message struct {
	Topic   string
	Payload []byte
}

// Event is published on the modem event bus. Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind
	// Time is when the event was received.
	Time time.Time

	// Clock is the network time of an EventDateTime.
	Clock time.Time
	// TimeZone is the offset from UTC in quarters of an hour.
	TimeZone int
	// DST is the daylight saving adjustment in hours.
	DST           int
	Active        bool
	Functionality int
	SIM           SIMStatus
	Message       Message
	Navigation    NavInfo
}

// Bus fans events out to named subscribers. Publishing never blocks: a subscriber whose
// buffer is full misses the event.
type Bus struct {
	// closeMu orders channel closes in Unsubscribe after in-progress publishes.
	closeMu     sync.RWMutex
	subscribers cmap.ConcurrentMap[string, chan Event]
	logger      zerolog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		subscribers: cmap.New[chan Event](),
		logger:      logger,
	}
}

// Subscribe registers name and returns its channel. Subscribing twice with the same name
// returns the existing channel.
func (b *Bus) Subscribe(name string, buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	if !b.subscribers.SetIfAbsent(name, ch) {
		existing, _ := b.subscribers.Get(name)
		return existing
	}
	return ch
}

// Unsubscribe removes name and closes its channel.
func (b *Bus) Unsubscribe(name string) {
	b.closeMu.Lock()
	defer b.closeMu.Unlock()
	if ch, ok := b.subscribers.Pop(name); ok {
		close(ch)
	}
}

// Publish delivers ev to every subscriber.
func (b *Bus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.closeMu.RLock()
	defer b.closeMu.RUnlock()
	for item := range b.subscribers.IterBuffered() {
		select {
		case item.Val <- ev:
		default:
			b.logger.Warn().
				Str("subscriber", item.Key).
				Str("event", ev.Kind.String()).
				Msg("Subscriber queue full, dropping event")
		}
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	return b.subscribers.Count()
}
