package status

// Delivery is the send state of a chat message.
type Delivery string

const (
	Sending   Delivery = "sending"
	Sent      Delivery = "sent"
	Delivered Delivery = "delivered"
	Read      Delivery = "read"
	Errored   Delivery = "error"
)

// deliveryTransitions only moves forward along sending < sent < delivered < read.
// Read is reachable from everywhere because marking a conversation read is
// independent of the delivery pipeline. Errored can only be retried.
var deliveryTransitions = map[Delivery][]Delivery{
	Sending:   {Sent, Delivered, Read, Errored},
	Sent:      {Delivered, Read, Errored},
	Delivered: {Read},
	Read:      {},
	Errored:   {Sending, Read},
}

// Valid reports whether d is a known delivery state.
func (d Delivery) Valid() bool {
	_, ok := deliveryTransitions[d]
	return ok
}

// AdvanceDelivery validates a message delivery state change.
func AdvanceDelivery(from, to Delivery) error {
	return transition(deliveryTransitions, from, to)
}
