package mqtt

import (
	"github.com/rs/zerolog"

	"github.com/sweeney/smartsuite/internal/logic"
)

// alertQueue holds alerts raised while the broker is unreachable. When full
// the oldest alert is overwritten. Topics are resolved at replay time so a
// reloaded alerts topic applies to queued alerts too.
//
// Not safe for concurrent use; the caller must synchronize.
type alertQueue struct {
	ring    []logic.Alert
	next    int // slot for the next push
	size    int
	dropped int // overwritten since the last drain
	log     zerolog.Logger
}

func newAlertQueue(capacity int, log zerolog.Logger) *alertQueue {
	return &alertQueue{ring: make([]logic.Alert, capacity), log: log}
}

func (q *alertQueue) push(a logic.Alert) {
	if q.size == len(q.ring) {
		if q.dropped == 0 {
			q.log.Warn().Int("capacity", len(q.ring)).Msg("alert queue full, dropping oldest")
		}
		q.dropped++
	} else {
		q.size++
	}
	q.ring[q.next] = a
	q.next = (q.next + 1) % len(q.ring)
}

// drain returns the queued alerts oldest first and empties the queue,
// along with how many were lost to overflow.
func (q *alertQueue) drain() ([]logic.Alert, int) {
	if q.size == 0 {
		return nil, 0
	}
	out := make([]logic.Alert, q.size)
	first := (q.next - q.size + len(q.ring)) % len(q.ring)
	for i := range out {
		out[i] = q.ring[(first+i)%len(q.ring)]
	}
	dropped := q.dropped
	q.next, q.size, q.dropped = 0, 0, 0
	return out, dropped
}

// requeue puts alerts back at the front, ahead of anything pushed since the
// drain. Alerts that no longer fit are counted as dropped.
func (q *alertQueue) requeue(alerts []logic.Alert) {
	pending, dropped := q.drain()
	q.dropped = dropped
	for _, a := range alerts {
		q.push(a)
	}
	for _, a := range pending {
		q.push(a)
	}
}

func (q *alertQueue) len() int {
	return q.size
}
