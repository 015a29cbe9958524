package service

import (
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"
)

// NATS subjects for canvassing events. The WebSocket feed subscribes to
// "roll.>" and relays these to connected dashboard clients.
const (
	SubjectStatusUpdated     = "roll.status.updated"
	SubjectAssignmentChanged = "roll.assignment.changed"
	SubjectWardCloned        = "roll.ward.cloned"
)

// publishEvent publishes a JSON event, best effort. Events are a side
// channel: a publish failure never fails the request that produced it.
func publishEvent(nc *nats.Conn, subject string, payload interface{}) {
	if nc == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := nc.Publish(subject, data); err != nil {
		log.Printf("[Events] publish %s failed: %v", subject, err)
	}
}
