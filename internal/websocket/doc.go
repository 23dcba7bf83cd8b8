// Package websocket streams per-session batch progress to browser clients.
//
// A Hub owns the subscriber set and is driven by Run. Publishers never
// write to connections directly: events are queued on the hub and fanned
// out to the clients subscribed to the event's session.
package websocket
