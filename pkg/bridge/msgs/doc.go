// Package msgs defines the messages exchanged with a board over MQTT.
//
// Every message travels in a Typed envelope. The high bit of the type ID
// separates events (board to subscribers) from commands (publishers to board).
package msgs
