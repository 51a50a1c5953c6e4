// Package client implements a Firmata host client.
//
// A Client owns one byte link to a board. Run reads frames from the link,
// keeps a model of the board's pins and walks the board through discovery:
//
//   protocol version > firmware > capabilities > analog mapping > pin states
//
// after which reports are enabled and the client is Initialized. Control
// operations are rejected with ErrNotInitialized until then.
package client
