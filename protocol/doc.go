// Package protocol defines the wire format spoken between Connect-Four
// clients and the rooms server.
//
// The protocol package implements:
//   - A closed set of inbound command variants, validated at decode time
//   - The outbound update variants broadcast by the server
//   - A JSON envelope keyed by the "Command" discriminator
//   - Length-prefixed framing for byte-stream transports
//
// Framing:
//
// Every message on a stream transport is a 4-byte big-endian payload length
// followed by exactly that many bytes of JSON. Zero-length frames are legal
// keepalives and are skipped by ReadFrame callers. Frames above the
// configured maximum fail with ErrFrameTooLarge, after which the stream can
// no longer be trusted and must be closed.
//
// Message transports such as WebSocket carry one JSON payload per message
// and skip the length prefix.
//
// Usage:
//
//	payload, err := protocol.ReadFrame(r, protocol.DefaultMaxFrame)
//	if err != nil {
//		return err
//	}
//	cmd, err := protocol.Decode(payload)
//	switch c := cmd.(type) {
//	case protocol.JoinRoom:
//		// ...
//	}
//
//	data, _ := protocol.Encode(protocol.RoomState{AvailableRooms: names})
//	protocol.WriteFrame(w, data)
package protocol
