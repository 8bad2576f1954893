// Package hub provides the username directory and fan-out delivery for the
// rooms server.
//
// The hub package implements:
//   - A transport-neutral Conn abstraction for framed connections
//   - Per-connection Peers, each with a bounded send queue and write pump
//   - The username to Peer directory with duplicate-name rejection
//   - Broadcast to every claimed user and targeted delivery to a user list
//
// Delivery:
//
// Enqueueing never blocks. When a peer's queue is full, or a write to its
// connection fails, the peer is closed. Closing the connection unblocks the
// peer's reader, which then runs the normal disconnect cleanup. Delivery to
// the remaining targets carries on regardless.
//
// Usage:
//
//	h := hub.New(logger)
//	peer := hub.NewPeer(uuid.NewString(), conn, 256)
//	go peer.WritePump()
//	if err := h.Register("alice", peer); err != nil {
//		// username taken
//	}
//	h.SendTo([]string{"alice", "bob"}, payload)
//	h.Broadcast(payload)
package hub
