// Package tcp serves the game protocol over plain TCP.
//
// Each connection carries length-prefixed JSON frames (see package
// protocol). The Server accepts connections and hands each one, wrapped in a
// Conn, to a Handler, normally the session coordinator. An optional idle
// timeout turns a silent client into a read error, which the handler treats
// like any other disconnect.
package tcp
