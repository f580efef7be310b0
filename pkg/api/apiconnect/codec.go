// Package apiconnect wires the api messages to Connect handlers and clients.
//
// The layout follows protoc-gen-connect-go output: one file per service with
// procedure constants, a client, a handler interface, a handler constructor
// and an Unimplemented stub. Messages are plain Go structs, so every handler
// and client is built with Codec instead of the protobuf codecs.
package apiconnect

import (
	"encoding/json"
)

// Codec marshals api messages as JSON. It registers under the name "json",
// replacing Connect's protojson codec for these services, so requests use
// Content-Type application/json.
type Codec struct{}

// Name implements connect.Codec.
func (Codec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal implements connect.Codec.
func (Codec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}
