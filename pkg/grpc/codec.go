package grpc

import (
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the content subtype of the JSON codec
const CodecName = "json"

func init() {
	encoding.RegisterCodec(JSONCodec{})
}

// JSONCodec marshals gRPC messages as JSON. It lets services use plain Go
// structs as request and response types.
type JSONCodec struct{}

// Marshal implements encoding.Codec
func (JSONCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal implements encoding.Codec
func (JSONCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// Name implements encoding.Codec
func (JSONCodec) Name() string {
	return CodecName
}

// WithJSON is the call option selecting the JSON codec on a client
func WithJSON() grpc.DialOption {
	return grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName))
}
