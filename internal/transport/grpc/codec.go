package grpc

import "encoding/json"

// jsonCodec serializes the hand-defined wire messages. The services here are
// registered through hand-written service descriptors rather than generated
// protobuf code, so the server forces this codec for every call.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return "json" }
