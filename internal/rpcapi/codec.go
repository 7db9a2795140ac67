package rpcapi

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodecName is advertised as the grpc content-subtype, negotiated via
// the "grpc+json" content-type instead of the default "grpc+proto". This
// lets the RPC surface mirror the HTTP surface's JSON wire shapes without
// a protoc toolchain: every request/response here is a plain Go struct
// with json tags, not a generated protobuf message.
const jsonCodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec implements google.golang.org/grpc/encoding.Codec by
// delegating straight to encoding/json.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}
