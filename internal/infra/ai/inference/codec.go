package inference

import "encoding/json"

// jsonCodec lets the sidecar speak plain JSON over gRPC framing, so no
// generated stubs are needed on either side.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return "json" }
