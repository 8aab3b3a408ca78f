package store

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Memory and Bolt share the msgpack encoding. Struct fields are named after
// their json tags so documents read the same in every backend.

func marshalMsgpack(value any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := msgpack.NewEncoder(buf)
	enc.SetSortMapKeys(true)
	enc.SetCustomStructTag("json")
	err := enc.Encode(value)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshalMsgpack(data []byte, value any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(value)
}
