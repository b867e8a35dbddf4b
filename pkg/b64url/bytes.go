package b64url

import "encoding/json"

// Bytes is a byte slice that marshals as base64url text in JSON. It is
// the wire type of every binary field in ceremony options and results.
type Bytes []byte

func (b Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(Encode(b))
}

func (b *Bytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	decoded, err := Decode(s)
	if err != nil {
		return err
	}
	*b = decoded

	return nil
}

func (b Bytes) String() string {
	return Encode(b)
}
