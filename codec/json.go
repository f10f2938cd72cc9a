package codec

import (
	"encoding/json"

	"github.com/unkn0wn-root/souris"
)

// JSON exports a *souris.Store as JSON and imports through souris.FromJSON.
// Binary values are written as base64 strings and characters as one-rune
// strings; both read back as strings.
type JSON struct{}

var _ Codec[*souris.Store] = JSON{}

func (JSON) Encode(s *souris.Store) ([]byte, error) { return json.Marshal(nativeStore(s, flavorText)) }
func (JSON) Decode(b []byte) (*souris.Store, error) { return souris.FromJSON(b) }
