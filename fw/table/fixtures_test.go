package table

import (
	"time"

	"github.com/gonfd/gonfd/defn"
	enc "github.com/gonfd/gonfd/std/encoding"
)

// VALID_DATA_1 is the wire encoding of a Content Object named
// /ndn/edu/ucla/ping/123, shared by the baseCsEntry tests.
var VALID_DATA_1 = func() enc.Wire {
	name, _ := enc.NameFromStr("/ndn/edu/ucla/ping/123")
	return defn.EncodeDataWire(name, 4*time.Second, []byte("hello"))
}()
