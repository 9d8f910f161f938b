// Package codec serializes RobotCmd records for the wire.
//
// CBOR is the default encoding. JSON is available for interop with tooling that
// cannot speak CBOR. Both codecs use the json struct tags declared on the
// types.RobotCmd records.
package codec

import (
	"fmt"

	"github.com/arloliu/robotcmd/types"
)

// Codec names accepted by ByName.
const (
	NameCBOR = "cbor"
	NameJSON = "json"
)

// Codec encodes and decodes RobotCmd records.
type Codec interface {
	// Name returns the codec name.
	Name() string

	// Marshal encodes cmd.
	Marshal(cmd *types.RobotCmd) ([]byte, error)

	// Unmarshal decodes data into cmd.
	Unmarshal(data []byte, cmd *types.RobotCmd) error
}

// ByName returns the codec registered under name.
//
// An empty name selects CBOR.
//
// Returns:
//   - Codec: The codec
//   - error: types.ErrUnknownCodec if name is not recognized
func ByName(name string) (Codec, error) {
	switch name {
	case "", NameCBOR:
		return CBOR(), nil
	case NameJSON:
		return JSON(), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownCodec, name)
	}
}

// Names returns the registered codec names.
func Names() []string {
	return []string{NameCBOR, NameJSON}
}
