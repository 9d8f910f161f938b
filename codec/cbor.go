package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/arloliu/robotcmd/types"
)

// cborEncMode produces deterministic output so equal records encode to equal bytes.
var cborEncMode cbor.EncMode

var cborDecMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	cborEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}
	cborDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

type cborCodec struct{}

// CBOR returns the canonical CBOR codec.
func CBOR() Codec {
	return cborCodec{}
}

func (cborCodec) Name() string { return NameCBOR }

func (cborCodec) Marshal(cmd *types.RobotCmd) ([]byte, error) {
	data, err := cborEncMode.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("cbor encode robot command: %w", err)
	}

	return data, nil
}

func (cborCodec) Unmarshal(data []byte, cmd *types.RobotCmd) error {
	if err := cborDecMode.Unmarshal(data, cmd); err != nil {
		return fmt.Errorf("cbor decode robot command: %w", err)
	}

	return nil
}
