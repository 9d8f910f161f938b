package codec

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/arloliu/robotcmd/types"
)

type jsonCodec struct{}

// JSON returns the JSON codec.
func JSON() Codec {
	return jsonCodec{}
}

func (jsonCodec) Name() string { return NameJSON }

func (jsonCodec) Marshal(cmd *types.RobotCmd) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("json encode robot command: %w", err)
	}

	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, cmd *types.RobotCmd) error {
	if err := json.Unmarshal(data, cmd); err != nil {
		return fmt.Errorf("json decode robot command: %w", err)
	}

	return nil
}
