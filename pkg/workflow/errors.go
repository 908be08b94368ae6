package workflow

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/flowforge/flowengine/pkg/flowerr"
)

func duplicateNodeIDError(id uuid.UUID) error {
	return flowerr.Invalid("duplicate node id " + id.String())
}

func danglingConnectionError(id uuid.UUID) error {
	return flowerr.InvalidConnection("connection references unknown node " + id.String())
}

func jsonUnmarshalString(data []byte, out *string) error {
	return json.Unmarshal(data, out)
}

func jsonUnmarshalObject(data []byte, out any) error {
	return json.Unmarshal(data, out)
}
