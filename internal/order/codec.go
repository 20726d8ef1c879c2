package order

import (
	"encoding/json"
	"fmt"

	"BasketStore/internal/basket"
)

// The item payload carries an explicit schema version so that a format
// change can be rolled out without guessing at old rows.
const payloadVersion = 1

type itemsPayload struct {
	Version int           `json:"v"`
	Items   []basket.Item `json:"items"`
}

func encodeItems(items []basket.Item) (string, error) {
	raw, err := json.Marshal(itemsPayload{Version: payloadVersion, Items: items})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeItems(raw string) ([]basket.Item, error) {
	var p itemsPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, err
	}
	if p.Version != payloadVersion {
		return nil, fmt.Errorf("unsupported items payload version %d", p.Version)
	}
	if len(p.Items) == 0 {
		return nil, fmt.Errorf("items payload is empty")
	}
	return p.Items, nil
}
