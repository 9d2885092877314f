package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SnapshotKey is the store key holding the whole cart.
const SnapshotKey = "@GoMarketplace:products"

var ErrCorruptSnapshot = errors.New("corrupt cart snapshot")

// EncodeSnapshot serializes the full collection. An empty cart encodes as "[]".
func EncodeSnapshot(items []CartItem) (string, error) {
	if items == nil {
		items = []CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot failed: %w", err)
	}
	return string(data), nil
}

func DecodeSnapshot(raw string) ([]CartItem, error) {
	var items []CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return items, nil
}
