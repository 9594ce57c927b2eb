package models

import (
	"encoding/json"
	"fmt"
)

const (
	productIDKey = "productId"
	quantityKey  = "quantity"
)

// MarshalJSON writes productId and quantity next to the passed-through details
func (i CartItem) MarshalJSON() ([]byte, error) {
	fields := make(map[string]interface{}, len(i.Details)+2)
	for key, value := range i.Details {
		fields[key] = value
	}
	fields[productIDKey] = i.ProductID
	fields[quantityKey] = i.Quantity

	return json.Marshal(fields)
}

// UnmarshalJSON reads productId and quantity and keeps every other field as is
func (i *CartItem) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var item CartItem
	for key, value := range fields {
		switch key {
		case productIDKey:
			if err := json.Unmarshal(value, &item.ProductID); err != nil {
				return fmt.Errorf("cart item %s: %w", key, err)
			}
		case quantityKey:
			if err := json.Unmarshal(value, &item.Quantity); err != nil {
				return fmt.Errorf("cart item %s: %w", key, err)
			}
		default:
			if item.Details == nil {
				item.Details = make(map[string]json.RawMessage)
			}
			item.Details[key] = value
		}
	}

	*i = item
	return nil
}
