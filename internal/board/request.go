package board

import (
	"encoding/json"
	"fmt"

	"leadintake_backend/internal/record"
)

// EncodeColumns serializes a record's column values into the JSON form the
// board's create_item mutation expects. Each tagged value variant has a
// fixed serialization; absent values are skipped entirely.
func EncodeColumns(rec *record.Record) (string, error) {
	payload := make(map[string]any, len(rec.Columns))
	for columnID, value := range rec.Columns {
		switch value.Kind {
		case record.ValueAbsent:
			continue
		case record.ValueText:
			payload[columnID] = value.Text
		case record.ValueDate:
			payload[columnID] = map[string]string{"date": value.Date}
		case record.ValuePhone:
			payload[columnID] = map[string]string{
				"phone":            value.Phone,
				"countryShortName": value.Country,
			}
		default:
			return "", fmt.Errorf("column %s: unhandled value kind %d", columnID, value.Kind)
		}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode column values: %w", err)
	}
	return string(encoded), nil
}

const createItemMutation = `mutation create_item($boardID: ID!, $itemName: String!, $columnValues: JSON!) {
  create_item(board_id: $boardID, item_name: $itemName, column_values: $columnValues) {
    id
  }
}`

type createItemData struct {
	CreateItem struct {
		ID string `json:"id"`
	} `json:"create_item"`
}
