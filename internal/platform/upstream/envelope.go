package upstream

import (
	"bytes"
	"encoding/json"
)

// listEnvelope matches the object forms the office API returns for list
// endpoints: {"data": [...]} and {"total": n, "data": [...]}.
type listEnvelope struct {
	Total *int            `json:"total"`
	Data  json.RawMessage `json:"data"`
}

// decodeList accepts the three list shapes the office API is known to
// return: a bare array, {data: []}, or {total, data: []}. Total falls back
// to the item count when the envelope does not carry one.
func decodeList(body []byte) (items []json.RawMessage, total int, err error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, 0, err
		}
		return items, len(items), nil
	}

	var env listEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, 0, err
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &items); err != nil {
			return nil, 0, err
		}
	}
	if env.Total != nil {
		return items, *env.Total, nil
	}
	return items, len(items), nil
}

// decodeRecords decodes a list body all the way to Records.
func decodeRecords(body []byte) ([]Record, int, error) {
	raw, total, err := decodeList(body)
	if err != nil {
		return nil, 0, err
	}
	records := make([]Record, 0, len(raw))
	for _, r := range raw {
		var rec Record
		if err := json.Unmarshal(r, &rec); err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, nil
}

// mutationResponse matches what create/update/delete endpoints return: a
// message string and/or the affected record.
type mutationResponse struct {
	Message string `json:"message"`
	Data    Record `json:"data"`
}

// errorBody matches the error shapes upstream endpoints produce.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// upstreamMessage pulls a human-readable message out of an upstream error
// body, if one is present.
func upstreamMessage(body []byte) string {
	var e errorBody
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
