// Package schedulejson reads and writes schedules in their JSON wire forms:
// the bare caretaker mapping, and the enriched list of caretaker records
// (optionally wrapped as {"caretakers": [...]}).
package schedulejson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/kilianp07/caresched/core/optimizer"
)

// ErrMalformed is returned for input that is not a schedule in either form.
var ErrMalformed = errors.New("schedulejson: malformed schedule")

const (
	nameField     = "name"
	scheduleField = "schedule"
	wrapperField  = "caretakers"
)

// Decode parses data into an optimizer.Bare or *optimizer.Enriched. Blank
// input decodes to an empty Bare.
func Decode(data []byte) (optimizer.Snapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return optimizer.Bare{}, nil
	}
	switch data[0] {
	case '[':
		return decodeList(data, false)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, malformed(err)
		}
		if raw, ok := obj[wrapperField]; ok && len(obj) == 1 && isArray(raw) {
			return decodeList(raw, true)
		}
		return decodeBare(obj)
	default:
		return nil, fmt.Errorf("%w: expected an object or an array", ErrMalformed)
	}
}

func decodeBare(obj map[string]json.RawMessage) (optimizer.Bare, error) {
	out := make(optimizer.Bare, len(obj))
	for name, raw := range obj {
		slots, err := decodeSlots(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: caretaker %q: %v", ErrMalformed, name, err)
		}
		out[name] = slots
	}
	return out, nil
}

func decodeList(data []byte, wrapped bool) (*optimizer.Enriched, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, malformed(err)
	}
	out := &optimizer.Enriched{Wrapped: wrapped, Caretakers: make([]optimizer.Record, 0, len(items))}
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("%w: record %d is null", ErrMalformed, i)
		}
		var rec optimizer.Record
		if raw, ok := item[nameField]; ok {
			if err := json.Unmarshal(raw, &rec.Name); err != nil {
				return nil, fmt.Errorf("%w: record %d: name must be a string", ErrMalformed, i)
			}
		}
		slots, err := decodeSlots(item[scheduleField])
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformed, i, err)
		}
		rec.Schedule = slots
		rec.Fields = make(map[string]json.RawMessage, len(item))
		for k, v := range item {
			if k != nameField && k != scheduleField {
				rec.Fields[k] = v
			}
		}
		out.Caretakers = append(out.Caretakers, rec)
	}
	return out, nil
}

// decodeSlots reads day -> hour -> patient. Patients may be strings or
// numbers; null patients are dropped.
func decodeSlots(raw json.RawMessage) (optimizer.Slots, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return optimizer.Slots{}, nil
	}
	var days map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, err
	}
	out := make(optimizer.Slots, len(days))
	for day, hours := range days {
		hs := make(map[string]string, len(hours))
		for h, v := range hours {
			p, err := patientID(v)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", day, h, err)
			}
			if p != "" {
				hs[h] = p
			}
		}
		out[day] = hs
	}
	return out, nil
}

func patientID(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch p := v.(type) {
	case nil:
		return "", nil
	case string:
		return p, nil
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64), nil
	default:
		return "", errors.New("patient must be a string")
	}
}

// Encode writes snap in its wire form. Record fields come out in key order.
func Encode(snap optimizer.Snapshot) ([]byte, error) {
	switch s := snap.(type) {
	case optimizer.Bare:
		if s == nil {
			s = optimizer.Bare{}
		}
		return json.Marshal(s)
	case *optimizer.Enriched:
		list, err := encodeList(s)
		if err != nil {
			return nil, err
		}
		if s.Wrapped {
			return json.Marshal(map[string]json.RawMessage{wrapperField: list})
		}
		return list, nil
	default:
		return nil, fmt.Errorf("schedulejson: cannot encode %T", snap)
	}
}

func encodeList(e *optimizer.Enriched) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range e.Caretakers {
		if i > 0 {
			buf.WriteByte(',')
		}
		rec := make(map[string]any, len(r.Fields)+2)
		for k, v := range r.Fields {
			rec[k] = v
		}
		rec[nameField] = r.Name
		sched := r.Schedule
		if sched == nil {
			sched = optimizer.Slots{}
		}
		rec[scheduleField] = sched
		b, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}
