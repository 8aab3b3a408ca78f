package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/tidwall/gjson"
)

var ErrBadRecord = errors.New("bad record")

// Record is one document in an export stream, one JSON object per line.
type Record struct {
	Kind      string         `json:"kind"`
	ID        string         `json:"id"`
	Timestamp int64          `json:"timestamp"`
	Payload   jsontext.Value `json:"payload"`
}

// Export writes every document of the given kinds to w.
func Export(ctx context.Context, s Store, w io.Writer, kinds ...string) (int, error) {
	n := 0
	timestamp := time.Now().UnixNano()
	for _, kind := range kinds {
		err := s.List(ctx, kind, func(id string, decode func(value any) error) error {
			var document any
			err := decode(&document)
			if err != nil {
				return fmt.Errorf("decode %s '%s': %w", kind, id, err)
			}
			payload, err := json.Marshal(document, json.Deterministic(true))
			if err != nil {
				return err
			}
			err = json.MarshalWrite(w, Record{
				Kind:      kind,
				ID:        id,
				Timestamp: timestamp,
				Payload:   payload,
			}, json.Deterministic(true))
			if err != nil {
				return err
			}
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
			n++
			return nil
		})
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Import puts every record read from r into s.
func Import(ctx context.Context, s Store, r io.Reader) (int, error) {
	n := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			return n, fmt.Errorf("record %d: %w: malformed json", n+1, ErrBadRecord)
		}
		header := gjson.GetManyBytes(line, "kind", "id")
		if header[0].String() == "" || header[1].String() == "" {
			return n, fmt.Errorf("record %d: %w: kind and id are required", n+1, ErrBadRecord)
		}
		record := Record{}
		err := json.Unmarshal(line, &record)
		if err != nil {
			return n, fmt.Errorf("record %d: %w", n+1, err)
		}
		var document any
		err = json.Unmarshal(record.Payload, &document)
		if err != nil {
			return n, fmt.Errorf("record %d payload: %w", n+1, err)
		}
		err = s.Put(ctx, record.Kind, record.ID, wholeNumbers(document))
		if err != nil {
			return n, err
		}
		n++
	}
	return n, scanner.Err()
}

// wholeNumbers turns integral floats into int64 so integer fields decode
// from every backend.
func wholeNumbers(value any) any {
	switch v := value.(type) {
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v)
		}
	case map[string]any:
		for key, item := range v {
			v[key] = wholeNumbers(item)
		}
	case []any:
		for i, item := range v {
			v[i] = wholeNumbers(item)
		}
	}
	return value
}
