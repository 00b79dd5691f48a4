package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aristath/marketsnap/internal/domain"
)

// ValidationError describes a record file excluded from aggregation.
type ValidationError struct {
	File    string   `json:"file"`
	Missing []string `json:"missing,omitempty"`
	Reason  string   `json:"reason"`
}

func (e ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: missing keys [%s]", e.File, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

// decodeRecord checks the required top-level keys and a defined period
// return before decoding the record.
func decodeRecord(file string, data []byte) (*domain.AnalysisRecord, *ValidationError) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &ValidationError{File: file, Reason: fmt.Sprintf("not a JSON object: %v", err)}
	}

	var missing []string
	for _, key := range domain.RequiredRecordFields {
		if _, ok := fields[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{File: file, Missing: missing, Reason: "missing required keys"}
	}

	var metrics map[string]json.RawMessage
	if err := json.Unmarshal(fields["metrics"], &metrics); err != nil || metrics == nil {
		return nil, &ValidationError{File: file, Reason: "metrics is not an object"}
	}
	if raw, ok := metrics["periodReturn"]; !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, &ValidationError{File: file, Reason: "metrics.periodReturn is undefined"}
	}

	var record domain.AnalysisRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, &ValidationError{File: file, Reason: fmt.Sprintf("malformed record: %v", err)}
	}
	return &record, nil
}
