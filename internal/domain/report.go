package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	SentinelErrored      = "phase errored out!"
	SentinelLaunchFailed = "phase failed to launch!"
)

const (
	ReportDateLayout = "2006-01-02"
	ReportTimeLayout = "15:04:05"
)

// ResultValue is a persisted phase result: minutes, or a sentinel string for
// phases that produced no timing sample.
type ResultValue struct {
	Minutes  float64
	Sentinel string
}

func MinutesValue(m float64) ResultValue {
	return ResultValue{Minutes: m}
}

func SentinelValue(s string) ResultValue {
	return ResultValue{Sentinel: s}
}

// ResultFor maps a phase outcome to the value stored in the report.
func ResultFor(o PhaseOutcome) ResultValue {
	switch o.Status {
	case StatusErrored:
		return SentinelValue(SentinelErrored)
	case StatusLaunchFailed:
		return SentinelValue(SentinelLaunchFailed)
	default:
		return MinutesValue(o.Minutes())
	}
}

func (v ResultValue) IsNumber() bool {
	return v.Sentinel == ""
}

func (v ResultValue) String() string {
	if v.IsNumber() {
		return fmt.Sprintf("%.2f", v.Minutes)
	}
	return v.Sentinel
}

func (v ResultValue) MarshalJSON() ([]byte, error) {
	if v.IsNumber() {
		return json.Marshal(v.Minutes)
	}
	return json.Marshal(v.Sentinel)
}

func (v *ResultValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isNull(data) {
		return errors.New("result must be a number or a string, got null")
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return fmt.Errorf("empty result string")
		}
		*v = SentinelValue(s)
		return nil
	}
	var m float64
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("result must be a number or a string: %w", err)
	}
	*v = MinutesValue(m)
	return nil
}

// Results maps phase name to result and keeps insertion order, so reports are
// written in the order the phases ran.
type Results struct {
	names  []string
	values map[string]ResultValue
}

func (r *Results) Set(name string, v ResultValue) {
	if r.values == nil {
		r.values = make(map[string]ResultValue)
	}
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = v
}

func (r Results) Get(name string) (ResultValue, bool) {
	v, ok := r.values[name]
	return v, ok
}

func (r Results) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r Results) Len() int {
	return len(r.names)
}

func (r Results) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := r.values[name].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes results in document order. A phase whose value is
// null has no baseline and is left out.
func (r *Results) UnmarshalJSON(data []byte) error {
	*r = Results{}
	if isNull(data) {
		return nil
	}
	return WalkObject(data, func(key string, raw json.RawMessage) error {
		if isNull(raw) {
			return nil
		}
		var v ResultValue
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("result %q: %w", key, err)
		}
		r.Set(key, v)
		return nil
	})
}

// Report is the persisted record of one run.
type Report struct {
	Date    string  `json:"date"`
	Time    string  `json:"time"`
	Test    string  `json:"test"`
	Results Results `json:"results"`
}

func NewReport(testName string, startedAt time.Time) *Report {
	return &Report{
		Date: startedAt.Format(ReportDateLayout),
		Time: startedAt.Format(ReportTimeLayout),
		Test: testName,
	}
}

// WalkObject decodes a JSON object and calls fn for every member in document
// order. Duplicate keys are rejected.
func WalkObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected a JSON object, got %v", tok)
	}

	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected an object key, got %v", tok)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate key %q", key)
		}
		seen[key] = struct{}{}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func isNull(data []byte) bool {
	return string(bytes.TrimSpace(data)) == "null"
}
