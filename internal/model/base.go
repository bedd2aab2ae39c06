package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ResourceType identifies one of the remote collections managed by the console.
type ResourceType string

const (
	Doctors      ResourceType = "doctors"
	Patients     ResourceType = "patients"
	Appointments ResourceType = "appointments"
)

// ResourceTypes lists every resource type in navigation order.
var ResourceTypes = []ResourceType{Doctors, Patients, Appointments}

func (t ResourceType) Valid() bool {
	switch t {
	case Doctors, Patients, Appointments:
		return true
	}
	return false
}

func (t ResourceType) String() string {
	return string(t)
}

// Record is a JSON object returned by the remote API. Numbers are kept as
// json.Number so their decimal text survives decoding unchanged.
type Record map[string]interface{}

// ID returns the record id, or 0 when it is missing or not an integer.
func (r Record) ID() int64 {
	text, ok := r.Text("id")
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// Text returns the textual form of a scalar field. Strings are returned as-is,
// numbers in their decimal form. Null, absent, boolean and nested values report false.
func (r Record) Text(field string) (string, bool) {
	switch v := r[field].(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	}
	return "", false
}

// Bool reports whether field holds JSON true.
func (r Record) Bool(field string) bool {
	v, ok := r[field].(bool)
	return ok && v
}

// Display formats a field for rendering; missing values become an empty string.
func (r Record) Display(field string) string {
	if v, ok := r[field].(bool); ok {
		return strconv.FormatBool(v)
	}
	if text, ok := r.Text(field); ok {
		return text
	}
	if v, ok := r[field]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}
