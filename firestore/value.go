package firestore

import (
	"strconv"
	"time"
)

// Value is a typed Firestore field value. Exactly one member is set.
type Value struct {
	StringValue    *string  `json:"stringValue,omitempty"`
	IntegerValue   *string  `json:"integerValue,omitempty"`
	DoubleValue    *float64 `json:"doubleValue,omitempty"`
	BooleanValue   *bool    `json:"booleanValue,omitempty"`
	TimestampValue *string  `json:"timestampValue,omitempty"`
	NullValue      *string  `json:"nullValue,omitempty"`
}

func String(s string) Value {
	return Value{StringValue: &s}
}

func Timestamp(t time.Time) Value {
	s := t.UTC().Format(time.RFC3339)
	return Value{TimestampValue: &s}
}

// Document is a Firestore document as returned by the REST API.
type Document struct {
	Name       string           `json:"name,omitempty"`
	Fields     map[string]Value `json:"fields"`
	CreateTime string           `json:"createTime,omitempty"`
	UpdateTime string           `json:"updateTime,omitempty"`
}

// String returns the string field key, or "" when absent or of another type.
func (d *Document) String(key string) string {
	if d == nil {
		return ""
	}
	v, ok := d.Fields[key]
	if !ok || v.StringValue == nil {
		return ""
	}
	return *v.StringValue
}

// Int returns the integer field key. Doubles are truncated; anything else is 0.
func (d *Document) Int(key string) int64 {
	if d == nil {
		return 0
	}
	v, ok := d.Fields[key]
	if !ok {
		return 0
	}
	switch {
	case v.IntegerValue != nil:
		i, err := strconv.ParseInt(*v.IntegerValue, 10, 64)
		if err != nil {
			return 0
		}
		return i
	case v.DoubleValue != nil:
		return int64(*v.DoubleValue)
	}
	return 0
}

// Time returns the timestamp field key, or the zero time.
func (d *Document) Time(key string) time.Time {
	if d == nil {
		return time.Time{}
	}
	v, ok := d.Fields[key]
	if !ok || v.TimestampValue == nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, *v.TimestampValue)
	if err != nil {
		return time.Time{}
	}
	return t
}

type FieldReference struct {
	FieldPath string `json:"fieldPath"`
}

type CollectionSelector struct {
	CollectionID string `json:"collectionId"`
}

type Projection struct {
	Fields []FieldReference `json:"fields"`
}

type FieldFilter struct {
	Field FieldReference `json:"field"`
	Op    string         `json:"op"`
	Value Value          `json:"value"`
}

type Filter struct {
	FieldFilter *FieldFilter `json:"fieldFilter,omitempty"`
}

// StructuredQuery is the subset of the runQuery body the frame needs.
type StructuredQuery struct {
	Select *Projection          `json:"select,omitempty"`
	From   []CollectionSelector `json:"from"`
	Where  *Filter              `json:"where,omitempty"`
	Limit  int                  `json:"limit,omitempty"`
}

type runQueryRequest struct {
	StructuredQuery StructuredQuery `json:"structuredQuery"`
}

type runQueryResult struct {
	Document *Document `json:"document,omitempty"`
	ReadTime string    `json:"readTime,omitempty"`
}
