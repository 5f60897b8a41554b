// Package dataset persists raw and warehouse tables as CSV or NDJSON
// files with a manifest, and reads them back without precision loss.
// Timestamps travel as RFC3339 UTC, dates as 2006-01-02, money as exact
// decimal strings. File contents carry no wall-clock state, so two runs
// with the same seed produce byte-identical directories.
package dataset

import (
	"strconv"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/forklift/pkg/errors"
	"github.com/ajitpratap0/forklift/pkg/models"
	"github.com/ajitpratap0/forklift/pkg/pool"
)

const dateLayout = "2006-01-02"

// EncodeValue renders one column value as its CSV cell text. A value of
// the wrong Go type for the column is a programming error upstream.
func EncodeValue(col models.Column, v interface{}) (string, error) {
	switch col.Type {
	case models.TypeString:
		s, ok := v.(string)
		if !ok {
			return "", encodeMismatch(col, v)
		}
		return s, nil
	case models.TypeInt:
		n, ok := v.(int64)
		if !ok {
			return "", encodeMismatch(col, v)
		}
		return strconv.FormatInt(n, 10), nil
	case models.TypeFloat:
		f, ok := v.(float64)
		if !ok {
			return "", encodeMismatch(col, v)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case models.TypeBool:
		b, ok := v.(bool)
		if !ok {
			return "", encodeMismatch(col, v)
		}
		return strconv.FormatBool(b), nil
	case models.TypeTimestamp:
		t, ok := v.(time.Time)
		if !ok {
			return "", encodeMismatch(col, v)
		}
		return t.UTC().Format(time.RFC3339), nil
	case models.TypeDate:
		t, ok := v.(time.Time)
		if !ok {
			return "", encodeMismatch(col, v)
		}
		return t.UTC().Format(dateLayout), nil
	case models.TypeDecimal:
		d, ok := v.(decimal.Decimal)
		if !ok {
			return "", encodeMismatch(col, v)
		}
		return d.String(), nil
	default:
		return "", errors.Newf(errors.ErrorTypeInternal, "column %s has unknown type %q", col.Name, col.Type)
	}
}

// DecodeValue parses one CSV cell back into the column's Go type.
// Parse failures classify as integrity errors: the file on disk no
// longer matches its schema.
func DecodeValue(col models.Column, s string) (interface{}, error) {
	switch col.Type {
	case models.TypeString:
		// Categorical columns repeat the same few values across the
		// whole file; interning keeps one copy per value.
		return pool.Intern(s), nil
	case models.TypeInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, decodeFailure(col, s)
		}
		return n, nil
	case models.TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, decodeFailure(col, s)
		}
		return f, nil
	case models.TypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, decodeFailure(col, s)
		}
		return b, nil
	case models.TypeTimestamp:
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, decodeFailure(col, s)
		}
		return t.UTC(), nil
	case models.TypeDate:
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, decodeFailure(col, s)
		}
		return t.UTC(), nil
	case models.TypeDecimal:
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, decodeFailure(col, s)
		}
		return d, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeInternal, "column %s has unknown type %q", col.Name, col.Type)
	}
}

// JSONValue maps one column value to its NDJSON representation. Numbers
// and booleans stay native; temporal and decimal values travel as
// strings to survive the round-trip exactly.
func JSONValue(col models.Column, v interface{}) (interface{}, error) {
	switch col.Type {
	case models.TypeInt, models.TypeFloat, models.TypeBool, models.TypeString:
		return v, nil
	case models.TypeTimestamp, models.TypeDate, models.TypeDecimal:
		return EncodeValue(col, v)
	default:
		return nil, errors.Newf(errors.ErrorTypeInternal, "column %s has unknown type %q", col.Name, col.Type)
	}
}

// DecodeJSONValue parses one decoded NDJSON field back into the
// column's Go type. Numeric fields arrive as gojson.Number because the
// pooled decoders run in UseNumber mode.
func DecodeJSONValue(col models.Column, raw interface{}) (interface{}, error) {
	if raw == nil {
		return nil, errors.Newf(errors.ErrorTypeIntegrity, "column %s is missing", col.Name)
	}
	switch col.Type {
	case models.TypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, jsonMismatch(col, raw)
		}
		return pool.Intern(s), nil
	case models.TypeInt:
		num, ok := raw.(gojson.Number)
		if !ok {
			return nil, jsonMismatch(col, raw)
		}
		n, err := num.Int64()
		if err != nil {
			return nil, decodeFailure(col, num.String())
		}
		return n, nil
	case models.TypeFloat:
		num, ok := raw.(gojson.Number)
		if !ok {
			return nil, jsonMismatch(col, raw)
		}
		f, err := num.Float64()
		if err != nil {
			return nil, decodeFailure(col, num.String())
		}
		return f, nil
	case models.TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, jsonMismatch(col, raw)
		}
		return b, nil
	case models.TypeTimestamp, models.TypeDate, models.TypeDecimal:
		s, ok := raw.(string)
		if !ok {
			return nil, jsonMismatch(col, raw)
		}
		return DecodeValue(col, s)
	default:
		return nil, errors.Newf(errors.ErrorTypeInternal, "column %s has unknown type %q", col.Name, col.Type)
	}
}

func encodeMismatch(col models.Column, v interface{}) error {
	return errors.Newf(errors.ErrorTypeInternal,
		"column %s holds %T, expected %s", col.Name, v, col.Type)
}

func decodeFailure(col models.Column, s string) error {
	return errors.Newf(errors.ErrorTypeIntegrity,
		"column %s: cannot parse %q as %s", col.Name, s, col.Type)
}

func jsonMismatch(col models.Column, raw interface{}) error {
	return errors.Newf(errors.ErrorTypeIntegrity,
		"column %s holds %T, expected %s", col.Name, raw, col.Type)
}
