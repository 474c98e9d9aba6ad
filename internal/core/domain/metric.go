package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Metric is an explicit tagged value for a computed financial figure.
// A metric is either Defined with a concrete decimal value, or Undefined with a
// human-readable reason (zero denominator, missing input field, ...). Call sites
// must check IsDefined; an undefined metric is never silently treated as zero.
type Metric struct {
	value   decimal.Decimal
	defined bool
	reason  string
}

// DefinedMetric wraps a concrete value.
func DefinedMetric(value decimal.Decimal) Metric {
	return Metric{value: value, defined: true}
}

// UndefinedMetric marks a value that could not be computed.
func UndefinedMetric(reason string) Metric {
	return Metric{reason: reason}
}

// IsDefined reports whether the metric carries a concrete value.
func (m Metric) IsDefined() bool {
	return m.defined
}

// Value returns the concrete value. It is decimal zero for undefined metrics;
// callers are expected to check IsDefined first.
func (m Metric) Value() decimal.Decimal {
	return m.value
}

// Reason returns why the metric is undefined, empty for defined metrics.
func (m Metric) Reason() string {
	return m.reason
}

// Equal compares two metrics, including their defined/undefined state.
func (m Metric) Equal(other Metric) bool {
	if m.defined != other.defined {
		return false
	}
	if !m.defined {
		return m.reason == other.reason
	}
	return m.value.Equal(other.value)
}

func (m Metric) String() string {
	if !m.defined {
		return fmt.Sprintf("undefined (%s)", m.reason)
	}
	return m.value.String()
}

type metricJSON struct {
	Defined bool             `json:"defined"`
	Value   *decimal.Decimal `json:"value,omitempty"`
	Reason  string           `json:"reason,omitempty"`
}

// MarshalJSON keeps the undefined state visible on the wire instead of
// collapsing it to null or zero.
func (m Metric) MarshalJSON() ([]byte, error) {
	out := metricJSON{Defined: m.defined}
	if m.defined {
		v := m.value
		out.Value = &v
	} else {
		out.Reason = m.reason
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a metric marshaled by MarshalJSON.
func (m *Metric) UnmarshalJSON(data []byte) error {
	var in metricJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Defined {
		if in.Value == nil {
			return fmt.Errorf("defined metric is missing its value")
		}
		*m = DefinedMetric(*in.Value)
		return nil
	}
	*m = UndefinedMetric(in.Reason)
	return nil
}
