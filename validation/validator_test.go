package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct {
	Epoch string    `json:"epoch" validate:"required,utcg"`
	XYZ   []float64 `json:"cartesian" validate:"required,len=3"`
}

type propagationResult struct {
	IsSuccess bool      `json:"IsSuccess"`
	Message   string    `json:"Message"`
	Position  *position `json:"Position" validate:"required"`
	Step      float64   `json:"Step" validate:"gte=0"`
	Ignored   string    `json:"-"`
}

func TestNew(t *testing.T) {
	v := New()
	require.NotNil(t, v)
	require.NotNil(t, v.validate)
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestStructValid(t *testing.T) {
	v := New()

	err := v.Struct(propagationResult{
		IsSuccess: true,
		Position:  &position{Epoch: "2024-01-01T00:00:00.000Z", XYZ: []float64{1, 2, 3}},
		Step:      60,
	})
	assert.NoError(t, err)
}

func TestStructMissingRequired(t *testing.T) {
	v := New()

	err := v.Struct(propagationResult{IsSuccess: true})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "Position", verr.Fields[0].Field)
	assert.Equal(t, "required", verr.Fields[0].Tag)
	assert.Equal(t, "Position is required", verr.Fields[0].Message)
	assert.Equal(t, "validation failed: Position is required", err.Error())
}

func TestStructNestedFieldPath(t *testing.T) {
	v := New()

	err := v.Struct(propagationResult{
		Position: &position{Epoch: "yesterday", XYZ: []float64{1, 2}},
		Step:     -1,
	})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	fields := map[string]string{}
	for _, fe := range verr.Fields {
		fields[fe.Field] = fe.Tag
	}
	assert.Equal(t, map[string]string{
		"Position.epoch":     "utcg",
		"Position.cartesian": "len",
		"Step":               "gte",
	}, fields)
	assert.Equal(t, "validation failed: 3 errors", err.Error())
}

func TestStructNonStruct(t *testing.T) {
	v := New()

	err := v.Struct("not a struct")
	require.Error(t, err)

	var verr *Error
	assert.False(t, errors.As(err, &verr))
}

func TestErrorMessageEmpty(t *testing.T) {
	assert.Equal(t, "validation failed", (&Error{}).Error())
}

func TestUTCGRule(t *testing.T) {
	type epoch struct {
		At string `json:"at" validate:"utcg"`
	}
	v := New()

	tests := []struct {
		value string
		valid bool
	}{
		{"2024-01-01T00:00:00.000Z", true},
		{"2024-01-01T12:30:00Z", true},
		{"2024-01-01", false},
		{"", false},
		{"1 Jan 2024 00:00:00.000", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := v.Struct(epoch{At: tt.value})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
