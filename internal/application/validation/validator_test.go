package validation

import (
	"errors"
	"testing"

	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name       string  `json:"name" validate:"required,max=10"`
	Occupation string  `json:"occupation" validate:"omitempty,oneof=job business"`
	Guarantors []int64 `json:"guarantor_uids" validate:"len=2,unique"`
	Age        *int    `json:"age" validate:"omitempty,gte=0"`
	Internal   string  `json:"-" validate:"max=1"`
}

func TestStruct(t *testing.T) {
	negative := -1

	tests := []struct {
		name      string
		req       sampleRequest
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing required field",
			req:       sampleRequest{Guarantors: []int64{1, 2}},
			wantField: "name",
			wantMsg:   "name: This field is required",
		},
		{
			name:      "string too long",
			req:       sampleRequest{Name: "abcdefghijk", Guarantors: []int64{1, 2}},
			wantField: "name",
			wantMsg:   "name: Must be at most 10 characters",
		},
		{
			name:      "value outside enum",
			req:       sampleRequest{Name: "a", Occupation: "pilot", Guarantors: []int64{1, 2}},
			wantField: "occupation",
			wantMsg:   "occupation: Must be one of: job business",
		},
		{
			name:      "wrong number of items",
			req:       sampleRequest{Name: "a", Guarantors: []int64{1}},
			wantField: "guarantor_uids",
			wantMsg:   "guarantor_uids: Must have exactly 2 items",
		},
		{
			name:      "duplicate items",
			req:       sampleRequest{Name: "a", Guarantors: []int64{7, 7}},
			wantField: "guarantor_uids",
			wantMsg:   "guarantor_uids: Must not contain duplicates",
		},
		{
			name:      "negative pointer value",
			req:       sampleRequest{Name: "a", Guarantors: []int64{1, 2}, Age: &negative},
			wantField: "age",
			wantMsg:   "age: Must be greater than or equal to 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrInvalidInput))
			assert.Equal(t, shared.KindValidation, shared.KindOf(err))

			var de *shared.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.wantField, de.Field)
			assert.Equal(t, tt.wantMsg, de.Message)
		})
	}
}

func TestStruct_Valid(t *testing.T) {
	age := 30
	err := Struct(sampleRequest{Name: "Rahim", Occupation: "job", Guarantors: []int64{5000001, 5000002}, Age: &age})
	assert.NoError(t, err)
}

func TestStruct_NotAStruct(t *testing.T) {
	err := Struct("plain string")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestValidator_IsShared(t *testing.T) {
	assert.Same(t, Validator(), Validator())
}
