package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/rewearapp/rewear-server/internal/errors"
	"github.com/rewearapp/rewear-server/internal/validation"
)

type createItemRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=100"`
	Condition   string `json:"condition" validate:"required,oneof=NEW LIKE_NEW GOOD FAIR POOR"`
	ItemType    string `json:"item_type" validate:"required,oneof=CLOTHING SHOES ACCESSORIES"`
	PointsValue int64  `json:"points_value" validate:"required,gt=0"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	req := createItemRequest{
		Title:       "Denim jacket",
		Condition:   "GOOD",
		ItemType:    "CLOTHING",
		PointsValue: 40,
	}

	assert.NoError(t, v.Validate(req))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       createItemRequest
		wantField string
	}{
		{
			name: "missing title",
			req: createItemRequest{
				Condition:   "GOOD",
				ItemType:    "CLOTHING",
				PointsValue: 40,
			},
			wantField: "title",
		},
		{
			name: "unknown condition",
			req: createItemRequest{
				Title:       "Denim jacket",
				Condition:   "WORN",
				ItemType:    "CLOTHING",
				PointsValue: 40,
			},
			wantField: "condition",
		},
		{
			name: "non-positive points",
			req: createItemRequest{
				Title:       "Denim jacket",
				Condition:   "GOOD",
				ItemType:    "CLOTHING",
				PointsValue: -5,
			},
			wantField: "points_value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}
