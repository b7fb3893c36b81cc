package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("secret12!"))
	assert.False(t, IsValidPassword("short1!"))
	assert.False(t, IsValidPassword("nodigits!!"))
	assert.False(t, IsValidPassword("nospecial12"))
}

func TestIsValidNationalNumber(t *testing.T) {
	assert.True(t, IsValidNationalNumber("0012345678"))
	assert.False(t, IsValidNationalNumber("12ab5678"))
	assert.False(t, IsValidNationalNumber("123"))
}

func TestPhone(t *testing.T) {
	assert.True(t, IsValidPhone("09121234567"))
	assert.True(t, IsValidPhone("+98 912 123 4567"))
	assert.False(t, IsValidPhone("12"))
	assert.Equal(t, "+989121234567", NormalizePhone(" 09121234567 "))
	assert.Equal(t, "n/a", NormalizePhone("n/a"))
}

func TestStruct(t *testing.T) {
	type body struct {
		Name     string `validate:"required"`
		Quantity int64  `validate:"gt=0"`
		Phone    string `validate:"phone"`
		National string `validate:"national"`
	}

	details, err := Struct(body{Name: "a", Quantity: 1, National: "0012345678"})
	require.NoError(t, err)
	assert.Nil(t, details)

	details, err = Struct(body{Quantity: 0, Phone: "x", National: "1"})
	require.Error(t, err)
	assert.Equal(t, map[string]string{
		"Name":     "required",
		"Quantity": "gt",
		"Phone":    "phone",
		"National": "national",
	}, details)
}

func TestStruct_UsesJSONNames(t *testing.T) {
	type body struct {
		UserName string `json:"user_name,omitempty" validate:"required"`
	}
	details, err := Struct(body{})
	require.Error(t, err)
	assert.Equal(t, map[string]string{"user_name": "required"}, details)
}
