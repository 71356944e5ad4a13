package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contact struct {
	Email string `json:"email" validate:"omitempty,email"`
}

type record struct {
	Name       string   `json:"name" validate:"required"`
	ThemeColor string   `yaml:"theme_color" validate:"omitempty,hexcolor"`
	Started    string   `json:"started" validate:"omitempty,datetime=2006-01-02"`
	Tags       []string `json:"tags" validate:"min=1,unique,dive,shouty"`
	Contact    contact  `json:"contact"`
	Internal   string   `json:"-"`
}

func init() {
	if err := RegisterValidation("shouty", func(v string) bool {
		return v != "" && strings.ToUpper(v) == v
	}); err != nil {
		panic(err)
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_Success(t *testing.T) {
	err := Validate(record{
		Name:       "Ooo Farms",
		ThemeColor: "#8D6E63",
		Started:    "2015-08-20",
		Tags:       []string{"FOOD"},
		Contact:    contact{Email: "hi@ooofarms.org"},
	})
	assert.NoError(t, err)
}

func TestValidate_UsesJSONAndYAMLNames(t *testing.T) {
	fields := fieldsOf(t, Validate(record{ThemeColor: "green", Tags: []string{"A"}}))

	assert.Equal(t, "is required", fields["name"])
	assert.Equal(t, "must be a hex colour such as #2E7D32", fields["theme_color"])
}

func TestValidate_Messages(t *testing.T) {
	fields := fieldsOf(t, Validate(record{
		Name:    "x",
		Started: "20/08/2015",
		Tags:    []string{},
		Contact: contact{Email: "nope"},
	}))

	assert.Equal(t, "must be a date in the form 2006-01-02", fields["started"])
	assert.Equal(t, "must have at least 1 elements or characters", fields["tags"])
	assert.Equal(t, "must be a valid email address", fields["email"])
}

func TestValidate_CustomTag(t *testing.T) {
	err := Validate(record{Name: "x", Tags: []string{"lower"}})
	fields := fieldsOf(t, err)

	assert.Equal(t, "failed on 'shouty' validation", fields["tags[0]"])
	assert.Contains(t, err.Error(), "record.tags[0]")
}

func TestValidate_Unique(t *testing.T) {
	fields := fieldsOf(t, Validate(record{Name: "x", Tags: []string{"A", "A"}}))
	assert.Equal(t, "must not contain duplicates", fields["tags"])
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"No Nasties","tags":["CLOTHING"]}`))
	var dst record
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, "No Nasties", dst.Name)

	bad := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	err := DecodeAndValidate(bad, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
