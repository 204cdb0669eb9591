package env

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdul-hamid-achik/httprun/packages/core/parser"
)

func TestResolver_Precedence(t *testing.T) {
	r := NewResolver(map[string]string{"host": "env.example.com", "shared": "from-env"})
	r.SetGlobal("shared", "from-global")
	r.SetGlobal("token", "from-global")
	r.SetInPlace([]parser.InPlaceBinding{{Name: "shared", Value: "from-in-place"}})

	assert.Equal(t, "from-in-place", r.Resolve("{{shared}}"))
	assert.Equal(t, "from-global", r.Resolve("{{token}}"))
	assert.Equal(t, "env.example.com", r.Resolve("{{host}}"))
}

func TestResolver_DynamicVariablesAreUnique(t *testing.T) {
	r := NewResolver(nil)
	a := r.Resolve("{{$uuid}}")
	b := r.Resolve("{{$uuid}}")
	assert.NotEqual(t, a, b)
}

func TestResolver_UnresolvedTokenStaysLiteral(t *testing.T) {
	r := NewResolver(nil)
	assert.Equal(t, "hello {{missing}}", r.Resolve("hello {{missing}}"))
}

func TestResolver_InPlaceSelfReferenceExpandsAcrossPasses(t *testing.T) {
	r := NewResolver(nil)
	r.SetInPlace([]parser.InPlaceBinding{
		{Name: "base", Value: "example.com"},
		{Name: "host", Value: "{{base}}"},
		{Name: "url", Value: "https://{{host}}/api"},
	})

	assert.Equal(t, "https://example.com/api", r.Resolve("{{url}}"))
}

func TestResolver_HasUnresolvedVariables(t *testing.T) {
	r := NewResolver(map[string]string{"foo": "bar"})

	assert.False(t, r.HasUnresolvedVariables("hello world"))
	assert.False(t, r.HasUnresolvedVariables("{{foo}}"))
	assert.True(t, r.HasUnresolvedVariables("{{foo}} and {{baz}}"))
}

func TestResolver_GetUnresolvedVariables(t *testing.T) {
	r := NewResolver(map[string]string{"bar": "middle"})

	got := r.GetUnresolvedVariables("{{foo}} and {{bar}} and {{baz}}")
	assert.Equal(t, []string{"foo", "baz"}, got)
}

func TestResolver_ResolveHeaders(t *testing.T) {
	r := NewResolver(map[string]string{"token": "abc123"})
	headers := r.ResolveHeaders([]parser.Header{
		{Name: "Authorization", Value: "Bearer {{token}}"},
	})

	assert.Equal(t, "Authorization", headers[0].Name)
	assert.Equal(t, "Bearer abc123", headers[0].Value)
}
