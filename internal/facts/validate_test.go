package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsWellFormedFacts(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	data := []byte(`{
		"name": "Acme Plumbing",
		"siteUrl": "https://acmeplumbing.example",
		"description": "Family-owned plumbing company",
		"phone": "+1-555-0142",
		"address": {"street": "12 Main St", "city": "Springfield", "region": "IL", "postalCode": "62701", "country": "US"},
		"services": [{"name": "Drain cleaning"}, {"name": "Water heater repair", "description": "Same-day"}],
		"serviceAreas": ["Springfield", "Shelbyville"],
		"hours": [{"days": "Mo-Fr", "opens": "08:00", "closes": "17:00"}]
	}`)

	require.NoError(t, v.Validate(data))

	f, err := v.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "Acme Plumbing", f.Name)
	assert.Equal(t, "Drain cleaning", f.PrimaryService())
	assert.Len(t, f.ServiceAreas, 2)
}

func TestValidateRejectsBadFacts(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name string
		data string
	}{
		{"not json", `not json at all`},
		{"missing name", `{"siteUrl": "https://x.example"}`},
		{"missing siteUrl", `{"name": "Acme"}`},
		{"bad url scheme", `{"name": "Acme", "siteUrl": "ftp://x.example"}`},
		{"empty service name", `{"name": "Acme", "siteUrl": "https://x.example", "services": [{"name": ""}]}`},
		{"bad hours", `{"name": "Acme", "siteUrl": "https://x.example", "hours": [{"days": "Mo", "opens": "8am", "closes": "17:00"}]}`},
		{"unknown field", `{"name": "Acme", "siteUrl": "https://x.example", "tagline": "hi"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, v.Validate([]byte(tt.data)))
		})
	}
}
