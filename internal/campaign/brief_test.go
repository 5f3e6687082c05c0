package campaign

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandgate/creative-automation/pkg/errors"
)

func validBrief() Brief {
	return Brief{
		CampaignID:     "summer-launch",
		Products:       []Product{{Name: "Solar Shampoo", Description: "Gentle daily shampoo"}},
		Region:         "germany",
		TargetAudience: "young professionals",
		Message:        "Shine brighter this summer",
		Brand: Brand{
			LogoPath:       "assets/brands/logo.png",
			PrimaryColor:   "#FF8800",
			SecondaryColor: "#0044AA",
			FontName:       "Inter",
			Theme:          "sunny minimalism",
			Domain:         "personal care",
		},
	}
}

func TestBriefValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Brief)
		wantErr string
	}{
		{
			name:   "valid brief",
			mutate: func(b *Brief) {},
		},
		{
			name:    "missing campaign id",
			mutate:  func(b *Brief) { b.CampaignID = "  " },
			wantErr: "campaign_id",
		},
		{
			name:    "no products",
			mutate:  func(b *Brief) { b.Products = nil },
			wantErr: "product",
		},
		{
			name:    "message too long",
			mutate:  func(b *Brief) { b.Message = strings.Repeat("x", 501) },
			wantErr: "campaign_message",
		},
		{
			name:    "bad primary color",
			mutate:  func(b *Brief) { b.Brand.PrimaryColor = "orange" },
			wantErr: "primary_color",
		},
		{
			name:    "bad secondary color",
			mutate:  func(b *Brief) { b.Brand.SecondaryColor = "#12345" },
			wantErr: "secondary_color",
		},
		{
			name:    "missing logo",
			mutate:  func(b *Brief) { b.Brand.LogoPath = "" },
			wantErr: "logo_path",
		},
		{
			name:    "unnamed product",
			mutate:  func(b *Brief) { b.Products[0].Name = "" },
			wantErr: "name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			brief := validBrief()
			tt.mutate(&brief)
			err := brief.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrConfiguration))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadBrief(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brief.json")
	data := `{
		"campaign_id": "summer-launch",
		"products": [{"name": "Solar Shampoo", "description": "Gentle daily shampoo"}],
		"region": "japan",
		"target_audience": "commuters",
		"campaign_message": "Shine brighter this summer",
		"brand": {
			"logo_path": "assets/brands/logo.png",
			"primary_color": "#FF8800",
			"secondary_color": "#0044AA",
			"font_name": "Inter",
			"theme": "sunny minimalism",
			"domain": "personal care"
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	brief, err := LoadBrief(path)
	require.NoError(t, err)
	assert.Equal(t, "summer-launch", brief.CampaignID)
	assert.Len(t, brief.Products, 1)
}

func TestLoadBriefErrors(t *testing.T) {
	_, err := LoadBrief(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = LoadBrief(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestLanguageForRegion(t *testing.T) {
	assert.Equal(t, "French", LanguageForRegion("Quebec"))
	assert.Equal(t, "Japanese", LanguageForRegion("japan"))
	assert.Equal(t, "English", LanguageForRegion("atlantis"))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "solar-shampoo", Slug("Solar Shampoo"))
	assert.Equal(t, "eco-mug-2", Slug("  Eco Mug 2! "))
}
