// Package campaign defines the campaign brief schema and its validation.
package campaign

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/brandgate/creative-automation/pkg/errors"
	"github.com/brandgate/creative-automation/pkg/json"
)

const maxMessageLength = 500

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Product is one product the campaign advertises.
type Product struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	AssetPath   string `json:"asset_path,omitempty"`
}

// Brand describes the brand identity the compliance gate verifies against.
// FontName and Theme are consumed by the composer and generation prompts, not
// by the gate.
type Brand struct {
	LogoPath       string `json:"logo_path"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	FontName       string `json:"font_name"`
	Theme          string `json:"theme"`
	Domain         string `json:"domain"`
}

// Brief is a validated campaign brief.
type Brief struct {
	CampaignID     string    `json:"campaign_id"`
	Products       []Product `json:"products"`
	Region         string    `json:"region"`
	TargetAudience string    `json:"target_audience"`
	Message        string    `json:"campaign_message"`
	Brand          Brand     `json:"brand"`
}

// LoadBrief reads and validates a campaign brief from a JSON file.
func LoadBrief(path string) (*Brief, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration, fmt.Sprintf("reading brief %s: %v", path, err))
	}
	var brief Brief
	if err := json.Unmarshal(data, &brief); err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration, fmt.Sprintf("parsing brief %s: %v", path, err))
	}
	if err := brief.Validate(); err != nil {
		return nil, err
	}
	return &brief, nil
}

// Validate checks the brief against the schema constraints. All violations
// wrap errors.ErrConfiguration.
func (b *Brief) Validate() error {
	b.CampaignID = strings.TrimSpace(b.CampaignID)
	b.Message = strings.TrimSpace(b.Message)

	switch {
	case b.CampaignID == "":
		return invalid("campaign_id is required")
	case len(b.Products) == 0:
		return invalid("at least one product is required")
	case strings.TrimSpace(b.Region) == "":
		return invalid("region is required")
	case strings.TrimSpace(b.TargetAudience) == "":
		return invalid("target_audience is required")
	case b.Message == "":
		return invalid("campaign_message is required")
	case len(b.Message) > maxMessageLength:
		return invalid(fmt.Sprintf("campaign_message exceeds %d characters", maxMessageLength))
	}

	for i, p := range b.Products {
		if strings.TrimSpace(p.Name) == "" {
			return invalid(fmt.Sprintf("product %d: name is required", i))
		}
		if strings.TrimSpace(p.Description) == "" {
			return invalid(fmt.Sprintf("product %d: description is required", i))
		}
	}

	return b.Brand.Validate()
}

// Validate checks the brand fields the gate depends on.
func (br *Brand) Validate() error {
	if br.LogoPath == "" {
		return invalid("brand.logo_path is required")
	}
	if !hexColorPattern.MatchString(br.PrimaryColor) {
		return invalid(fmt.Sprintf("brand.primary_color %q is not #RRGGBB", br.PrimaryColor))
	}
	if !hexColorPattern.MatchString(br.SecondaryColor) {
		return invalid(fmt.Sprintf("brand.secondary_color %q is not #RRGGBB", br.SecondaryColor))
	}
	return nil
}

func invalid(msg string) error {
	return errors.Wrap(errors.ErrConfiguration, msg)
}

// regionLanguages maps campaign regions to the translation target language.
var regionLanguages = map[string]string{
	"quebec":  "French",
	"france":  "French",
	"mexico":  "Spanish",
	"spain":   "Spanish",
	"india":   "Hindi",
	"japan":   "Japanese",
	"china":   "Chinese",
	"germany": "German",
	"brazil":  "Portuguese",
}

// LanguageForRegion returns the translation language for a region, defaulting
// to English.
func LanguageForRegion(region string) string {
	if lang, ok := regionLanguages[strings.ToLower(region)]; ok {
		return lang
	}
	return "English"
}

// Slug returns a filesystem-safe identifier for a product name.
func Slug(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			sb.WriteByte('-')
		}
	}
	return strings.Trim(sb.String(), "-")
}
