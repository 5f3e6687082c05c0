package compliance

import (
	"fmt"
	"image"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/brandgate/creative-automation/pkg/errors"
)

// DefaultPolicyExpr is the shipped overall-pass rule: a creative passes only
// when the logo is detected and both brand colors are present.
const DefaultPolicyExpr = "logo.found && color.pass"

// Brand is the compliance view of a brand: the decoded logo reference and the
// two parsed brand colors. Read-only to the gate.
type Brand struct {
	Logo      image.Image
	Primary   Color
	Secondary Color
}

// NewBrand parses the brand hex colors and pairs them with the decoded logo
// reference.
func NewBrand(logo image.Image, primaryHex, secondaryHex string) (Brand, error) {
	if logo == nil {
		return Brand{}, errors.Wrap(errors.ErrConfiguration, "brand logo reference is required")
	}
	primary, err := ParseHex(primaryHex)
	if err != nil {
		return Brand{}, err
	}
	secondary, err := ParseHex(secondaryHex)
	if err != nil {
		return Brand{}, err
	}
	return Brand{Logo: logo, Primary: primary, Secondary: secondary}, nil
}

// Verdict is the combined compliance outcome for one creative.
type Verdict struct {
	Logo          LogoMatch `json:"logo"`
	ColorPass     bool      `json:"color_pass"`
	MatchedColors []Color   `json:"matched_colors,omitempty"`
	OverallPass   bool      `json:"overall_pass"`
}

// Gate sequences logo detection, color validation, and legal screening into
// per-creative and per-message verdicts. It holds no mutable state and is
// safe for concurrent use; logging and reporting belong to the caller.
type Gate struct {
	logos    *LogoDetector
	colors   *ColorValidator
	screener *Screener
	policy   *vm.Program
}

// GateOption tunes a Gate at construction.
type GateOption func(*gateConfig)

type gateConfig struct {
	policyExpr string
	logos      *LogoDetector
	colors     *ColorValidator
}

// WithPolicyExpr replaces the overall-pass rule. The expression sees
// `logo.found`, `logo.confidence`, `color.pass`, `color.primary`, and
// `color.secondary`, and must evaluate to a boolean.
func WithPolicyExpr(policy string) GateOption {
	return func(cfg *gateConfig) { cfg.policyExpr = policy }
}

// WithLogoDetector replaces the default logo detector.
func WithLogoDetector(d *LogoDetector) GateOption {
	return func(cfg *gateConfig) { cfg.logos = d }
}

// WithColorValidator replaces the default color validator.
func WithColorValidator(v *ColorValidator) GateOption {
	return func(cfg *gateConfig) { cfg.colors = v }
}

// NewGate builds a gate. An invalid policy expression is a configuration
// error here, never at evaluation time.
func NewGate(screener *Screener, opts ...GateOption) (*Gate, error) {
	if screener == nil {
		return nil, errors.Wrap(errors.ErrConfiguration, "gate requires a legal screener")
	}

	cfg := gateConfig{
		policyExpr: DefaultPolicyExpr,
		logos:      NewLogoDetector(),
		colors:     NewColorValidator(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	program, err := expr.Compile(cfg.policyExpr, expr.Env(policyEnv(LogoMatch{}, ColorReport{})), expr.AsBool())
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration, fmt.Sprintf("invalid pass policy %q: %v", cfg.policyExpr, err))
	}

	return &Gate{
		logos:    cfg.logos,
		colors:   cfg.colors,
		screener: screener,
		policy:   program,
	}, nil
}

// EvaluateCreative runs logo detection and color validation on one creative
// and combines them per the configured pass policy. Image errors propagate
// untouched; a missing logo or color is a verdict, not an error.
func (g *Gate) EvaluateCreative(img image.Image, brand Brand) (Verdict, error) {
	logoMatch, err := g.logos.Detect(img, brand.Logo)
	if err != nil {
		return Verdict{}, err
	}

	colorReport, err := g.colors.Validate(img, brand.Primary, brand.Secondary)
	if err != nil {
		return Verdict{}, err
	}

	pass, err := expr.Run(g.policy, policyEnv(logoMatch, colorReport))
	if err != nil {
		// The program is compiled and type-checked against this exact env
		// shape at construction.
		return Verdict{}, errors.Wrap(errors.ErrConfiguration, fmt.Sprintf("pass policy evaluation: %v", err))
	}

	return Verdict{
		Logo:          logoMatch,
		ColorPass:     colorReport.Pass,
		MatchedColors: colorReport.Matched,
		OverallPass:   pass.(bool),
	}, nil
}

// EvaluateMessage screens the original and translated campaign messages
// independently and merges the verdicts: findings are unioned, blocked is the
// logical OR.
func (g *Gate) EvaluateMessage(original, translated string) LegalVerdict {
	return Merge(g.screener.Screen(original), g.screener.Screen(translated))
}

func policyEnv(logo LogoMatch, color ColorReport) map[string]interface{} {
	return map[string]interface{}{
		"logo": map[string]interface{}{
			"found":      logo.Found,
			"confidence": logo.Confidence,
		},
		"color": map[string]interface{}{
			"pass":      color.Pass,
			"primary":   color.PrimaryPresent,
			"secondary": color.SecondaryPresent,
		},
	}
}
