// Package pipeline orchestrates a campaign run: legal screening first,
// then per-product asset generation, composition, compliance evaluation, and
// upload, with partial-failure semantics across products.
package pipeline

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brandgate/creative-automation/internal/asset"
	"github.com/brandgate/creative-automation/internal/campaign"
	"github.com/brandgate/creative-automation/internal/compliance"
	"github.com/brandgate/creative-automation/internal/composer"
	"github.com/brandgate/creative-automation/internal/config"
	"github.com/brandgate/creative-automation/internal/generation"
	"github.com/brandgate/creative-automation/internal/metrics"
	"github.com/brandgate/creative-automation/internal/report"
	"github.com/brandgate/creative-automation/internal/upload"
	"github.com/brandgate/creative-automation/pkg/errors"
)

// Pipeline wires the collaborators for campaign runs. Build once, run many.
type Pipeline struct {
	cfg      *config.Config
	log      *zap.Logger
	gen      generation.Service
	assets   *asset.Manager
	gate     *compliance.Gate
	composer *composer.Composer
	uploader upload.Uploader
}

// New assembles a pipeline. uploader may be nil when uploads are disabled.
func New(
	log *zap.Logger,
	cfg *config.Config,
	gen generation.Service,
	assets *asset.Manager,
	gate *compliance.Gate,
	comp *composer.Composer,
	uploader upload.Uploader,
) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		log:      log,
		gen:      gen,
		assets:   assets,
		gate:     gate,
		composer: comp,
		uploader: uploader,
	}
}

// Run executes one campaign brief end to end and returns the run report.
// A blocked campaign message stops the run before any generation call with
// errors.ErrCampaignBlocked. Individual product failures are recorded in the
// report while siblings continue.
func (p *Pipeline) Run(ctx context.Context, briefPath string) (*report.Report, error) {
	start := time.Now()

	brief, err := campaign.LoadBrief(briefPath)
	if err != nil {
		return nil, err
	}

	rep := report.New(brief.CampaignID)
	ctx = errors.WithRunID(ctx, rep.RunID)
	defer func() {
		rep.DurationSeconds = time.Since(start).Seconds()
		metrics.RunDuration.Observe(rep.DurationSeconds)
		p.persistReport(ctx, rep)
	}()

	p.log.Info("campaign run started",
		zap.String("campaign", brief.CampaignID),
		zap.String("run_id", rep.RunID),
		zap.Int("products", len(brief.Products)),
		zap.String("region", brief.Region))

	// Legal screening of the original message before anything costs money.
	preVerdict := p.gate.EvaluateMessage(brief.Message, "")
	if preVerdict.Blocked {
		rep.Legal = preVerdict
		metrics.BlockedCampaigns.Inc()
		metrics.RunsTotal.WithLabelValues("blocked").Inc()
		return rep, errors.Wrap(errors.ErrCampaignBlocked, "original campaign message")
	}

	translated, err := p.gen.Translate(ctx, brief.Message, brief.Region, brief.TargetAudience)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		return rep, err
	}
	metrics.GenerationCalls.WithLabelValues("translate").Inc()

	rep.Legal = p.gate.EvaluateMessage(brief.Message, translated)
	if rep.Legal.Blocked {
		metrics.BlockedCampaigns.Inc()
		metrics.RunsTotal.WithLabelValues("blocked").Inc()
		return rep, errors.Wrap(errors.ErrCampaignBlocked, "translated campaign message")
	}

	brand, err := p.loadBrand(brief.Brand)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		return rep, err
	}

	language := campaign.LanguageForRegion(brief.Region)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrentProducts)

	for _, product := range brief.Products {
		product := product
		g.Go(func() error {
			outputs, err := p.processProduct(gctx, brief, product, brand, translated, language)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// One failing product never aborts its siblings.
				rep.Errors = append(rep.Errors, fmt.Sprintf("product %s: %v", product.Name, err))
				p.log.Error("product failed", zap.String("product", product.Name), zap.Error(err))
				return nil
			}
			rep.Outputs = append(rep.Outputs, outputs...)
			return nil
		})
	}
	_ = g.Wait()

	if len(rep.Errors) > 0 {
		metrics.RunsTotal.WithLabelValues("partial").Inc()
	} else {
		metrics.RunsTotal.WithLabelValues("ok").Inc()
	}

	p.log.Info("campaign run finished",
		zap.String("campaign", brief.CampaignID),
		zap.Int("outputs", len(rep.Outputs)),
		zap.Int("passed", rep.PassCount()),
		zap.Int("errors", len(rep.Errors)))
	return rep, nil
}

// persistReport writes the run report and uploads it alongside the
// creatives. Report persistence never changes the run outcome. Disabled when
// no reports directory is configured.
func (p *Pipeline) persistReport(ctx context.Context, rep *report.Report) {
	if p.cfg.ReportsDir == "" {
		return
	}
	path, err := rep.Write(p.cfg.ReportsDir)
	if err != nil {
		p.log.Error("writing report", zap.Error(err))
		return
	}
	p.log.Info("report written", zap.String("path", path))

	if p.uploader == nil {
		return
	}
	key, err := p.uploader.Upload(ctx, rep.CampaignID, path)
	if err != nil {
		p.log.Warn("uploading report", zap.Error(err))
		return
	}
	p.log.Info("report uploaded", zap.String("key", key))
}

// loadBrand decodes the logo reference and parses the brand colors. Failures
// here are configuration errors, fatal to the campaign run.
func (p *Pipeline) loadBrand(b campaign.Brand) (compliance.Brand, error) {
	f, err := os.Open(b.LogoPath)
	if err != nil {
		return compliance.Brand{}, errors.Wrap(errors.ErrConfiguration,
			fmt.Sprintf("brand logo %s: %v", b.LogoPath, err))
	}
	defer f.Close()

	logo, _, err := image.Decode(f)
	if err != nil {
		return compliance.Brand{}, errors.Wrap(errors.ErrConfiguration,
			fmt.Sprintf("decoding brand logo %s: %v", b.LogoPath, err))
	}

	return compliance.NewBrand(logo, b.PrimaryColor, b.SecondaryColor)
}

func (p *Pipeline) processProduct(
	ctx context.Context,
	brief *campaign.Brief,
	product campaign.Product,
	brand compliance.Brand,
	translated, language string,
) ([]report.Output, error) {
	assetPath, generated, err := p.assets.GetOrCreate(ctx, product, brief.Brand.Theme)
	if err != nil {
		return nil, err
	}
	if generated {
		metrics.GenerationCalls.WithLabelValues("image").Inc()
	}

	art, err := decodeImage(assetPath)
	if err != nil {
		return nil, err
	}

	creatives, err := p.composer.ComposeAll(art, brand.Logo, translated)
	if err != nil {
		return nil, err
	}

	outDir := filepath.Join(p.cfg.OutputDir, brief.CampaignID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	slug := campaign.Slug(product.Name)
	outputs := make([]report.Output, 0, len(creatives))
	for _, creative := range creatives {
		name := fmt.Sprintf("%s_%s.png", slug, strings.ReplaceAll(creative.Ratio, ":", "x"))
		outPath := filepath.Join(outDir, name)
		if err := os.WriteFile(outPath, creative.PNG, 0o644); err != nil {
			return nil, fmt.Errorf("writing creative: %w", err)
		}

		verdict, err := p.gate.EvaluateCreative(creative.Image, brand)
		if err != nil {
			return nil, err
		}
		if verdict.OverallPass {
			metrics.CreativesEvaluated.WithLabelValues("pass").Inc()
		} else {
			metrics.CreativesEvaluated.WithLabelValues("fail").Inc()
			p.log.Warn("creative failed compliance",
				zap.String("product", product.Name),
				zap.String("ratio", creative.Ratio),
				zap.Bool("logo_found", verdict.Logo.Found),
				zap.Float64("logo_confidence", verdict.Logo.Confidence),
				zap.Bool("color_pass", verdict.ColorPass))
		}

		output := report.Output{
			Product:           product.Name,
			Ratio:             creative.Ratio,
			OutputPath:        outPath,
			Language:          language,
			TranslatedMessage: translated,
			AssetGenerated:    generated,
			Verdict:           verdict,
		}

		if p.uploader != nil {
			key, err := p.uploader.Upload(ctx, brief.CampaignID, outPath)
			if err != nil {
				return nil, err
			}
			output.UploadKey = key
		}

		outputs = append(outputs, output)
	}
	return outputs, nil
}

// decodeImage reads and decodes one raster file.
func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidImage, fmt.Sprintf("opening %s: %v", path, err))
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidImage, fmt.Sprintf("decoding %s: %v", path, err))
	}
	return img, nil
}
