// Package report produces the two session report halves: a deterministic
// quantitative budget report and a narrative qualitative report.
//
// The qualitative half calls an external text-generation service but never
// lets its failure surface to the caller: any call or parse failure folds
// into a deterministic local template, with the provenance recorded in the
// report's Source field.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/coachd/internal/extract"
	"github.com/fyrsmithlabs/coachd/internal/logging"
	"github.com/fyrsmithlabs/coachd/internal/notebook"
	"github.com/fyrsmithlabs/coachd/internal/telemetry"
)

// ErrInsufficientData marks a transcript whose extracted data failed
// validation fatally. No reports are produced for it.
var ErrInsufficientData = errors.New("insufficient financial data")

// Reports bundles both generated halves plus any non-fatal validation
// warnings about the underlying data.
type Reports struct {
	Qualitative  notebook.QualitativeReport
	Quantitative notebook.QuantitativeReport
	Warnings     []string
}

// Generator runs extraction and produces both report halves.
type Generator struct {
	extractor *extract.Extractor
	client    CompletionClient
	logger    *logging.Logger
	metrics   *telemetry.Metrics
}

// NewGenerator creates a generator. Client, logger, and metrics may each be
// nil; a nil client means the qualitative half is always the template.
func NewGenerator(extractor *extract.Extractor, client CompletionClient, logger *logging.Logger, metrics *telemetry.Metrics) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{
		extractor: extractor,
		client:    client,
		logger:    logger.Named("report"),
		metrics:   metrics,
	}
}

// Generate extracts data from the notebook's transcript, validates it,
// attaches it, and produces both report halves concurrently. The halves are
// independent: a qualitative failure folds to the template and never blocks
// the numbers.
//
// A fatal validation outcome (no income found at all) surfaces as
// ErrInsufficientData and produces nothing; warnings ride along on the
// result. If the notebook went terminal while generation was in flight the
// results are discarded, never applied, and ErrTerminal is returned.
func (g *Generator) Generate(ctx context.Context, nb *notebook.Notebook) (*Reports, error) {
	start := time.Now()

	result := g.extractor.Extract(nb.TranscriptMessages())
	validation := extract.Validate(result.FinancialData)
	if !validation.IsValid {
		return nil, fmt.Errorf("%w: %s", ErrInsufficientData, strings.Join(validation.Errors, "; "))
	}
	if len(validation.Warnings) > 0 {
		g.logger.Warn("extracted data has validation warnings",
			zap.String("notebook_id", nb.ID),
			zap.Strings("warnings", validation.Warnings))
	}

	if err := nb.SetExtractedData(result.FinancialData); err != nil {
		return nil, err
	}
	if err := nb.UpdateProfile(result.Profile); err != nil {
		return nil, err
	}

	messages := nb.TranscriptMessages()
	clientName := nb.ClientName

	var (
		qualitative  notebook.QualitativeReport
		quantitative notebook.QuantitativeReport
	)
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		quantitative = BuildQuantitativeReport(result.FinancialData)
		return nil
	})
	grp.Go(func() error {
		qualitative = g.qualitative(gctx, clientName, messages, result.FinancialData)
		return nil
	})
	_ = grp.Wait()

	if err := nb.AttachQuantitativeReport(quantitative); err != nil {
		if errors.Is(err, notebook.ErrTerminal) {
			g.logger.Warn("discarding reports for ended session",
				zap.String("notebook_id", nb.ID))
		}
		return nil, err
	}
	if err := nb.AttachQualitativeReport(qualitative); err != nil {
		return nil, err
	}

	if g.metrics != nil {
		g.metrics.ReportsGenerated.WithLabelValues("quantitative", "deterministic").Inc()
		g.metrics.ReportsGenerated.WithLabelValues("qualitative", qualitative.Source).Inc()
		g.metrics.ReportDuration.Observe(time.Since(start).Seconds())
	}
	g.logger.Info("reports generated",
		zap.String("notebook_id", nb.ID),
		zap.String("qualitative_source", qualitative.Source),
		zap.Duration("elapsed", time.Since(start)))

	return &Reports{
		Qualitative:  qualitative,
		Quantitative: quantitative,
		Warnings:     validation.Warnings,
	}, nil
}

// qualitative tries the remote completion and folds every failure mode
// into the local template.
func (g *Generator) qualitative(ctx context.Context, clientName string, messages []extract.Message, data extract.FinancialData) notebook.QualitativeReport {
	if g.client == nil || !g.client.Available() {
		return templateQualitative(clientName, data)
	}

	text, err := g.client.Complete(ctx, buildQualitativePrompt(messages, data))
	if err != nil {
		g.logger.Warn("completion call failed, using template", zap.Error(err))
		return templateQualitative(clientName, data)
	}

	parsed, err := parseQualitative(text)
	if err != nil {
		g.logger.Warn("completion response unparseable, using template", zap.Error(err))
		return templateQualitative(clientName, data)
	}
	return parsed
}
