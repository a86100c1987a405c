// Package config defines training parameters and their validation.
package config

import (
	"context"

	"github.com/grovekit/grove/internal/pkg/log"
	"github.com/grovekit/grove/internal/pkg/service/forest/apportion"
	"github.com/grovekit/grove/internal/pkg/service/forest/dataset"
	"github.com/grovekit/grove/internal/pkg/utils/errors"
	"github.com/grovekit/grove/internal/pkg/validator"
)

type Statistic string

const (
	StatisticGini    Statistic = "gini"
	StatisticEntropy Statistic = "entropy"
)

type SamplingStrategy string

const (
	SamplingRandom     SamplingStrategy = "random"
	SamplingStratified SamplingStrategy = "stratified"
)

const (
	// MinClasses and MaxClasses bound the cardinality of the response column.
	MinClasses = 2
	MaxClasses = 254
	// AutoSplitFeatures selects floor(sqrt(numFeatures-1)) at run time.
	AutoSplitFeatures = -1
)

// TrainingParams is the immutable configuration of one training job.
type TrainingParams struct {
	Trees               int              `json:"trees" validate:"required,gt=0"`
	MaxDepth            int              `json:"maxDepth" validate:"gte=0"`
	BinLimit            int              `json:"binLimit" validate:"gt=0"`
	Statistic           Statistic        `json:"statistic" validate:"required,oneof=gini entropy"`
	Seed                int64            `json:"seed"`
	ParallelTrees       bool             `json:"parallelTrees"`
	ClassWeights        map[int]float64  `json:"classWeights,omitempty"`
	SplitFeatures       int              `json:"splitFeatures"`
	SamplingStrategy    SamplingStrategy `json:"samplingStrategy" validate:"required,oneof=random stratified"`
	SampleRate          float64          `json:"sampleRate" validate:"gte=0,lte=1"`
	StrataSamples       map[int]float64  `json:"strataSamples,omitempty"`
	Verbosity           int              `json:"verbosity" validate:"gte=0"`
	ExclusiveSplitLimit int              `json:"exclusiveSplitLimit" validate:"gte=0"`
	UseNonLocalData     bool             `json:"useNonLocalData"`
	IgnoredColumns      []int            `json:"ignoredColumns,omitempty"`
}

// NewTrainingParams returns parameters with defaults,
// MaxDepth=0 means unlimited depth.
func NewTrainingParams(trees int) TrainingParams {
	return TrainingParams{
		Trees:            trees,
		MaxDepth:         0,
		BinLimit:         1024,
		Statistic:        StatisticGini,
		ParallelTrees:    true,
		SplitFeatures:    AutoSplitFeatures,
		SamplingStrategy: SamplingRandom,
		SampleRate:       0.67,
	}
}

// ValidationError is fatal, the job is never started, the caller must resubmit corrected input.
type ValidationError struct {
	err error
}

func NewValidationError(err error) ValidationError {
	return ValidationError{err: err}
}

func (e ValidationError) Error() string {
	return "invalid training parameters: " + e.err.Error()
}

func (e ValidationError) Unwrap() error {
	return e.err
}

// Validate checks the parameters against the dataset they will train on.
func (p TrainingParams) Validate(ctx context.Context, val validator.Validator, part *dataset.Partition) error {
	if err := val.Validate(ctx, p); err != nil {
		return ValidationError{err: err}
	}
	errs := errors.NewMultiError()

	response, err := part.Response()
	if err != nil {
		errs.Append(err)
	} else {
		if !response.IsInteger {
			errs.Append(errors.Errorf(`regression is not supported: response column "%s" must be integer-valued`, response.Name))
		}
		if classes := response.Classes(); classes < MinClasses || classes > MaxClasses {
			errs.Append(errors.Errorf(`found %d classes: response column must have [%d,%d] classes`, classes, MinClasses, MaxClasses))
		}
	}

	if limit := part.NumColumns() - 1; p.SplitFeatures != AutoSplitFeatures && (p.SplitFeatures < 1 || p.SplitFeatures > limit) {
		errs.Append(errors.Errorf(`number of split features exceeds available data, should be in [1,%d], found %d`, limit, p.SplitFeatures))
	}

	if err := errs.ErrorOrNil(); err != nil {
		return ValidationError{err: err}
	}
	return nil
}

// ResolveSplitFeatures resolves the auto value.
func (p TrainingParams) ResolveSplitFeatures(numColumns int) int {
	if p.SplitFeatures != AutoSplitFeatures {
		return p.SplitFeatures
	}
	return apportion.DefaultSplitFeatures(numColumns)
}

// DumpParams logs the effective configuration, the original CLI did the same at higher verbosity.
func (p TrainingParams) DumpParams(logger log.Logger, datasetKey string) {
	if p.Verbosity <= 0 {
		return
	}
	logger.Infof(
		"training params: trees=%d depth=%d binLimit=%d statistic=%s seed=%d parallel=%t splitFeatures=%d sampling=%s sampleRate=%.2f exclusiveSplitLimit=%d nonLocalData=%t dataset=%s",
		p.Trees, p.MaxDepth, p.BinLimit, p.Statistic, p.Seed, p.ParallelTrees,
		p.SplitFeatures, p.SamplingStrategy, p.SampleRate, p.ExclusiveSplitLimit, p.UseNonLocalData, datasetKey,
	)
}
