package fusion

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"

	"modelfusion/internal/fields"
	"modelfusion/internal/model"
	"modelfusion/internal/supervised"
)

// Probabilities runs the weighted probability vote over every member and
// returns the compact result: one value per entry of ClassNames for
// classification fusions, a single-element vector with the predicted value
// for regression fusions. Members are loaded one batch at a time and a
// member that fails to load or predict is skipped.
func (f *Fusion) Probabilities(ctx context.Context, input model.InputData, strategy supervised.MissingStrategy) ([]float64, error) {
	if !f.missingNumerics {
		if err := f.fieldSet.CheckNoMissingNumerics(input); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingNumerics, err)
		}
	}

	var votes [][]float64
	var totalWeight float64
	for _, split := range f.modelsSplits {
		for _, id := range split {
			member, err := f.member(ctx, id)
			if err != nil {
				continue
			}
			prediction, err := member.Probabilities(ctx, input, strategy)
			if err != nil {
				continue
			}
			weight := f.weightByID[id]
			if f.regression {
				if len(prediction) == 0 {
					continue
				}
				votes = append(votes, []float64{prediction[0] * weight})
				totalWeight += weight
				continue
			}
			if !slices.Equal(f.classNames, member.ClassNames()) {
				prediction = rearrange(member.ClassNames(), f.classNames, prediction)
			}
			vote := append([]float64(nil), prediction...)
			floats.Scale(weight, vote)
			votes = append(votes, vote)
		}
	}

	if f.regression {
		var sum float64
		for _, vote := range votes {
			sum += vote[0]
		}
		// A zero total weight keeps the raw weighted sum.
		if totalWeight > 0 {
			sum /= totalWeight
		}
		return []float64{sum}, nil
	}

	if len(votes) == 0 {
		return nil, ErrNoVotes
	}
	return combineDistribution(votes, len(f.classNames)), nil
}

// Confidences mirrors Probabilities for the confidence measure. For
// classification fusions the per-class mean is unweighted. For regression
// fusions the result is a two-element vector: the weighted mean prediction
// and the mean member confidence.
func (f *Fusion) Confidences(ctx context.Context, input model.InputData, strategy supervised.MissingStrategy) ([]float64, error) {
	if !f.missingNumerics {
		if err := f.fieldSet.CheckNoMissingNumerics(input); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingNumerics, err)
		}
	}

	if f.regression {
		var sum, confidence, totalWeight float64
		var count int
		for _, split := range f.modelsSplits {
			for _, id := range split {
				member, err := f.member(ctx, id)
				if err != nil {
					continue
				}
				vote, err := member.Confidences(ctx, input, strategy)
				if err != nil || len(vote) < 2 {
					continue
				}
				weight := f.weightByID[id]
				sum += vote[0] * weight
				confidence += vote[1]
				totalWeight += weight
				count++
			}
		}
		if count == 0 {
			return nil, ErrNoConfidences
		}
		if totalWeight > 0 {
			sum /= totalWeight
		}
		confidence = roundTo(confidence/float64(count), confidenceDecimals)
		return []float64{sum, confidence}, nil
	}

	var votes [][]float64
	for _, split := range f.modelsSplits {
		for _, id := range split {
			member, err := f.member(ctx, id)
			if err != nil {
				continue
			}
			vote, err := member.Confidences(ctx, input, strategy)
			if err != nil {
				continue
			}
			if !slices.Equal(f.classNames, member.ClassNames()) {
				vote = rearrange(member.ClassNames(), f.classNames, vote)
			}
			votes = append(votes, vote)
		}
	}
	if len(votes) == 0 {
		return nil, ErrNoConfidences
	}
	return combineConfidences(votes, len(f.classNames)), nil
}

// PredictProbability labels the combined distribution with the class names.
// It is only meaningful for classification fusions.
func (f *Fusion) PredictProbability(ctx context.Context, input model.InputData, strategy supervised.MissingStrategy) ([]model.CategoryProbability, error) {
	if f.regression {
		return nil, fmt.Errorf("fusion %s predicts a numeric objective, not class probabilities", f.resourceID)
	}
	distribution, err := f.Probabilities(ctx, input, strategy)
	if err != nil {
		return nil, err
	}
	out := make([]model.CategoryProbability, len(f.classNames))
	for i, class := range f.classNames {
		out[i] = model.CategoryProbability{Category: class, Probability: distribution[i]}
	}
	return out, nil
}

// PredictConfidence labels the combined confidences with the class names.
func (f *Fusion) PredictConfidence(ctx context.Context, input model.InputData, strategy supervised.MissingStrategy) ([]model.CategoryConfidence, error) {
	if f.regression {
		return nil, fmt.Errorf("fusion %s predicts a numeric objective, not class confidences", f.resourceID)
	}
	confidences, err := f.Confidences(ctx, input, strategy)
	if err != nil {
		return nil, err
	}
	out := make([]model.CategoryConfidence, len(f.classNames))
	for i, class := range f.classNames {
		out[i] = model.CategoryConfidence{Category: class, Confidence: confidences[i]}
	}
	return out, nil
}

// PredictArgs tunes one Predict call. A nil OperatingPoint falls back to the
// fusion's operation settings. Full additionally reports the input keys that
// matched no field.
type PredictArgs struct {
	MissingStrategy supervised.MissingStrategy
	OperatingPoint  *model.OperatingPoint
	Full            bool
}

// Predict resolves the input against the field metadata, casts the values,
// and assembles the winning prediction from the combined member votes.
func (f *Fusion) Predict(ctx context.Context, input model.InputData, args PredictArgs) (model.Prediction, error) {
	filtered, unused := f.fieldSet.Filter(input)
	if !f.missingNumerics {
		if err := f.fieldSet.CheckNoMissingNumerics(filtered); err != nil {
			return model.Prediction{}, fmt.Errorf("%w: %v", ErrMissingNumerics, err)
		}
	}
	if err := fields.Cast(filtered, f.fields); err != nil {
		return model.Prediction{}, err
	}

	point := args.OperatingPoint
	if point == nil && f.settings != nil {
		point = f.settings.OperatingPoint
	}
	if point != nil {
		return f.PredictOperating(ctx, filtered, args.MissingStrategy, *point)
	}

	if f.regression {
		vote, err := f.Probabilities(ctx, filtered, args.MissingStrategy)
		if err != nil {
			return model.Prediction{}, err
		}
		prediction := model.Prediction{Prediction: vote[0]}
		// Confidence is merged in only when some member supports it; the
		// prediction itself averages every contributing member.
		if confidences, err := f.Confidences(ctx, filtered, args.MissingStrategy); err == nil {
			confidence := confidences[1]
			prediction.Confidence = &confidence
		}
		if args.Full {
			prediction.UnusedFields = unused
		}
		return prediction, nil
	}

	distribution, err := f.Probabilities(ctx, filtered, args.MissingStrategy)
	if err != nil {
		return model.Prediction{}, err
	}
	ranked := f.rank(distribution)
	if confidences, err := f.Confidences(ctx, filtered, args.MissingStrategy); err == nil {
		for i := range ranked {
			position := slices.Index(f.classNames, ranked[i].category)
			if position >= 0 && position < len(confidences) {
				confidence := confidences[position]
				ranked[i].confidence = &confidence
			}
		}
	}

	top := ranked[0]
	prediction := model.Prediction{
		Prediction:  top.category,
		Probability: &top.probability,
		Confidence:  top.confidence,
	}
	if args.Full {
		prediction.UnusedFields = unused
	}
	return prediction, nil
}

// PredictOperating applies a probability threshold for one positive class:
// the positive class wins whenever its probability exceeds the threshold,
// otherwise the best of the remaining classes wins.
func (f *Fusion) PredictOperating(ctx context.Context, input model.InputData, strategy supervised.MissingStrategy, point model.OperatingPoint) (model.Prediction, error) {
	if f.regression {
		return model.Prediction{}, fmt.Errorf("%w: fusion %s predicts a numeric objective", ErrInvalidOperatingPoint, f.resourceID)
	}
	if err := f.checkOperatingPoint(&point); err != nil {
		return model.Prediction{}, err
	}

	distribution, err := f.Probabilities(ctx, input, strategy)
	if err != nil {
		return model.Prediction{}, err
	}
	position := slices.Index(f.classNames, point.PositiveClass)
	if distribution[position] > point.Threshold {
		return model.Prediction{
			Prediction:  point.PositiveClass,
			Probability: &distribution[position],
		}, nil
	}

	ranked := f.rank(distribution)
	for _, candidate := range ranked {
		if candidate.category == point.PositiveClass {
			continue
		}
		probability := candidate.probability
		return model.Prediction{Prediction: candidate.category, Probability: &probability}, nil
	}
	return model.Prediction{}, ErrNoVotes
}

// checkOperatingPoint validates and normalizes the point in place. The kind
// is always forced to "probability", whatever the caller supplied.
func (f *Fusion) checkOperatingPoint(point *model.OperatingPoint) error {
	point.Kind = "probability"
	if point.Threshold < 0 || point.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v is outside [0, 1]", ErrInvalidOperatingPoint, point.Threshold)
	}
	if !slices.Contains(f.classNames, point.PositiveClass) {
		return fmt.Errorf("%w: positive class %q is not an objective category", ErrInvalidOperatingPoint, point.PositiveClass)
	}
	return nil
}

type rankedCategory struct {
	category    string
	probability float64
	confidence  *float64
}

// rank pairs the distribution with the class names and orders it by
// descending probability. Probability ties break on the objective field's
// original category order, not on the sorted vocabulary.
func (f *Fusion) rank(distribution []float64) []rankedCategory {
	ranked := make([]rankedCategory, len(f.classNames))
	for i, class := range f.classNames {
		ranked[i] = rankedCategory{category: class, probability: distribution[i]}
	}
	order := categoryRank(f.objectiveCategories)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].probability != ranked[j].probability {
			return ranked[i].probability > ranked[j].probability
		}
		return order[ranked[i].category] < order[ranked[j].category]
	})
	return ranked
}

func categoryRank(categories []string) map[string]int {
	rank := make(map[string]int, len(categories))
	for i, category := range categories {
		rank[category] = i
	}
	return rank
}
