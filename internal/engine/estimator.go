package engine

import (
	"context"
	"errors"
	"math"
)

// EmissionPredictor estimates kg CO2e for one activity. Implementations
// wrap the external model service and are expected to return UpstreamError
// on transport or status failures.
type EmissionPredictor interface {
	Predict(ctx context.Context, activity Activity) (float64, error)
}

// Estimator validates activities and dispatches them to the predictor of
// their category. It never retries.
type Estimator struct {
	predictors map[ActivityType]EmissionPredictor
}

// NewEstimator builds an Estimator with one predictor per category.
// Categories missing from predictors fail with an UpstreamError at call time.
func NewEstimator(predictors map[ActivityType]EmissionPredictor) *Estimator {
	m := make(map[ActivityType]EmissionPredictor, len(predictors))
	for k, v := range predictors {
		m[k] = v
	}
	return &Estimator{predictors: m}
}

// NewUniformEstimator uses the same predictor for every category.
func NewUniformEstimator(p EmissionPredictor) *Estimator {
	m := make(map[ActivityType]EmissionPredictor, len(ActivityTypes))
	for _, t := range ActivityTypes {
		m[t] = p
	}
	return &Estimator{predictors: m}
}

// Predict returns the predicted emission in kg CO2e for activity.
func (e *Estimator) Predict(ctx context.Context, activity Activity) (float64, error) {
	if activity == nil {
		return 0, invalid("activity input is required")
	}
	t := activity.Type()
	if _, err := ParseActivityType(string(t)); err != nil {
		return 0, err
	}
	if err := activity.Validate(); err != nil {
		return 0, err
	}

	p, ok := e.predictors[t]
	if !ok {
		return 0, &UpstreamError{Service: "prediction service", Detail: "no predictor configured for " + string(t)}
	}

	kg, err := p.Predict(ctx, activity)
	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			return 0, err
		}
		return 0, &UpstreamError{Service: "prediction service", Err: err}
	}
	if math.IsNaN(kg) || math.IsInf(kg, 0) || kg < 0 {
		return 0, &UpstreamError{Service: "prediction service", Detail: "prediction is not a non-negative number"}
	}
	return kg, nil
}

// PredictRaw decodes a raw category payload and predicts it.
func (e *Estimator) PredictRaw(ctx context.Context, activityType string, raw []byte) (Activity, float64, error) {
	activity, err := DecodeActivity(activityType, raw)
	if err != nil {
		return nil, 0, err
	}
	kg, err := e.Predict(ctx, activity)
	if err != nil {
		return nil, 0, err
	}
	return activity, kg, nil
}
