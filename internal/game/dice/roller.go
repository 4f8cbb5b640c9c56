package dice

import "go.uber.org/zap"

// Roller wraps a Source and logs every draw at debug level.
// Roller itself satisfies Source, so it can be handed to the combat calculator.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src must be non-nil. A nil logger disables logging.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Float64 draws from the wrapped source and logs the value.
func (r *Roller) Float64() float64 {
	v := r.src.Float64()
	r.logger.Debug("random draw", zap.Float64("value", v))
	return v
}

// Chance reports whether a draw falls below p, logging the label, draw, and result.
//
// Postcondition: Consumes exactly one draw from the wrapped source.
func (r *Roller) Chance(label string, p float64) bool {
	v := r.src.Float64()
	ok := v < p
	r.logger.Debug("chance roll",
		zap.String("label", label),
		zap.Float64("value", v),
		zap.Float64("threshold", p),
		zap.Bool("success", ok),
	)
	return ok
}

// RollExpr parses expr and rolls it, logging the result.
//
// Postcondition: Returns a RollResult or a parse error.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	result, err := RollExpr(expr, r.src)
	if err != nil {
		return RollResult{}, err
	}
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result, nil
}
