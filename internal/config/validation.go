package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with the domain validation rules.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a validator with the custom rules registered.
func NewValidator() *CustomValidator {
	v := validator.New()

	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("registering %s validator: %v", tag, err))
		}
	}
	must("environment", validateEnvironment)
	must("loglevel", validateLogLevel)
	must("strategyname", validateStrategyName)
	must("impactmodel", validateImpactModel)
	must("rebalancefreq", validateRebalanceFrequency)
	must("sizingpolicy", validateSizingPolicy)
	must("fillmodel", validateFillModel)
	must("unfilledstrategy", validateUnfilledStrategy)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration.
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using the registered rules plus
// cross-section checks.
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateStrategyName(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "sma_crossover", "rsi_reversion":
		return true
	default:
		return false
	}
}

func validateImpactModel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "linear", "square_root", "almgren_chriss":
		return true
	default:
		return false
	}
}

func validateRebalanceFrequency(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "daily", "weekly", "monthly":
		return true
	default:
		return false
	}
}

func validateSizingPolicy(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "equal_weight", "risk_parity", "fixed":
		return true
	default:
		return false
	}
}

// The custom fill model requires a caller-supplied function, so only the
// built-in curves are reachable from configuration.
func validateFillModel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "linear", "exponential":
		return true
	default:
		return false
	}
}

func validateUnfilledStrategy(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "queue", "cancel", "hold":
		return true
	default:
		return false
	}
}

// validateCrossField performs checks spanning config sections.
func validateCrossField(cfg *Config) error {
	if cfg.Portfolio.Enabled && len(cfg.Portfolio.Files) == 0 {
		return fmt.Errorf("portfolio enabled but no symbol files configured")
	}
	if cfg.Analysis.WalkForward.Enabled {
		wf := cfg.Analysis.WalkForward
		if wf.TrainSize > 0 && wf.TestSize > 0 && wf.TestSize > wf.TrainSize {
			return fmt.Errorf("walk-forward test_size %d exceeds train_size %d", wf.TestSize, wf.TrainSize)
		}
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Address == "" {
		return fmt.Errorf("metrics enabled but no listen address configured")
	}
	return nil
}

func formatValidationErrors(errs validator.ValidationErrors) error {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, fmt.Sprintf("%s failed %q validation", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}
