package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Tag     string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	// Generate custom message based on tag
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "min":
		return fmt.Sprintf("%s must be at least", e.Field)
	case "max":
		return fmt.Sprintf("%s must be at most", e.Field)
	case "oneof":
		return fmt.Sprintf("%s must be one of", e.Field)
	default:
		return fmt.Sprintf("%s failed validation", e.Field)
	}
}

// ValidationErrors represents multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// Validator provides configuration validation.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new configuration validator.
func NewValidator() (*Validator, error) {
	validate := validator.New()

	// Register custom validation functions
	if err := registerAllValidators(validate); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &Validator{validate: validate}, nil
}

// ValidateConfig validates a configuration struct.
func (v *Validator) ValidateConfig(config *Config) error {
	// Check for nil config first
	if config == nil {
		return ValidationErrors{
			ValidationError{
				Field:   "config",
				Tag:     "required",
				Value:   nil,
				Message: "config is nil",
			},
		}
	}

	err := v.validate.Struct(config)
	if err == nil {
		// Perform additional custom validations if struct validation passes
		if customErrors := v.validateCustomRules(config); len(customErrors) > 0 {
			return customErrors
		}
		return nil
	}

	// Convert validator errors to our custom error format
	var validationErrors ValidationErrors

	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range errs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   e.Field(),
				Tag:     e.Tag(),
				Value:   e.Value(),
				Message: getValidationMessage(e),
			})
		}
	} else {
		validationErrors = append(validationErrors, ValidationError{
			Message: err.Error(),
		})
	}

	// Perform additional custom validations
	if customErrors := v.validateCustomRules(config); len(customErrors) > 0 {
		validationErrors = append(validationErrors, customErrors...)
	}

	if len(validationErrors) > 0 {
		return validationErrors
	}

	return nil
}

// validateCustomRules performs additional custom validation rules.
func (v *Validator) validateCustomRules(config *Config) ValidationErrors {
	var errors ValidationErrors

	if config == nil {
		errors = append(errors, ValidationError{
			Field:   "config",
			Tag:     "required",
			Value:   nil,
			Message: "config cannot be nil",
		})
		return errors
	}

	if errs := v.validateEvolutionConfig(&config.Evolution); len(errs) > 0 {
		errors = append(errors, errs...)
	}

	if errs := v.validateStorageConfig(&config.Storage); len(errs) > 0 {
		errors = append(errors, errs...)
	}

	if errs := v.validateLoggingConfig(&config.Logging); len(errs) > 0 {
		errors = append(errors, errs...)
	}

	return errors
}

// validateEvolutionConfig validates cross-field evolution constraints.
func (v *Validator) validateEvolutionConfig(config *EvolutionConfig) ValidationErrors {
	var errors ValidationErrors

	// Hysteresis below the threshold keeps the regression boundary meaningful
	if config.Hysteresis >= config.ConvergenceThreshold && config.ConvergenceThreshold > 0 {
		errors = append(errors, ValidationError{
			Field:   "Evolution.Hysteresis",
			Message: fmt.Sprintf("hysteresis %.3f must be below convergence threshold %.3f", config.Hysteresis, config.ConvergenceThreshold),
		})
	}

	if config.DriftWindow > config.HistorySize && config.HistorySize > 0 {
		errors = append(errors, ValidationError{
			Field:   "Evolution.DriftWindow",
			Message: fmt.Sprintf("drift window %d cannot exceed history size %d", config.DriftWindow, config.HistorySize),
		})
	}

	return errors
}

// validateStorageConfig validates backend-specific requirements.
func (v *Validator) validateStorageConfig(config *StorageConfig) ValidationErrors {
	var errors ValidationErrors

	switch config.Backend {
	case "file", "sqlite":
		if config.Path == "" {
			errors = append(errors, ValidationError{
				Field:   "Storage.Path",
				Message: fmt.Sprintf("path is required for %s backend", config.Backend),
			})
		}
	case "redis":
		if config.Redis.Addr == "" {
			errors = append(errors, ValidationError{
				Field:   "Storage.Redis.Addr",
				Message: "redis address is required for redis backend",
			})
		}
	}

	return errors
}

// validateLoggingConfig validates logging configuration.
func (v *Validator) validateLoggingConfig(config *LoggingConfig) ValidationErrors {
	var errors ValidationErrors

	// Validate log outputs
	for i, output := range config.Outputs {
		if errs := v.validateLogOutput(i, &output); len(errs) > 0 {
			errors = append(errors, errs...)
		}
	}

	return errors
}

// validateLogOutput validates a log output configuration.
func (v *Validator) validateLogOutput(index int, output *LogOutputConfig) ValidationErrors {
	var errors ValidationErrors

	if output.Type == "file" {
		if output.FilePath == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("Logging.Outputs[%d].FilePath", index),
				Message: "file path is required for file output",
			})
		} else {
			dir := filepath.Dir(output.FilePath)
			if !filepath.IsAbs(dir) {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("Logging.Outputs[%d].FilePath", index),
					Message: "log file path must be absolute",
				})
			}
		}
	}

	return errors
}

// registerAllValidators registers all custom validators.
func registerAllValidators(validate *validator.Validate) error {
	validators := map[string]validator.Func{
		"file_path":    validateFilePath,
		"log_level":    validateLogLevel,
		"output_type":  validateOutputType,
		"backend_type": validateBackendType,
	}

	for name, fn := range validators {
		if err := validate.RegisterValidation(name, fn); err != nil {
			return fmt.Errorf("failed to register validator '%s': %w", name, err)
		}
	}

	return nil
}

// validateFilePath validates file paths.
func validateFilePath(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if path == "" {
		return true // Allow empty paths
	}
	return filepath.IsAbs(path)
}

// validateLogLevel validates log levels.
func validateLogLevel(fl validator.FieldLevel) bool {
	level := fl.Field().String()
	validLevels := []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}
	for _, valid := range validLevels {
		if level == valid {
			return true
		}
	}
	return false
}

// validateOutputType validates output types.
func validateOutputType(fl validator.FieldLevel) bool {
	outputType := fl.Field().String()
	validTypes := []string{"console", "file"}
	for _, valid := range validTypes {
		if outputType == valid {
			return true
		}
	}
	return false
}

// validateBackendType validates storage backend types.
func validateBackendType(fl validator.FieldLevel) bool {
	backend := fl.Field().String()
	validBackends := []string{"file", "sqlite", "redis"}
	for _, valid := range validBackends {
		if backend == valid {
			return true
		}
	}
	return false
}

// getValidationMessage returns a human-readable validation message.
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
	case "file_path":
		return fmt.Sprintf("%s must be a valid file path", e.Field())
	default:
		return fmt.Sprintf("%s failed validation", e.Field())
	}
}

// Global validator instance.
var (
	globalValidator *Validator
	validatorOnce   sync.Once
)

// GetValidator returns the global validator instance.
func GetValidator() *Validator {
	validatorOnce.Do(func() {
		var err error
		globalValidator, err = NewValidator()
		if err != nil {
			panic(fmt.Sprintf("failed to create global validator: %v", err))
		}
	})
	return globalValidator
}

// ValidateConfiguration validates a configuration using the global validator.
func ValidateConfiguration(config *Config) error {
	return GetValidator().ValidateConfig(config)
}
