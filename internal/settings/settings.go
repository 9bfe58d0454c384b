// Package settings loads TranslationSettings. Settings are read fresh for every
// orchestration run so edits take effect without a restart.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pricofy/catalog-translator/internal/domain"
)

// APIKeyEnv overrides the api key stored in the settings file.
const APIKeyEnv = "TRANSLATOR_API_KEY"

// Default languages applied to blank settings.
const (
	DefaultSourceLang = "en"
	DefaultTargetLang = "fr"
)

// Source provides the current settings.
type Source interface {
	Load(ctx context.Context) (domain.TranslationSettings, error)
}

// FileSource reads settings from a YAML file on every Load. A missing file
// yields the defaults.
type FileSource struct {
	Path   string
	Getenv func(string) string
}

// NewFileSource creates a FileSource reading the process environment.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path, Getenv: os.Getenv}
}

func (f *FileSource) Load(ctx context.Context) (domain.TranslationSettings, error) {
	if err := ctx.Err(); err != nil {
		return domain.TranslationSettings{}, err
	}

	var s domain.TranslationSettings
	if f.Path != "" {
		data, err := os.ReadFile(f.Path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return s, fmt.Errorf("read settings: %w", err)
		default:
			if err := yaml.Unmarshal(data, &s); err != nil {
				return s, &domain.ConfigError{Field: "settings", Reason: err.Error()}
			}
		}
	}

	if f.Getenv != nil {
		if key := strings.TrimSpace(f.Getenv(APIKeyEnv)); key != "" {
			s.APIKey = key
		}
	}

	s = Sanitize(s)
	return s, Validate(s)
}

// Static always returns the same settings, sanitized and validated.
type Static domain.TranslationSettings

func (s Static) Load(context.Context) (domain.TranslationSettings, error) {
	out := Sanitize(domain.TranslationSettings(s))
	return out, Validate(out)
}

// Sanitize applies the defaults of the settings form: unknown provider means
// openai, blank languages fall back to en and fr, and the batch size is
// clamped to [1,50].
func Sanitize(s domain.TranslationSettings) domain.TranslationSettings {
	s.Provider = domain.Provider(strings.ToLower(strings.TrimSpace(string(s.Provider))))
	if !s.Provider.Valid() {
		s.Provider = domain.ProviderOpenAI
	}
	s.APIKey = strings.TrimSpace(s.APIKey)
	s.SourceLang = strings.TrimSpace(s.SourceLang)
	if s.SourceLang == "" {
		s.SourceLang = DefaultSourceLang
	}
	s.TargetLang = strings.TrimSpace(s.TargetLang)
	if s.TargetLang == "" {
		s.TargetLang = DefaultTargetLang
	}
	s.Model = strings.TrimSpace(s.Model)

	if s.BatchSize < 0 {
		s.BatchSize = -s.BatchSize
	}
	switch {
	case s.BatchSize == 0:
		s.BatchSize = domain.DefaultBatchSize
	case s.BatchSize > domain.MaxBatchSize:
		s.BatchSize = domain.MaxBatchSize
	}
	return s
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidLanguage reports whether code is a BCP 47 language tag.
func ValidLanguage(code string) bool {
	return validate.Var(code, "bcp47_language_tag") == nil
}

// Validate reports the first invalid field as a ConfigError.
func Validate(s domain.TranslationSettings) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &domain.ConfigError{Field: fe.Field(), Reason: reason(fe)}
	}
	return &domain.ConfigError{Field: "settings", Reason: err.Error()}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "bcp47_language_tag":
		return fmt.Sprintf("%q is not a language code", fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "min", "max":
		return fmt.Sprintf("must be between %d and %d", domain.MinBatchSize, domain.MaxBatchSize)
	default:
		return fe.Tag()
	}
}
