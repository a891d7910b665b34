// Package config loads run settings from the environment (and an optional
// .env file) and validates them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/joho/godotenv"

	"github.com/YuminosukeSato/liverscope/dataset"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// EnvPrefix prefixes every environment key read by Load.
const EnvPrefix = "LIVERSCOPE_"

// Config holds all run configuration.
type Config struct {
	DataDir string `name:"data_dir" validate:"required"`
	OutDir  string `name:"out_dir" validate:"required"`

	ExpressionFile string `name:"expression_file" validate:"required"`
	ClinicalFile   string `name:"clinical_file" validate:"required"`
	TreatmentFile  string `name:"treatment_file" validate:"required"`
	GenesFile      string `name:"genes_file" validate:"required"`
	// Delimiter is "auto" (from the extension), "tab" or "comma".
	Delimiter string `name:"delimiter" validate:"oneof=auto tab comma"`

	DoseColumn       string `name:"dose_column" validate:"required"`
	TimeColumn       string `name:"time_column" validate:"required"`
	IndividualColumn string `name:"individual_column"`

	// Components is the number of principal components kept for plots and
	// reports; 0 keeps min(n, p).
	Components  int `name:"components" validate:"gte=0"`
	TopLoadings int `name:"top_loadings" validate:"gte=1"`

	Target               string  `name:"target" validate:"oneof=dose time dose_time"`
	Model                string  `name:"model" validate:"oneof=logistic svm"`
	Features             string  `name:"features" validate:"oneof=pca expression"`
	ClassifierComponents int     `name:"classifier_components" validate:"gte=1"`
	TestSize             float64 `name:"test_size" validate:"gt=0,lt=1"`
	C                    float64 `name:"c" validate:"gt=0"`
	MaxIter              int     `name:"max_iter" validate:"gte=1"`

	Clusters int `name:"clusters" validate:"gte=1"`
	// Alpha is the ridge penalty for regressing clinical markers on
	// principal components.
	Alpha float64 `name:"alpha" validate:"gte=0"`

	// SizeBy names a clinical marker mapped to glyph radius; empty keeps a
	// fixed radius.
	SizeBy     string  `name:"size_by"`
	Azimuth    float64 `name:"azimuth" validate:"gte=-360,lte=360"`
	Elevation  float64 `name:"elevation" validate:"gte=-90,lte=90"`
	PlotFormat string  `name:"plot_format" validate:"oneof=png svg pdf eps"`

	Seed     int64  `name:"seed"`
	Jobs     int    `name:"jobs" validate:"gte=0"`
	Progress bool   `name:"progress"`
	LogLevel string `name:"log_level" validate:"oneof=debug info warn error"`
	// LogFormat is "pretty" (console) or "json".
	LogFormat string `name:"log_format" validate:"oneof=pretty json"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		DataDir:              "data",
		OutDir:               "out",
		ExpressionFile:       dataset.ExpressionFile,
		ClinicalFile:         dataset.ClinicalFile,
		TreatmentFile:        dataset.TreatmentFile,
		GenesFile:            dataset.GenesFile,
		Delimiter:            "auto",
		DoseColumn:           "dose",
		TimeColumn:           "time",
		IndividualColumn:     "individual",
		Components:           10,
		TopLoadings:          10,
		Target:               string(dataset.TargetDose),
		Model:                "logistic",
		Features:             "pca",
		ClassifierComponents: 10,
		TestSize:             0.25,
		C:                    1.0,
		MaxIter:              1000,
		Clusters:             4,
		Alpha:                1.0,
		Azimuth:              -60,
		Elevation:            30,
		PlotFormat:           "png",
		Seed:                 0,
		Jobs:                 0,
		Progress:             true,
		LogLevel:             "info",
		LogFormat:            "pretty",
	}
}

// Load reads configuration from LIVERSCOPE_* environment variables on top of
// Default. envFiles are loaded first (".env" when none is given); a missing
// file is not an error. Malformed numbers are.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "load %s", f)
		}
	}

	cfg := Default()
	env := envReader{}
	cfg.DataDir = env.str("DATA_DIR", cfg.DataDir)
	cfg.OutDir = env.str("OUT_DIR", cfg.OutDir)
	cfg.ExpressionFile = env.str("EXPRESSION_FILE", cfg.ExpressionFile)
	cfg.ClinicalFile = env.str("CLINICAL_FILE", cfg.ClinicalFile)
	cfg.TreatmentFile = env.str("TREATMENT_FILE", cfg.TreatmentFile)
	cfg.GenesFile = env.str("GENES_FILE", cfg.GenesFile)
	cfg.Delimiter = strings.ToLower(env.str("DELIMITER", cfg.Delimiter))
	cfg.DoseColumn = env.str("DOSE_COLUMN", cfg.DoseColumn)
	cfg.TimeColumn = env.str("TIME_COLUMN", cfg.TimeColumn)
	cfg.IndividualColumn = env.str("INDIVIDUAL_COLUMN", cfg.IndividualColumn)
	cfg.Components = env.integer("COMPONENTS", cfg.Components)
	cfg.TopLoadings = env.integer("TOP_LOADINGS", cfg.TopLoadings)
	cfg.Target = strings.ToLower(env.str("TARGET", cfg.Target))
	cfg.Model = strings.ToLower(env.str("MODEL", cfg.Model))
	cfg.Features = strings.ToLower(env.str("FEATURES", cfg.Features))
	cfg.ClassifierComponents = env.integer("CLASSIFIER_COMPONENTS", cfg.ClassifierComponents)
	cfg.TestSize = env.number("TEST_SIZE", cfg.TestSize)
	cfg.C = env.number("C", cfg.C)
	cfg.MaxIter = env.integer("MAX_ITER", cfg.MaxIter)
	cfg.Clusters = env.integer("CLUSTERS", cfg.Clusters)
	cfg.Alpha = env.number("ALPHA", cfg.Alpha)
	cfg.SizeBy = env.str("SIZE_BY", cfg.SizeBy)
	cfg.Azimuth = env.number("AZIMUTH", cfg.Azimuth)
	cfg.Elevation = env.number("ELEVATION", cfg.Elevation)
	cfg.PlotFormat = strings.ToLower(env.str("PLOT_FORMAT", cfg.PlotFormat))
	cfg.Seed = int64(env.integer("SEED", int(cfg.Seed)))
	cfg.Jobs = env.integer("JOBS", cfg.Jobs)
	cfg.Progress = env.boolean("PROGRESS", cfg.Progress)
	cfg.LogLevel = strings.ToLower(env.str("LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(env.str("LOG_FORMAT", cfg.LogFormat))
	if env.err != nil {
		return nil, env.err
	}
	return cfg, nil
}

// envReader collects the first parse failure so Load can read every key
// before reporting.
type envReader struct {
	err error
}

func (r *envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *envReader) str(key, fallback string) string {
	if v, ok := r.lookup(key); ok {
		return v
	}
	return fallback
}

func (r *envReader) fail(key, v string, err error) {
	if r.err == nil {
		r.err = errors.NewValidationError(EnvPrefix+key, err.Error(), v)
	}
}

func (r *envReader) integer(key string, fallback int) int {
	v, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return fallback
	}
	return n
}

func (r *envReader) number(key string, fallback float64) float64 {
	v, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, err)
		return fallback
	}
	return f
}

func (r *envReader) boolean(key string, fallback bool) bool {
	v, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return fallback
	}
	return b
}

var (
	validate *govalidator.Validate
	trans    ut.Translator
)

func init() {
	validate = govalidator.New(govalidator.WithRequiredStructEnabled())
	// Report fields by their snake_case name, matching flags and env keys.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("name"); name != "" {
			return name
		}
		return fld.Name
	})
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, trans)
}

// Validate checks every field and returns a ValidationError naming the
// failing fields.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var ve govalidator.ValidationErrors
	if !errors.As(err, &ve) {
		return errors.Wrap(err, "validate config")
	}
	fields := make([]string, 0, len(ve))
	messages := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fe.Field())
		messages = append(messages, fe.Translate(trans))
	}
	sort.Strings(messages)
	return errors.NewValidationError(strings.Join(fields, ","), strings.Join(messages, "; "), fmt.Sprint(ve[0].Value()))
}

// Files returns the four input paths.
func (c *Config) Files() dataset.Files {
	return dataset.Files{
		Expression: filepath.Join(c.DataDir, c.ExpressionFile),
		Clinical:   filepath.Join(c.DataDir, c.ClinicalFile),
		Treatment:  filepath.Join(c.DataDir, c.TreatmentFile),
		Genes:      filepath.Join(c.DataDir, c.GenesFile),
	}
}

// Comma returns the configured delimiter; 0 means pick by file extension.
func (c *Config) Comma() rune {
	switch c.Delimiter {
	case "tab":
		return '\t'
	case "comma":
		return ','
	}
	return 0
}

// LoadOptions converts the configuration into dataset.LoadOptions.
func (c *Config) LoadOptions() dataset.LoadOptions {
	return dataset.LoadOptions{
		Comma: c.Comma(),
		Treatment: dataset.TreatmentOptions{
			DoseColumn:       c.DoseColumn,
			TimeColumn:       c.TimeColumn,
			IndividualColumn: c.IndividualColumn,
		},
	}
}

// PlotPath joins name with OutDir and the configured plot format.
func (c *Config) PlotPath(name string) string {
	return filepath.Join(c.OutDir, name+"."+c.PlotFormat)
}
