// Package log defines standard attribute keys for analysis operations.
//
// Using these keys keeps log lines from the loader, PCA, classifiers and the
// CLI consistent, so a run can be followed by filtering on a single key
// (e.g. "run.id" or "ml.operation").
//
// The attributes are organized into categories:
//   - Model and Operation Context
//   - Data Shape and Characteristics
//   - Performance and Evaluation Metrics
//   - Error Context
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples").

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "PCA", "LogisticRegression", "LinearSVC", "StandardScaler"
	ModelNameKey = "model.name"

	// EstimatorIDKey identifies one estimator instance, e.g. the class an
	// OvR member was fitted for.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "fit_transform", "score", "load"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "dataset", "decomposition", "metrics", "visualize"
	ComponentKey = "ml.component"

	// PhaseKey indicates the analysis phase.
	PhaseKey = "ml.phase"

	// RunIDKey carries the uuid assigned to one CLI invocation.
	RunIDKey = "run.id"

	// TargetKey names the grouping being classified ("dose" or "time").
	TargetKey = "ml.target"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of subjects (rows).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns).
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of distinct class labels.
	ClassesKey = "data.classes"

	// ComponentsKey indicates the number of principal components kept.
	ComponentsKey = "data.components"

	// PathKey records an input or output file path.
	PathKey = "data.path"

	// TableKey names one of the input tables.
	// Examples: "expression", "clinical", "treatment", "genes"
	TableKey = "data.table"
)

// Performance and Evaluation Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy.
	AccuracyKey = "metrics.accuracy"

	// AUCKey records an area under the ROC curve.
	AUCKey = "metrics.auc"

	// LossKey records a loss value during training.
	LossKey = "metrics.loss"

	// ExplainedVarianceKey records the cumulative explained variance ratio.
	ExplainedVarianceKey = "metrics.explained_variance"

	// IterationKey records the current iteration number.
	IterationKey = "training.iteration"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"

	// SuggestionKey provides a hint for resolving an issue.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"
	OperationLoad         = "load"
	OperationPlot         = "plot"
	OperationExport       = "export"

	PhaseLoading       = "loading"
	PhasePreprocessing = "preprocessing"
	PhaseReduction     = "reduction"
	PhaseTraining      = "training"
	PhaseEvaluation    = "evaluation"
	PhaseReporting     = "reporting"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorAlignment         = "TABLE_ALIGNMENT"
)
