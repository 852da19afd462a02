package log

// Model and operation context.
const (
	// ModelNameKey identifies the model type, e.g. "RandomForestRegressor".
	ModelNameKey = "model.name"

	// CandidateKey is the display name of a candidate in a training run.
	CandidateKey = "model.candidate"

	// OperationKey is the operation being performed, see Operation* values.
	OperationKey = "ml.operation"

	// ComponentKey is the package or subsystem emitting the record.
	ComponentKey = "ml.component"

	// PhaseKey is the lifecycle phase, see Phase* values.
	PhaseKey = "ml.phase"

	// RunIDKey correlates every record of one CLI invocation.
	RunIDKey = "run.id"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	TargetKey   = "data.target"
	PathKey     = "data.path"
	TrainKey    = "data.train_samples"
	TestKey     = "data.test_samples"
)

// Performance and metrics.
const (
	DurationMsKey = "perf.duration_ms"
	R2ScoreKey    = "metrics.r2_score"
	RMSEKey       = "metrics.rmse"
	MAEKey        = "metrics.mae"
	TreesKey      = "forest.n_estimators"
	WorkersKey    = "forest.workers"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	ErrorTypeKey  = "error.type"
	StacktraceKey = "error.stacktrace"
)

// Configuration.
const (
	RandomSeedKey  = "config.random_seed"
	HyperParamsKey = "model.hyperparams"
)

const (
	OperationLoad         = "load"
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"
	OperationReport       = "report"

	PhaseLoading       = "loading"
	PhasePreprocessing = "preprocessing"
	PhaseTraining      = "training"
	PhaseTesting       = "testing"
	PhaseInference     = "inference"
	PhaseReporting     = "reporting"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorSchemaMismatch    = "SCHEMA_MISMATCH"
	ErrorMissingColumn     = "MISSING_COLUMN"
	ErrorInvalidParameter  = "INVALID_PARAMETER"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
	ErrorCandidateFailed   = "CANDIDATE_FAILED"
)
