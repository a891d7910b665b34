// Package liverscope explores gene expression in rat livers exposed to
// acetaminophen.
//
// The dataset pairs 3,116 expression features for 64 rats with ten clinical
// chemistry markers, per-rat dose and time-after-dose, and an identifier
// table mapping expression columns to GenBank accessions and gene titles.
//
// # Packages
//
//   - dataset: reads the four tables and aligns them on subject id
//   - preprocessing: mean imputation, scaling and label encoding
//   - sklearn/decomposition: PCA with explained variance and loadings
//   - sklearn/linear_model, sklearn/svm: binary logistic regression and
//     linear SVM
//   - sklearn/multiclass: one-vs-rest wrapping of the binary models
//   - sklearn/model_selection: stratified train/test splits
//   - sklearn/cluster: k-means and contingency tables
//   - metrics: ROC curves, AUC and confusion matrices
//   - visualize: scatter, 3D projection, scree, pairs and ROC plots
//   - report: text tables and Parquet exports
//   - explore: the analysis steps tied together
//
// # Quick Start
//
// The liverscope command runs every step over a data directory:
//
//	liverscope run --data-dir data --out-dir out --target dose --model logistic
//
// Configuration comes from LIVERSCOPE_* environment variables (and an
// optional .env file), overridden by flags. From Go:
//
//	cfg := config.Default()
//	cfg.DataDir = "data"
//	e, err := explore.New(cfg)
//	if err != nil {
//	    return err
//	}
//	res, err := e.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Classify.ROC.Macro.AUC)
//
// # Error Handling
//
// Errors are typed (ValidationError, ValueError, DimensionError,
// NotFittedError, DataFileError, AlignmentError) and wrap with stack traces
// via pkg/errors. Non-fatal conditions such as a solver stopping before
// convergence or an undefined AUC are raised as warnings through
// errors.Warn.
package liverscope
