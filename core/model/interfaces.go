// Package model provides the interfaces and shared state types for estimators.
package model

import "gonum.org/v1/gonum/mat"

// Fitter は教師あり学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる。y は n×1 のクラスコード列
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は n×1 の予測クラスコードを返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// DecisionFunctioner exposes continuous per-class scores used for ROC curves.
type DecisionFunctioner interface {
	// DecisionFunction returns an n×k score matrix (n×1 for binary models).
	DecisionFunction(X mat.Matrix) (mat.Matrix, error)
}

// Classifier combines the interfaces every classifier in this module provides.
type Classifier interface {
	Fitter
	Predictor
	DecisionFunctioner

	// Classes returns the sorted class codes seen during fitting.
	Classes() []int
}

// ProbabilisticClassifier is a Classifier that can also estimate class
// membership probabilities.
type ProbabilisticClassifier interface {
	Classifier

	// PredictProba returns an n×k probability matrix whose rows sum to 1.
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// BinaryClassifier is the member type wrapped by one-vs-rest: Fit receives
// 0/1 labels and DecisionFunction returns an n×1 score column where larger
// means "more likely positive".
type BinaryClassifier interface {
	Fitter
	DecisionFunctioner
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}
