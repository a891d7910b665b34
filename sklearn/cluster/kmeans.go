// Package cluster provides k-means clustering and helpers for comparing a
// clustering with known groups.
package cluster

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/core/model"
	"github.com/YuminosukeSato/liverscope/core/parallel"
	"github.com/YuminosukeSato/liverscope/pkg/errors"
)

// KMeans は Lloyd 法による K-means クラスタリング
// 初期化は k-means++、nInit 回の試行で慣性が最小の結果を採用する。
type KMeans struct {
	state *model.StateManager

	// ハイパーパラメータ
	nClusters   int
	init        string // "k-means++" or "random"
	maxIter     int
	nInit       int
	tol         float64 // 中心移動量の二乗和がこれ未満で収束
	randomState int64
	nJobs       int

	// 学習パラメータ
	clusterCenters_ [][]float64
	labels_         []int
	inertia_        float64
	nIter_          int
}

// KMeansOption はKMeansの設定オプション
type KMeansOption func(*KMeans)

// NewKMeans は新しいKMeansを作成
func NewKMeans(options ...KMeansOption) *KMeans {
	km := &KMeans{
		state:       model.NewStateManager(),
		nClusters:   8,
		init:        "k-means++",
		maxIter:     300,
		nInit:       10,
		tol:         1e-4,
		randomState: 0,
	}
	for _, opt := range options {
		opt(km)
	}
	return km
}

// WithKMeansNClusters はクラスタ数を設定
func WithKMeansNClusters(n int) KMeansOption {
	return func(km *KMeans) { km.nClusters = n }
}

// WithKMeansInit は初期化方法を設定
func WithKMeansInit(init string) KMeansOption {
	return func(km *KMeans) { km.init = init }
}

// WithKMeansMaxIter は最大イテレーション数を設定
func WithKMeansMaxIter(maxIter int) KMeansOption {
	return func(km *KMeans) { km.maxIter = maxIter }
}

// WithKMeansNInit は初期化の試行回数を設定
func WithKMeansNInit(n int) KMeansOption {
	return func(km *KMeans) { km.nInit = n }
}

// WithKMeansTol は収束判定の許容誤差を設定
func WithKMeansTol(tol float64) KMeansOption {
	return func(km *KMeans) { km.tol = tol }
}

// WithKMeansRandomState は乱数シードを設定
func WithKMeansRandomState(seed int64) KMeansOption {
	return func(km *KMeans) { km.randomState = seed }
}

// WithKMeansNJobs は割り当てステップの並列数を設定
func WithKMeansNJobs(n int) KMeansOption {
	return func(km *KMeans) { km.nJobs = n }
}

func (km *KMeans) validate() error {
	switch {
	case km.nClusters < 1:
		return errors.NewValidationError("n_clusters", "must be at least 1", km.nClusters)
	case km.init != "k-means++" && km.init != "random":
		return errors.NewValidationError("init", "must be 'k-means++' or 'random'", km.init)
	case km.maxIter < 1:
		return errors.NewValidationError("max_iter", "must be positive", km.maxIter)
	case km.nInit < 1:
		return errors.NewValidationError("n_init", "must be positive", km.nInit)
	}
	return nil
}

// Fit clusters the rows of X.
func (km *KMeans) Fit(X mat.Matrix) error {
	if err := km.validate(); err != nil {
		return err
	}
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("KMeans.Fit", "empty data", errors.ErrEmptyData)
	}
	if rows < km.nClusters {
		return errors.NewValueError("KMeans.Fit",
			fmt.Sprintf("n_samples=%d should be >= n_clusters=%d", rows, km.nClusters))
	}
	if err := errors.CheckMatrix("KMeans.Fit", X, rows, cols, 0); err != nil {
		return err
	}

	data := make([][]float64, rows)
	for i := range data {
		data[i] = mat.Row(nil, i, X)
	}

	rng := rand.New(rand.NewSource(km.randomState))
	bestInertia := math.Inf(1)
	converged := false
	for run := 0; run < km.nInit; run++ {
		centers, labels, inertia, nIter, ok := km.fitSingleRun(data, rng)
		if inertia < bestInertia {
			bestInertia = inertia
			km.clusterCenters_ = centers
			km.labels_ = labels
			km.nIter_ = nIter
			converged = ok
		}
	}
	km.inertia_ = bestInertia
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("KMeans", km.nIter_,
			"centers still moving; increase max_iter"))
	}

	km.state.SetFitted(rows, cols)
	return nil
}

// fitSingleRun は単一回の学習を実行
func (km *KMeans) fitSingleRun(data [][]float64, rng *rand.Rand) ([][]float64, []int, float64, int, bool) {
	centers := km.initializeCenters(data, rng)
	labels := make([]int, len(data))
	p := len(data[0])

	for iter := 1; iter <= km.maxIter; iter++ {
		km.assign(data, centers, labels)

		// 中心の更新
		sums := make([][]float64, km.nClusters)
		counts := make([]int, km.nClusters)
		for c := range sums {
			sums[c] = make([]float64, p)
		}
		for i, x := range data {
			floats.Add(sums[labels[i]], x)
			counts[labels[i]]++
		}
		shift := 0.0
		for c := range centers {
			if counts[c] == 0 {
				// 空クラスタは現在の中心から最も遠い点へ移す
				far := farthestPoint(data, centers, labels)
				copy(sums[c], data[far])
				counts[c] = 1
				labels[far] = c
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			d := floats.Distance(sums[c], centers[c], 2)
			shift += d * d
			centers[c] = sums[c]
		}
		if shift <= km.tol {
			km.assign(data, centers, labels)
			return centers, labels, inertia(data, centers, labels), iter, true
		}
	}
	km.assign(data, centers, labels)
	return centers, labels, inertia(data, centers, labels), km.maxIter, false
}

// assign は各サンプルを最近傍の中心に割り当てる
func (km *KMeans) assign(data, centers [][]float64, labels []int) {
	parallel.ParallelizeN(len(data), km.nJobs, func(start, end int) {
		for i := start; i < end; i++ {
			labels[i] = nearest(data[i], centers)
		}
	})
}

// initializeCenters はクラスタ中心を初期化
func (km *KMeans) initializeCenters(data [][]float64, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, km.nClusters)
	if km.init == "random" {
		for c, idx := range rng.Perm(len(data))[:km.nClusters] {
			centers[c] = append([]float64(nil), data[idx]...)
		}
		return centers
	}

	// k-means++: 既存中心までの距離の二乗に比例した確率で次の中心を選ぶ
	centers[0] = append([]float64(nil), data[rng.Intn(len(data))]...)
	dist := make([]float64, len(data))
	for c := 1; c < km.nClusters; c++ {
		total := 0.0
		for i, x := range data {
			d := floats.Distance(x, centers[nearest(x, centers[:c])], 2)
			dist[i] = d * d
			total += dist[i]
		}
		selected := rng.Intn(len(data))
		if total > 0 {
			target := rng.Float64() * total
			cum := 0.0
			for i, d := range dist {
				cum += d
				if cum >= target && d > 0 {
					selected = i
					break
				}
			}
		}
		centers[c] = append([]float64(nil), data[selected]...)
	}
	return centers
}

func nearest(x []float64, centers [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, center := range centers {
		if d := floats.Distance(x, center, 2); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func farthestPoint(data, centers [][]float64, labels []int) int {
	far, farDist := 0, -1.0
	for i, x := range data {
		if d := floats.Distance(x, centers[labels[i]], 2); d > farDist {
			far, farDist = i, d
		}
	}
	return far
}

func inertia(data, centers [][]float64, labels []int) float64 {
	total := 0.0
	for i, x := range data {
		d := floats.Distance(x, centers[labels[i]], 2)
		total += d * d
	}
	return total
}

// Predict returns an n×1 column with the nearest center of each row.
func (km *KMeans) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, cols := X.Dims()
	if err := km.state.RequireFeatures("KMeans", "Predict", cols); err != nil {
		return nil, err
	}
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, float64(nearest(mat.Row(nil, i, X), km.clusterCenters_)))
	}
	return out, nil
}

// Transform はデータをクラスタ中心との距離に変換
func (km *KMeans) Transform(X mat.Matrix) (mat.Matrix, error) {
	rows, cols := X.Dims()
	if err := km.state.RequireFeatures("KMeans", "Transform", cols); err != nil {
		return nil, err
	}
	out := mat.NewDense(rows, km.nClusters, nil)
	for i := 0; i < rows; i++ {
		x := mat.Row(nil, i, X)
		for c, center := range km.clusterCenters_ {
			out.Set(i, c, floats.Distance(x, center, 2))
		}
	}
	return out, nil
}

// FitPredict は学習と予測を同時に行い、学習データのラベルを返す
func (km *KMeans) FitPredict(X mat.Matrix) ([]int, error) {
	if err := km.Fit(X); err != nil {
		return nil, err
	}
	return km.Labels(), nil
}

// ClusterCenters は学習されたクラスタ中心を返す
func (km *KMeans) ClusterCenters() [][]float64 {
	centers := make([][]float64, len(km.clusterCenters_))
	for i := range km.clusterCenters_ {
		centers[i] = append([]float64(nil), km.clusterCenters_[i]...)
	}
	return centers
}

// Labels は学習データのクラスタラベルを返す
func (km *KMeans) Labels() []int { return append([]int(nil), km.labels_...) }

// Inertia は慣性（クラスタ内平方和誤差）を返す
func (km *KMeans) Inertia() float64 { return km.inertia_ }

// NIter は採用した試行のイテレーション数を返す
func (km *KMeans) NIter() int { return km.nIter_ }

// NClusters はクラスタ数を返す
func (km *KMeans) NClusters() int { return km.nClusters }

// IsFitted reports whether Fit has succeeded.
func (km *KMeans) IsFitted() bool { return km.state.IsFitted() }

// GetParams returns the hyperparameters.
func (km *KMeans) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_clusters":   km.nClusters,
		"init":         km.init,
		"max_iter":     km.maxIter,
		"n_init":       km.nInit,
		"tol":          km.tol,
		"random_state": km.randomState,
	}
}

func (km *KMeans) String() string {
	return fmt.Sprintf("KMeans(n_clusters=%d, init=%s, n_init=%d)", km.nClusters, km.init, km.nInit)
}
