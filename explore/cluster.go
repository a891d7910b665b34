package explore

import (
	"context"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/liverscope/pkg/log"
	"github.com/YuminosukeSato/liverscope/preprocessing"
	"github.com/YuminosukeSato/liverscope/report"
	"github.com/YuminosukeSato/liverscope/sklearn/cluster"
	"github.com/YuminosukeSato/liverscope/visualize"
)

// ClusterResult compares unsupervised k-means groups with the treatment
// grouping.
type ClusterResult struct {
	Labels      []int
	Contingency *mat.Dense
	ARI         float64
	Inertia     float64
	PlotPath    string
}

// Cluster runs k-means on the PCA scores and cross-tabulates the clusters
// against the configured target.
func (e *Explorer) Cluster(ctx context.Context) (*ClusterResult, error) {
	pca, err := e.PCA(ctx)
	if err != nil {
		return nil, err
	}
	res := &ClusterResult{}
	err = e.step(log.PhaseEvaluation, func(logger log.Logger) error {
		n, _ := pca.Scores.Dims()
		k := e.cfg.Clusters
		if k > n {
			k = n
		}
		km := cluster.NewKMeans(
			cluster.WithKMeansNClusters(k),
			cluster.WithKMeansRandomState(e.cfg.Seed),
			cluster.WithKMeansNJobs(e.cfg.Jobs),
		)
		labels, err := km.FitPredict(pca.Scores)
		if err != nil {
			return err
		}
		res.Labels = labels
		res.Inertia = km.Inertia()

		enc := preprocessing.NewLabelEncoder()
		codes, err := enc.FitTransform(e.data.Labels(e.Target()))
		if err != nil {
			return err
		}
		if res.Contingency, err = cluster.ContingencyMatrix(codes, res.Labels, len(enc.Classes), k); err != nil {
			return err
		}
		res.ARI = cluster.AdjustedRandIndex(res.Contingency)
		logger.Info("clusters fitted",
			log.ModelNameKey, "KMeans",
			log.ClassesKey, k,
			log.TargetKey, e.cfg.Target,
			"inertia", res.Inertia,
			"ari", res.ARI,
		)

		names := make([]string, k)
		for i := range names {
			names[i] = fmt.Sprintf("cluster %d", i+1)
		}
		if err := e.section("Clusters vs "+e.cfg.Target, func(w io.Writer) error {
			if err := report.WriteConfusion(w, res.Contingency, enc.Classes, names); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "adjusted Rand index\t%.3f\n", res.ARI)
			return err
		}); err != nil {
			return err
		}

		if pca.Model.NComponents() >= 2 {
			groups := make([]string, n)
			for i, c := range res.Labels {
				groups[i] = names[c]
			}
			p, err := visualize.Scatter2D(pca.Scores, groups, visualize.ScatterOptions{
				Title:         fmt.Sprintf("k-means (k=%d) on PCA scores", k),
				VarianceRatio: pca.Model.ExplainedVarianceRatio,
			})
			if err != nil {
				return err
			}
			res.PlotPath = e.cfg.PlotPath("clusters")
			if err := visualize.Save(p, res.PlotPath, visualize.DefaultSize, visualize.DefaultSize); err != nil {
				return err
			}
			logger.Info("plot written", log.OperationKey, log.OperationPlot, log.PathKey, res.PlotPath)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
