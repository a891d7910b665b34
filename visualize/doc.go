// Package visualize draws PCA scatter plots, ROC curves and scree plots with
// gonum/plot. Every builder returns a *plot.Plot (or a Grid of them) so the
// caller can tweak it before calling Save.
package visualize
