// Package chart maintains the dashboard's two live visualisations: the fleet
// distribution, overwritten on every status update, and a rolling metrics
// series bounded to a fixed window. Rendering goes to optional surfaces; when
// a surface is missing the update is skipped and reported as not rendered.
package chart
