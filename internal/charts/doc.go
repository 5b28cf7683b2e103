// Package charts renders the dashboard charts as PNG images.
//
// Bar and pie charts are drawn with go-chart. The correlation heatmap is
// painted directly onto an RGBA canvas so every cell can carry its
// annotation. A chart that cannot be drawn from the dataset returns a
// *Warning instead of an image; RenderAll collects those next to the
// images that did render.
package charts
