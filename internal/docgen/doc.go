// Package docgen implements the pipeline stage that drafts the judicial
// sentence (relatório, fundamentação, dispositivo) from the extracted case
// data and assembles the final Markdown artifact.
package docgen
