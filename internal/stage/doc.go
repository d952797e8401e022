// Package stage defines the handler contract shared by lavra's pipeline
// stages and the health records they report.
package stage
