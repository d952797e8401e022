// Package services holds cross-cutting helpers for lavra's external
// collaborators: error classification markers and context annotations shared
// by stage handlers and logging.
package services
