// Package types defines the tracker record types, natural-key normalization,
// calendar dates, review statuses, and standard errors shared by the plansync
// pipelines.
package types
