// Package model provides the shared data structures for the pipeline package.
// It describes the stages of a run and defines the observer contract that
// options such as measures, drawers and loggers implement.
package model
