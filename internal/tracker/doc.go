// Package tracker defines the observation model and the ports shared by the
// fetcher, extractor and recorder, and implements the search flow that ties
// them together.
package tracker
