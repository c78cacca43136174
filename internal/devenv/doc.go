// Package devenv defines the persisted data model for development environments.
//
// An EnvironmentRecord (Record) is tracked per project identity. The record's
// ID is the current container name and may change through a rename without
// affecting the ProjectID key under which the record is stored.
//
// State is the whole persisted document:
//
//	{
//	  "version": 1,
//	  "envs":   { "<projectId>": Record },
//	  "routes": { "<projectId>": RouteRecord }
//	}
//
// It is always read and written as a unit; see package state.
package devenv
