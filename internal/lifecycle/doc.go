// Package lifecycle reconciles a project's dev environment.
//
// A Manager is bound to the project identity supplied by the host and the
// working tree it was started in. Ensure drives the provider and the state
// store through four ordered steps:
//
//  1. refresh the recorded status (migrating records kept under the raw id)
//  2. provision when there is no record or the container is gone
//  3. rename when the container name drifted from the desired one
//  4. bootstrap when the record is behind BootstrapVersion
//
// Every step persists its result before the next one runs. In the steady
// state Ensure performs a single provider inspection and no mutations.
//
// The state file is not locked. Two concurrent Ensure calls for the same
// project may both provision; callers that need at most one container per
// project must serialize Ensure themselves.
package lifecycle
