// Package app provides the application context for devenv-ctl.
//
// This package manages application-wide dependencies using the functional
// options pattern, enabling easy testing through dependency injection.
// There is no package-level instance: the command layer builds one App per
// process and passes it down through the command context.
//
// # Creating an App
//
// Use New with functional options:
//
//	// Production usage
//	a, err := app.New()
//
//	// Testing with custom dependencies
//	a, err := app.New(
//	    app.WithPaths(config.PathsFor(tmpHome)),
//	    app.WithProvider(runtime.NewMockProvider()),
//	)
//
// # Available Options
//
//	WithPaths(paths)       // Custom path configuration
//	WithFS(fs)             // Custom filesystem
//	WithExecutor(exec)     // Custom command executor
//	WithProvider(provider) // Custom container provider
//	WithMetrics(recorder)  // Shared metrics recorder
//
// # Context
//
//	ctx = app.WithContext(ctx, a)
//	a, ok := app.FromContext(ctx)
package app
