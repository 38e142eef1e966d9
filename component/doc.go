// Package component defines the lifecycle and health contracts shared by
// sensorlink's long-running components.
//
// Lifecycle follows a single pattern:
//   - Initialize() error                  // setup only, no context
//   - Start(ctx context.Context) error    // begin work, context passed through
//   - Stop(timeout time.Duration) error   // graceful shutdown with bound
//
// Components never store the context they receive; it is a parameter of
// Start and flows into the goroutines Start launches.
package component
