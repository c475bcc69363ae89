// Package dynamo provides the shared primitives of the jar simulation.
//
// The package sits below every simulation component and defines the values
// that cross component boundaries:
//
//   - [Sample]: per-frame summary produced by the jar
//   - [Metric]: accumulates a scalar over a run of samples
//   - [Observer]: receives every sample as it is produced
//   - sentinel errors returned by configuration and run validation
//
// # Example
//
//	runner := sim.New(config.DefaultConfig())
//	runner.AddObserver(observer)
//	result, _ := runner.Run(ctx, sim.RunConfig{FPS: 60, Duration: 10})
//	fmt.Println(result.Metrics["peak_live"])
//
// # Thread Safety
//
// Nothing in a jar is safe for concurrent use. Independent jars may run in
// parallel; see sim.Ensemble.
package dynamo
