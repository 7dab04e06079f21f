/*
Package resilience provides a circuit breaker for collaborator calls.

The relay consults the orchestration service while resolving a terminal
target. When that service is down every join would otherwise wait out the
full query timeout; the breaker turns repeated failures into an immediate
ErrCircuitOpen so joins fail fast with a not-found reason.

# Usage

	breaker := resilience.New("orchestration", resilience.Settings{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	})

	state, err := resilience.Execute(breaker, func() (State, error) {
		return client.fetch(ctx)
	})

# States

	Closed --[threshold failures]-> Open --[cooldown]-> Half-Open --[trial ok]-> Closed
	                                                        |
	                                                 [trial failed]
	                                                        v
	                                                      Open
*/
package resilience
