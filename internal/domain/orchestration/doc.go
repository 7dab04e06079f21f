/*
Package orchestration reads deployment state owned by the external
orchestrator.

The resolver asks a StateSource for the installation path of a managed
target. Three sources exist:

  - HTTPSource queries GET <url>/state, one attempt per call, behind a
    circuit breaker so a dead orchestrator fails joins fast
  - FileSource parses a YAML, TOML or JSON file on every call
  - StaticSource serves a fixed map

All of them return a State mapping target names to AppState entries:

	dashboard:
	  version: 1.4.2
	  status: running
	  installation_path: /opt/apps/dashboard
	  binary: dashboard-server
	  env:
	    LOG_FORMAT: plain
*/
package orchestration
