/*
Package resolver turns a logical target name into a CommandSpec.

Three kinds of target exist:

  - "shell": the user's $SHELL (or the configured default) as a login shell
  - builtins: configured name to command mappings, pointed at the
    companion service through COMPANION_ADDR
  - managed deployments: looked up in the orchestration state, then
    searched for on disk

For managed targets the binary is searched under the install path, then
<DevRoot>/<target>, each with every arch dir pattern, then in PATH. The
first executable regular file wins. Candidates and SelectCandidate are pure
so the ordering can be tested without a filesystem.

Errors are *ResolutionError and match ErrNotFound or ErrMissingBinary with
errors.Is.
*/
package resolver
