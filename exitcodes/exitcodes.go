// Package exitcodes defines the standard exit codes used by op-golden.
package exitcodes

// Exit code constants used by op-golden
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when every file matches its baseline
// * TestFailure (1): Used when any file changed, timed out, failed to spawn or went missing
// * RuntimeErr (2): Used for runtime errors such as a corrupt database or bad configuration
const (
	Success     = 0 // Every comparison unchanged (or recorded)
	TestFailure = 1 // Changed, timed-out, spawn-failed or missing files
	RuntimeErr  = 2 // Runtime errors: configuration, database, I/O
)
