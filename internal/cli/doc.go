// Package cli implements the sysrpc command-line interface.
//
// # Command Structure
//
// The root command "sysrpc" runs the presence loop until interrupted:
//
//	sysrpc [flags]          - Publish host stats to Discord Rich Presence
//	sysrpc sample [--json]  - Print one sample and every rendered page
//	sysrpc version          - Print build information
//
// # Wiring
//
// The root command resolves a config.Config from its flags, then builds a
// sampler.Sampler over gopsutil, a pages.Rotator for the selected pages and
// a presence sink. The sink is a presence.Publisher talking to the local
// Discord client, or a presence.Console when --console is set or the client
// id is empty. A scheduler.Loop drives them until SIGINT or SIGTERM, after
// which the sink is closed best effort and the process exits 0.
//
// # Errors
//
// Every error returned to Execute is rendered with its suggestion and the
// process exits 1. Flag parsing errors are reported as CONFIG errors.
package cli
