// Package inventory reconciles the servers known to the metrics store into a
// single list of server views.
//
// Two snapshots are merged. The historical registry lists every (instance,
// name) pair that ever reported the liveness metric; each starts offline with
// an uptime of -1. The live snapshot is an instant query of the same metric;
// each sample overwrites the uptime and last update of the matching server.
// Both sides compute the server id from the labels with types.ServerID, so the
// merge is a map update.
//
// Samples without a name label, and samples whose id is not in the registry,
// are logged and skipped. A sample value that is not a finite number aborts
// the whole request.
package inventory
