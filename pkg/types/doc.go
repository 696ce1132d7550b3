/*
Package types defines the data structures shared across lookout.

The types in this package form the gateway's wire and domain model: the
credential pairs read from configuration, the reconciled server view returned
by the inventory, and the response envelope with its error-code table.

# Core Types

Configuration input:
  - Credential: username and password (plaintext or canonical hash)
  - Contact: operator contact details echoed by GET /hello

Inventory:
  - ServerView: id, name, address, uptime and last update of one server
  - ServerID: content-addressed identity derived from address and name
  - OfflineUptime: the -1 sentinel for servers absent from the live snapshot

API contract:
  - Envelope: {"errorCode": <int>, "data": <object|array|null>}
  - ErrorCode: the numeric error-code table shared with clients

# Server Identity

A server has no primary key in the metrics store. Two independently fetched
snapshots (the historical series registry and the live instant query) are
merged by deriving the identity from the label values themselves:

	id = UUIDv5(namespace, address + "-" + name)

The same (address, name) pair always yields the same id, so merging is a map
update rather than a join.

# Error Codes

	0  Success
	1  NoAuthentication
	2  UnknownUser
	3  IncorrectPassword
	4  UnknownRoute
	5  UncaughtServerError
	6  ExampleData
	7  NoParameters
	8  MissingParameter
	9  ServerNotFound
	10 InvalidParameter
	11 ServerOffline

The numeric values are part of the client contract and must never be
renumbered.
*/
package types
