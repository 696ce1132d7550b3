/*
Package api implements the lookout HTTP API: route table, request dispatcher,
handlers and listeners.

Clients talk to the gateway over HTTP/1.1 with Basic authentication. Every
response, success or failure, is a JSON envelope:

	{"errorCode": <int>, "data": <object|array|null>}

# Architecture

	┌──────────────────── API LISTENER ─────────────────────────┐
	│                                                            │
	│  chi router (RequestID, RealIP, access log)                │
	│    /hello /server /servers /service  ─┐                    │
	│    NotFound / MethodNotAllowed ───────┤                    │
	│                                       ▼                    │
	│  ┌──────────────────── Dispatcher ────────────────────┐    │
	│  │  1. acquire slot (semaphore, default 1)            │    │
	│  │  2. authenticate (Basic, CredentialStore)          │    │
	│  │  3. route (RouteTable.Lookup)                      │    │
	│  │  4. handle (HandlerFunc -> Outcome | error)        │    │
	│  │  5. write exactly one envelope                     │    │
	│  │  6. release slot, signal Done in run-once mode     │    │
	│  └────────────────────────────────────────────────────┘    │
	└────────────────────────────────────────────────────────────┘

	┌──────────────────── OPS LISTENER ─────────────────────────┐
	│  /metrics  /livez  /readyz  /healthz   (no auth)           │
	└────────────────────────────────────────────────────────────┘

# Routes

	GET  /hello                              user, version, contact
	GET  /servers                            every known server
	GET  /server?id=<uuid>                   one server
	POST /server?id=<uuid>&action=<a>        reboot | shutdown | wake
	POST /service?server=<uuid>&name=<n>&action=<a>
	                                         start | stop | restart

The route table is built once from Handlers.Endpoints. A missing descriptor or
a repeated (method, path) pair fails startup.

# Status Mapping

	no or malformed Authorization   401  NoAuthentication (1)
	unknown user                    401  UnknownUser (2)
	wrong password                  401  IncorrectPassword (3)
	unknown method or path          404  UnknownRoute (4)
	handler error or panic          500  UncaughtServerError (5), data null
	empty query string              400  NoParameters (7), data null
	missing parameter               400  MissingParameter (8), {"parameter": name}
	invalid parameter               400  InvalidParameter (10), {"parameter": name}
	no such server                  404  ServerNotFound (9), {"id": id}
	action needs an online server   409  ServerOffline (11), {"id": id}
	action acknowledged             200  ExampleData (6)

Every 401 carries one WWW-Authenticate: Basic realm="<realm>" header.
Authentication runs before routing, so an unauthenticated request for an
unknown path gets 401, not 404.

Handler errors are logged with full detail. The client only sees code 5.

# Handlers

A handler returns an Outcome for anything the client caused and an error for
anything it did not:

	func (h *Handlers) GetServer(ctx context.Context, req *Request) (Outcome, error) {
		if out, ok := RequireParams(req.Query, "id"); !ok {
			return out, nil
		}
		...
	}

Power and service actions are acknowledged with ExampleData; the gateway does
not carry them out.

# Concurrency

The dispatcher holds a weighted semaphore around the whole lifecycle.
maxConcurrentRequests defaults to 1, which serves requests strictly one at a
time. The route table and credential store are read-only, so raising the
limit is safe.

# Run-once Mode

With runOnce set, the dispatcher closes Done after the first response and
Server.Run shuts both listeners down and returns.
*/
package api
