/*
Package config loads the lookout configuration file.

The file is YAML. Keys that are absent keep the values from Default, unknown
keys are rejected, and the result is validated before the gateway starts.
Every validation failure wraps ErrInvalid.

	listen:
	  address: 0.0.0.0
	  port: 8080
	metricsAddr: 127.0.0.1:9100   # ops listener, empty disables it
	realm: lookout                # Basic auth realm
	maxConcurrentRequests: 1      # 1 = strictly serial dispatch
	runOnce: false                # serve one request, then exit
	shutdownTimeout: 10s
	contact:
	  name: ""
	  email: ""
	  url: ""
	prometheus:
	  url: http://127.0.0.1:9090
	  uptimeMetric: lookout_uptime_seconds
	  lookback: 0s                # 0 = registry covers all history
	  timeout: 10s
	  healthInterval: 30s
	  collectInterval: 1m         # 0 disables the inventory gauges
	credentials:
	  - username: admin
	    password: changeme        # hashed at startup, see "lookout hash"
	log:
	  level: info
	  json: false

Command-line flags of "lookout serve" override the listener, the ops
listener, run-once mode and logging after the file is loaded.
*/
package config
