package types

import (
	"time"

	"github.com/google/uuid"
)

// OfflineUptime marks a server that is known to the historical registry but
// has no sample in the live snapshot
const OfflineUptime int64 = -1

// serverNamespace scopes the name-based server identities
var serverNamespace = uuid.MustParse("6c6f6f6b-6f75-5400-8000-736572766572")

// Credential is a username/password pair as read from configuration.
// Password is either plaintext or a canonical hash string.
type Credential struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ServerView is the reconciled state of one monitored server
type ServerView struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Address       string     `json:"address"`
	UptimeSeconds int64      `json:"uptimeSeconds"`
	LastUpdate    *time.Time `json:"lastUpdate"`
}

// NewServerView creates a view for (address, name) in the offline state
func NewServerView(address, name string) *ServerView {
	return &ServerView{
		ID:            ServerID(address, name),
		Name:          name,
		Address:       address,
		UptimeSeconds: OfflineUptime,
	}
}

// Online reports whether the server appeared in the live snapshot
func (s *ServerView) Online() bool {
	return s.UptimeSeconds != OfflineUptime
}

// ServerID derives the content-addressed identity of a server.
// Identical (address, name) pairs always produce the same id.
func ServerID(address, name string) string {
	return uuid.NewSHA1(serverNamespace, []byte(address+"-"+name)).String()
}

// ErrorCode is the errorCode field of every API response envelope
type ErrorCode int

const (
	Success             ErrorCode = 0
	NoAuthentication    ErrorCode = 1
	UnknownUser         ErrorCode = 2
	IncorrectPassword   ErrorCode = 3
	UnknownRoute        ErrorCode = 4
	UncaughtServerError ErrorCode = 5
	ExampleData         ErrorCode = 6
	NoParameters        ErrorCode = 7
	MissingParameter    ErrorCode = 8
	ServerNotFound      ErrorCode = 9
	InvalidParameter    ErrorCode = 10
	ServerOffline       ErrorCode = 11
)

var errorCodeNames = map[ErrorCode]string{
	Success:             "Success",
	NoAuthentication:    "NoAuthentication",
	UnknownUser:         "UnknownUser",
	IncorrectPassword:   "IncorrectPassword",
	UnknownRoute:        "UnknownRoute",
	UncaughtServerError: "UncaughtServerError",
	ExampleData:         "ExampleData",
	NoParameters:        "NoParameters",
	MissingParameter:    "MissingParameter",
	ServerNotFound:      "ServerNotFound",
	InvalidParameter:    "InvalidParameter",
	ServerOffline:       "ServerOffline",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "Unknown"
}

// Envelope is the JSON body of every API response
type Envelope struct {
	ErrorCode ErrorCode `json:"errorCode"`
	Data      any       `json:"data"`
}

// Contact identifies the operator of a gateway
type Contact struct {
	Name  string `yaml:"name" json:"name"`
	Email string `yaml:"email" json:"email"`
	URL   string `yaml:"url" json:"url"`
}
