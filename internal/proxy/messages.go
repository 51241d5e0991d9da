package proxy

// CallerID identifies who submitted a request so its response can be routed
// back. Client assigns a fresh UUID per call.
type CallerID string

// Request is one of BackendRequest, StatusRequest, SetCredsEncrypted or
// SetCredsPlaintext.
type Request interface {
	isRequest()
}

// BackendRequest asks the proxy to sign Payload and POST it to the backend.
type BackendRequest struct {
	Payload []byte
}

// StatusRequest asks for the current status.
type StatusRequest struct{}

// SetCredsEncrypted unlocks a bundle with Password. An empty Bundle means the
// bundle held by the credential store.
type SetCredsEncrypted struct {
	Password string
	Bundle   []byte
}

// SetCredsPlaintext sets up new credentials protected by Password.
type SetCredsPlaintext struct {
	Password     string
	EndpointHost string
	AccessKeyID  string
	SecretKey    string
}

func (BackendRequest) isRequest()    {}
func (StatusRequest) isRequest()     {}
func (SetCredsEncrypted) isRequest() {}
func (SetCredsPlaintext) isRequest() {}

// Response is either a BackendResponse or a StatusResponse.
type Response interface {
	isResponse()
}

// BackendResponse carries the backend's reply. Err is set, and Body nil, when
// the call could not be completed.
type BackendResponse struct {
	Body []byte
	Err  error
}

// Status is the proxy's externally visible state.
type Status int

const (
	StatusNotReady Status = iota
	StatusCredsEncrypted
	StatusReady
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusNotReady:
		return "not_ready"
	case StatusCredsEncrypted:
		return "creds_encrypted"
	case StatusReady:
		return "ready"
	default:
		return "unknown"
	}
}

// StatusResponse reports a Status. Bundle holds the encrypted bundle JSON
// when Status is StatusCredsEncrypted.
type StatusResponse struct {
	Status Status
	Bundle []byte
}

func (BackendResponse) isResponse() {}
func (StatusResponse) isResponse()  {}

// Envelope is a request tagged with its caller.
type Envelope struct {
	Caller  CallerID
	Request Request
}

// Delivery is a response addressed to the caller that asked for it.
type Delivery struct {
	Caller   CallerID
	Response Response
}
