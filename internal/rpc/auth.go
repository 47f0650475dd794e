package rpc

import "net/http"

type AuthType string

const (
	AuthTypeHeader AuthType = "header"
	AuthTypeQuery  AuthType = "query"
)

// AuthConfig attaches an API key to every request, as hosted RPC providers
// expect either in a header or in the query string.
type AuthConfig struct {
	Type  AuthType `json:"type"  yaml:"type"  validate:"omitempty,oneof=header query"`
	Key   string   `json:"key"   yaml:"key"`
	Value string   `json:"value" yaml:"value"`
}

func (a *AuthConfig) apply(req *http.Request) {
	if a == nil || a.Key == "" {
		return
	}
	switch a.Type {
	case AuthTypeHeader:
		req.Header.Set(a.Key, a.Value)
	case AuthTypeQuery:
		q := req.URL.Query()
		q.Set(a.Key, a.Value)
		req.URL.RawQuery = q.Encode()
	}
}
