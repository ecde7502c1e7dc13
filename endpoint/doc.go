// Package endpoint describes the remote API a client talks to and assembles
// request URLs from it.
//
//	cfg := endpoint.Config{Secure: true, Host: "api.example.com", SubPath: "/v1"}
//	u, err := cfg.Resolve("users/42", nil) // https://api.example.com/v1/users/42
package endpoint
