package identity

import (
	"errors"
	"fmt"
)

// SNMP versions an Identity can use.
const (
	V1  = "1"
	V2c = "2c"
	V3  = "3"
)

// ErrInvalid is returned by Validate for incomplete or inconsistent identities.
var ErrInvalid = errors.New("invalid identity")

// Identity is an SNMP credential profile used to reach a router.
type Identity struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Community string `json:"community,omitempty"`  // v1/v2c
	Username  string `json:"username,omitempty"`   // v3
	AuthProto string `json:"auth_proto,omitempty"` // "MD5", "SHA", "SHA256", "SHA512"
	AuthPass  string `json:"auth_pass,omitempty"`
	PrivProto string `json:"priv_proto,omitempty"` // "DES", "AES128", "AES192", "AES256"
	PrivPass  string `json:"priv_pass,omitempty"`
}

var (
	authProtos = map[string]bool{"MD5": true, "SHA": true, "SHA256": true, "SHA512": true}
	privProtos = map[string]bool{"DES": true, "AES": true, "AES128": true, "AES192": true, "AES256": true}
)

// Validate checks that the identity carries the fields its version needs.
func (id *Identity) Validate() error {
	if id == nil {
		return fmt.Errorf("%w: nil identity", ErrInvalid)
	}
	switch id.Version {
	case V1, V2c:
		if id.Community == "" {
			return fmt.Errorf("%w: %q: community required for v%s", ErrInvalid, id.Name, id.Version)
		}
	case V3:
		if id.Username == "" {
			return fmt.Errorf("%w: %q: username required for v3", ErrInvalid, id.Name)
		}
		if id.AuthProto != "" && !authProtos[id.AuthProto] {
			return fmt.Errorf("%w: %q: unknown auth protocol %q", ErrInvalid, id.Name, id.AuthProto)
		}
		if id.PrivProto != "" && !privProtos[id.PrivProto] {
			return fmt.Errorf("%w: %q: unknown privacy protocol %q", ErrInvalid, id.Name, id.PrivProto)
		}
		// USM does not allow privacy without authentication.
		if id.PrivProto != "" && id.AuthProto == "" {
			return fmt.Errorf("%w: %q: privacy requires authentication", ErrInvalid, id.Name)
		}
	default:
		return fmt.Errorf("%w: %q: unsupported SNMP version %q", ErrInvalid, id.Name, id.Version)
	}
	return nil
}

// Summary is an Identity without its secrets.
type Summary struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Username  string `json:"username,omitempty"`
	AuthProto string `json:"auth_proto,omitempty"`
	PrivProto string `json:"priv_proto,omitempty"`
}

// Summarize returns a Summary without sensitive fields.
func (id *Identity) Summarize() Summary {
	return Summary{
		Name:      id.Name,
		Version:   id.Version,
		Username:  id.Username,
		AuthProto: id.AuthProto,
		PrivProto: id.PrivProto,
	}
}

// Provider is the interface for identity storage backends.
type Provider interface {
	List() ([]Summary, error)
	Get(name string) (*Identity, error)
	Add(id Identity) error
	Remove(name string) error
}
