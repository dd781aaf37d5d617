package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// AuthProvider records how a store account signs in
type AuthProvider int

const (
	AuthProviderLocal  AuthProvider = 0
	AuthProviderGoogle AuthProvider = 1
)

func (p AuthProvider) String() string {
	names := [...]string{"local", "google"}
	if int(p) < 0 || int(p) >= len(names) {
		return "local"
	}
	return names[p]
}

func (p AuthProvider) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *AuthProvider) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*p = AuthProvider(i)
		return nil
	}
	switch str {
	case "local":
		*p = AuthProviderLocal
	case "google":
		*p = AuthProviderGoogle
	}
	return nil
}

func (p AuthProvider) Value() (driver.Value, error) {
	return int64(p), nil
}

func (p *AuthProvider) Scan(value interface{}) error {
	if value == nil {
		*p = AuthProviderLocal
		return nil
	}
	switch v := value.(type) {
	case int64:
		*p = AuthProvider(v)
	case int:
		*p = AuthProvider(v)
	}
	return nil
}
