// Package credentials supplies the username/password pairs the login
// scenarios are run with.
package credentials

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

type Credential struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// String names the pair without giving the password away, for test names and logs.
func (c Credential) String() string {
	username, password := c.Username, "***"
	if username == "" {
		username = "<empty>"
	}
	if c.Password == "" {
		password = "<empty>"
	}
	return username + "/" + password
}

// InvalidCredentials returns pairs the application must reject. Each call
// returns a new slice.
func InvalidCredentials() []Credential {
	return []Credential{
		{Username: "", Password: ""},
		{Username: "invalid", Password: "invalid"},
		{Username: "Admin", Password: "wrong_password"},
		{Username: "wrong_user", Password: "admin123"},
		{Username: "admin", Password: ""},
		{Username: "", Password: "admin123"},
	}
}

const letters = "abcdefghijklmnopqrstuvwxyz"

// RandomString returns n random lowercase ASCII letters.
func RandomString(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rand.IntN(len(letters))]
	}
	return string(b)
}

// RandomEmail returns a random ten letter mailbox at domain.
func RandomEmail(domain string) string {
	if domain == "" {
		domain = "test.com"
	}
	return RandomString(10) + "@" + domain
}

// Fixture is the shape of a credentials file:
//
//	invalid:
//	  - username: locked_user
//	    password: admin123
type Fixture struct {
	Invalid []Credential `yaml:"invalid"`
}

// Load reads extra invalid pairs from the YAML file at path.
func Load(fs afero.Fs, path string) ([]Credential, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	fixture := Fixture{}
	if err := yaml.UnmarshalStrict(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}
	return fixture.Invalid, nil
}
