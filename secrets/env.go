package secrets

import (
	"context"
	"os"
	"strings"
	"unicode"

	"github.com/joho/godotenv"

	"github.com/sheetsync/sheets-to-mysql/etl"
)

// Env reads a secret from the SECRET_<NAME> environment variable, falling
// back to the same variable in any of the .env files.
type Env struct {
	files map[string]string
}

func NewEnv(files ...string) (*Env, error) {
	env := Env{
		files: map[string]string{},
	}

	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}

		vars, err := godotenv.Read(f)
		if err != nil {
			return nil, etl.Wrap(etl.Credential, err, "unable to read "+f)
		}

		for k, v := range vars {
			if _, ok := env.files[k]; !ok {
				env.files[k] = v
			}
		}
	}

	return &env, nil
}

func (s *Env) Get(ctx context.Context, name string) ([]byte, error) {
	variable := Variable(name)

	if v, ok := os.LookupEnv(variable); ok && strings.TrimSpace(v) != "" {
		return []byte(v), nil
	}

	if v, ok := s.files[variable]; ok && strings.TrimSpace(v) != "" {
		return []byte(v), nil
	}

	return nil, etl.Errorf(etl.Credential, "secret '%s' not found (%s is not set)", name, variable)
}

// Variable returns the environment variable name for a secret: SECRET_
// followed by the upper case name with anything other than letters and
// digits replaced by '_'.
func Variable(name string) string {
	v := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToUpper(r)
		}

		return '_'
	}, strings.TrimSpace(name))

	return "SECRET_" + v
}
