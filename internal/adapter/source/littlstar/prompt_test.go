package littlstar

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/littlstar/lstar/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrompter(input string, passwords ...string) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(strings.NewReader(input)),
		out: &bytes.Buffer{},
		readPassword: func() (string, error) {
			pw := passwords[0]
			passwords = passwords[1:]
			return pw, nil
		},
	}
}

func TestPrompter(t *testing.T) {
	t.Run("credentials", func(t *testing.T) {
		p := newTestPrompter("ada\n", "secret")
		login, pw, err := p.Credentials()
		require.NoError(t, err)
		assert.Equal(t, "ada", login)
		assert.Equal(t, "secret", pw)
	})

	t.Run("empty credentials are rejected", func(t *testing.T) {
		p := newTestPrompter("\n", "")
		_, _, err := p.Credentials()
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("registration", func(t *testing.T) {
		p := newTestPrompter("ada\nada@example.com\n", "pw", "pw")
		reg, err := p.Registration()
		require.NoError(t, err)
		assert.Equal(t, domain.Registration{Username: "ada", Email: "ada@example.com", Password: "pw", PasswordConfirmation: "pw"}, reg)
	})
}
