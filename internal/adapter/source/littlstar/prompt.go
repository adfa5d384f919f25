package littlstar

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/littlstar/lstar/internal/domain"
	"golang.org/x/term"
)

// Prompter collects credentials on the terminal
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// readPassword reads hidden input; replaced in tests
	readPassword func() (string, error)
}

// NewPrompter reads from stdin and writes prompts to stdout
func NewPrompter() *Prompter {
	return &Prompter{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
		readPassword: func() (string, error) {
			b, err := term.ReadPassword(int(syscall.Stdin))
			return string(b), err
		},
	}
}

// Credentials prompts for a username and hidden password.
func (p *Prompter) Credentials() (login, password string, err error) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Littlstar Login")
	fmt.Fprintln(p.out, "━━━━━━━━━━━━━━━")

	if login, err = p.line("Username or email: "); err != nil {
		return "", "", err
	}
	if password, err = p.password("Password: "); err != nil {
		return "", "", err
	}
	if login == "" || password == "" {
		return "", "", domain.ValidationError("login", fmt.Errorf("username and password are required"))
	}
	return login, password, nil
}

// Registration prompts for the fields of a new account
func (p *Prompter) Registration() (domain.Registration, error) {
	var reg domain.Registration
	var err error

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Create a Littlstar account")
	fmt.Fprintln(p.out, "━━━━━━━━━━━━━━━━━━━━━━━━━")

	if reg.Username, err = p.line("Username: "); err != nil {
		return reg, err
	}
	if reg.Email, err = p.line("Email: "); err != nil {
		return reg, err
	}
	if reg.Password, err = p.password("Password: "); err != nil {
		return reg, err
	}
	if reg.PasswordConfirmation, err = p.password("Confirm password: "); err != nil {
		return reg, err
	}
	return reg, nil
}

func (p *Prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.in.ReadString('\n')
	if err != nil && s == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(s), nil
}

func (p *Prompter) password(label string) (string, error) {
	fmt.Fprint(p.out, label)
	pw, err := p.readPassword()
	fmt.Fprintln(p.out) // Add newline after hidden input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return pw, nil
}
