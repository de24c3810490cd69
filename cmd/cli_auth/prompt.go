package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// seams para tests
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

type prompter struct {
	reader *bufio.Reader
	out    io.Writer
	fd     int
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{reader: bufio.NewReader(in), out: out, fd: int(os.Stdin.Fd())}
}

// line imprime el prompt y devuelve la línea sin espacios. Un EOF con texto parcial no es error.
func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	text, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(text) > 0 {
			return strings.TrimSpace(text), nil
		}
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// password lee sin eco cuando stdin es una terminal.
func (p *prompter) password(prompt string) (string, error) {
	if !isTerminal(p.fd) {
		return p.line(prompt)
	}
	fmt.Fprint(p.out, prompt)
	pw, err := readPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
