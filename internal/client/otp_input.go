package client

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

const DefaultOTPLength = 6

// Teclas de navegación que entiende OTPInput.KeyDown.
const (
	KeyBackspace  = "Backspace"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
)

// OTPInput modela el input de código en celdas de un dígito con foco explícito.
type OTPInput struct {
	mu     sync.Mutex
	length int
	cells  []string
	focus  int
}

func NewOTPInput(length int) *OTPInput {
	if length <= 0 {
		length = DefaultOTPLength
	}
	return &OTPInput{
		length: length,
		cells:  make([]string, length),
	}
}

// Type escribe value en la celda index. Acepta un único dígito o "" (borrar).
// Con un dígito el foco avanza a la celda siguiente salvo en la última.
func (in *OTPInput) Type(index int, value string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if index < 0 || index >= in.length {
		return false
	}
	if utf8.RuneCountInString(value) > 1 {
		return false
	}
	if value != "" {
		r, _ := utf8.DecodeRuneInString(value)
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	in.cells[index] = value
	in.focus = index
	if value != "" && index < in.length-1 {
		in.focus = index + 1
	}
	return true
}

// KeyDown mueve el foco. Backspace solo retrocede si la celda actual está vacía
// y nunca borra el valor de la celda anterior.
func (in *OTPInput) KeyDown(index int, key string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if index < 0 || index >= in.length {
		return
	}
	switch key {
	case KeyBackspace:
		if in.cells[index] == "" && index > 0 {
			in.focus = index - 1
		}
	case KeyArrowLeft:
		if index > 0 {
			in.focus = index - 1
		}
	case KeyArrowRight:
		if index < in.length-1 {
			in.focus = index + 1
		}
	}
}

// Paste reparte hasta length caracteres desde la primera celda, sobrescribiendo
// todo el contenido. El foco queda en la última celda llenada.
func (in *OTPInput) Paste(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	runes := []rune(text)
	if len(runes) > in.length {
		runes = runes[:in.length]
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	cells := make([]string, in.length)
	for i, r := range runes {
		cells[i] = string(r)
	}
	in.cells = cells
	in.focus = min(len(runes)-1, in.length-1)
}

// Reset vacía todas las celdas y enfoca la primera.
func (in *OTPInput) Reset() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.cells = make([]string, in.length)
	in.focus = 0
}

func (in *OTPInput) Cells() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]string, len(in.cells))
	copy(out, in.cells)
	return out
}

func (in *OTPInput) Code() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return strings.Join(in.cells, "")
}

// Complete indica si todas las celdas tienen un dígito.
func (in *OTPInput) Complete() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, c := range in.cells {
		if c == "" || c[0] < '0' || c[0] > '9' {
			return false
		}
	}
	return true
}

func (in *OTPInput) Focus() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.focus
}

func (in *OTPInput) Len() int {
	return in.length
}
