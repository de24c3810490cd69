package client

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOTPInputTypeAdvancesFocus(t *testing.T) {
	in := NewOTPInput(0)
	require.Equal(t, DefaultOTPLength, in.Len())

	require.True(t, in.Type(0, "1"))
	require.Equal(t, 1, in.Focus())
	require.False(t, in.Type(1, "a"))
	require.False(t, in.Type(1, "12"))
	require.False(t, in.Type(9, "1"))
	require.Equal(t, "1", in.Code())

	require.True(t, in.Type(5, "9"))
	require.Equal(t, 5, in.Focus(), "last cell keeps focus")
	require.False(t, in.Complete())
}

func TestOTPInputKeyNavigation(t *testing.T) {
	in := NewOTPInput(6)
	in.Paste("12")

	in.KeyDown(2, KeyBackspace)
	require.Equal(t, 1, in.Focus())
	require.Equal(t, []string{"1", "2", "", "", "", ""}, in.Cells(), "backspace never deletes the previous cell")

	in.KeyDown(1, KeyBackspace)
	require.Equal(t, 1, in.Focus(), "backspace on a filled cell keeps focus")

	in.KeyDown(0, KeyArrowLeft)
	require.Equal(t, 1, in.Focus(), "no movement left of the first cell")
	in.KeyDown(3, KeyArrowRight)
	require.Equal(t, 4, in.Focus())
	in.KeyDown(5, KeyArrowRight)
	require.Equal(t, 4, in.Focus(), "no movement right of the last cell")
	in.KeyDown(4, KeyArrowLeft)
	require.Equal(t, 3, in.Focus())
	require.Equal(t, "12", in.Code())
}

func TestOTPInputPaste(t *testing.T) {
	in := NewOTPInput(6)

	in.Paste("123456")
	require.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, in.Cells())
	require.Equal(t, 5, in.Focus())
	require.True(t, in.Complete())

	in.Paste("12")
	require.Equal(t, []string{"1", "2", "", "", "", ""}, in.Cells(), "paste overwrites all cells")
	require.Equal(t, 1, in.Focus())

	in.Paste("98765432")
	require.Equal(t, "987654", in.Code())
	require.Equal(t, 5, in.Focus())

	in.Paste("   ")
	require.Equal(t, "987654", in.Code(), "empty paste is ignored")
}

func TestOTPInputReset(t *testing.T) {
	in := NewOTPInput(6)
	in.Paste("123456")
	in.Reset()
	require.Equal(t, "", in.Code())
	require.Equal(t, 0, in.Focus())
	require.False(t, in.Complete())
}
