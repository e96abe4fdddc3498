package machine

import (
	"github.com/gdamore/tcell/v2"
	"golang.org/x/mobile/event/key"
)

// Key codes delivered with key_down and key_up signals.
const (
	KeyEscape   = 0x01
	KeyBack     = 0x0E
	KeyTab      = 0x0F
	KeyEnter    = 0x1C
	KeyLControl = 0x1D
	KeyLShift   = 0x2A
	KeyRShift   = 0x36
	KeyLMenu    = 0x38
	KeySpace    = 0x39
	KeyCapital  = 0x3A
	KeyF1       = 0x3B
	KeyF11      = 0x57
	KeyF12      = 0x58
	KeyHome     = 0xC7
	KeyUp       = 0xC8
	KeyPageUp   = 0xC9
	KeyLeft     = 0xCB
	KeyRight    = 0xCD
	KeyEnd      = 0xCF
	KeyDown     = 0xD0
	KeyPageDown = 0xD1
	KeyInsert   = 0xD2
	KeyDelete   = 0xD3
)

// runeCodes maps the characters of a US keyboard to the code of the key
// that produces them.
var runeCodes = map[rune]int{' ': KeySpace}

func init() {
	for _, row := range []struct {
		code           int
		plain, shifted string
	}{
		{0x02, "1234567890-=", "!@#$%^&*()_+"},
		{0x10, "qwertyuiop[]", "QWERTYUIOP{}"},
		{0x1E, "asdfghjkl;'`", "ASDFGHJKL:\"~"},
		{0x2B, "\\zxcvbnm,./", "|ZXCVBNM<>?"},
	} {
		for i, r := range row.plain {
			runeCodes[r] = row.code + i
		}
		for i, r := range row.shifted {
			runeCodes[r] = row.code + i
		}
	}
}

var termCodes = map[tcell.Key]struct {
	char rune
	code int
}{
	tcell.KeyEnter:      {'\r', KeyEnter},
	tcell.KeyTab:        {'\t', KeyTab},
	tcell.KeyBackspace:  {'\b', KeyBack},
	tcell.KeyBackspace2: {'\b', KeyBack},
	tcell.KeyEscape:     {27, KeyEscape},
	tcell.KeyUp:         {0, KeyUp},
	tcell.KeyDown:       {0, KeyDown},
	tcell.KeyLeft:       {0, KeyLeft},
	tcell.KeyRight:      {0, KeyRight},
	tcell.KeyHome:       {0, KeyHome},
	tcell.KeyEnd:        {0, KeyEnd},
	tcell.KeyPgUp:       {0, KeyPageUp},
	tcell.KeyPgDn:       {0, KeyPageDown},
	tcell.KeyInsert:     {0, KeyInsert},
	tcell.KeyDelete:     {0, KeyDelete},
	tcell.KeyF11:        {0, KeyF11},
	tcell.KeyF12:        {0, KeyF12},
}

// TermKey translates a terminal key event.
func TermKey(ev *tcell.EventKey) (char rune, code int, ok bool) {
	k := ev.Key()
	if k == tcell.KeyRune {
		r := ev.Rune()
		return r, runeCodes[r], true
	}
	if c, ok := termCodes[k]; ok {
		return c.char, c.code, true
	}
	switch {
	case k >= tcell.KeyF1 && k <= tcell.KeyF10:
		return 0, KeyF1 + int(k-tcell.KeyF1), true
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		return rune(k), runeCodes['a'+rune(k-tcell.KeyCtrlA)], true
	}
	return 0, 0, false
}

var guiCodes = map[key.Code]struct {
	char rune
	code int
}{
	key.CodeReturnEnter:     {'\r', KeyEnter},
	key.CodeTab:             {'\t', KeyTab},
	key.CodeDeleteBackspace: {'\b', KeyBack},
	key.CodeEscape:          {27, KeyEscape},
	key.CodeSpacebar:        {' ', KeySpace},
	key.CodeUpArrow:         {0, KeyUp},
	key.CodeDownArrow:       {0, KeyDown},
	key.CodeLeftArrow:       {0, KeyLeft},
	key.CodeRightArrow:      {0, KeyRight},
	key.CodeHome:            {0, KeyHome},
	key.CodeEnd:             {0, KeyEnd},
	key.CodePageUp:          {0, KeyPageUp},
	key.CodePageDown:        {0, KeyPageDown},
	key.CodeInsert:          {0, KeyInsert},
	key.CodeDeleteForward:   {0, KeyDelete},
	key.CodeLeftShift:       {0, KeyLShift},
	key.CodeRightShift:      {0, KeyRShift},
	key.CodeLeftControl:     {0, KeyLControl},
	key.CodeLeftAlt:         {0, KeyLMenu},
	key.CodeCapsLock:        {0, KeyCapital},
	key.CodeF11:             {0, KeyF11},
	key.CodeF12:             {0, KeyF12},
}

// GUIKey translates a window key event.
func GUIKey(e key.Event) (char rune, code int, ok bool) {
	if c, ok := guiCodes[e.Code]; ok {
		return c.char, c.code, true
	}
	if e.Code >= key.CodeF1 && e.Code <= key.CodeF10 {
		return 0, KeyF1 + int(e.Code-key.CodeF1), true
	}
	if e.Rune <= 0 {
		return 0, 0, false
	}
	if e.Modifiers&key.ModControl != 0 && e.Rune >= 'a' && e.Rune <= 'z' {
		return e.Rune - 'a' + 1, runeCodes[e.Rune], true
	}
	return e.Rune, runeCodes[e.Rune], true
}
