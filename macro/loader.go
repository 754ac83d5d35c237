package macro

import "bytes"

// Kind identifies how a unit's code is loaded.
type Kind string

const (
	// KindPlugin is a Go plugin (a shared object built with -buildmode=plugin).
	KindPlugin Kind = "plugin"
	// KindScript is a CUE macro script.
	KindScript Kind = "script"
)

var objectMagic = [][]byte{
	{0x7f, 'E', 'L', 'F'},
	{0xcf, 0xfa, 0xed, 0xfe}, // Mach-O 64-bit, little endian
	{0xce, 0xfa, 0xed, 0xfe},
	{0xfe, 0xed, 0xfa, 0xcf},
	{0xfe, 0xed, 0xfa, 0xce},
}

// Sniff classifies code by its leading bytes: native objects are plugins,
// anything else is a script.
func Sniff(code []byte) Kind {
	for _, m := range objectMagic {
		if bytes.HasPrefix(code, m) {
			return KindPlugin
		}
	}
	return KindScript
}

// extension is the file suffix the store uses for units of kind k.
func (k Kind) extension() string {
	if k == KindPlugin {
		return ".so"
	}
	return ".cue"
}
