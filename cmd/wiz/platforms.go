package main

import (
	"github.com/wiz-lang/wiz/internal/platform"
	"github.com/wiz-lang/wiz/internal/platform/gb"
	"github.com/wiz-lang/wiz/internal/platform/mos6502"
	"github.com/wiz-lang/wiz/internal/platform/spc700"
	"github.com/wiz-lang/wiz/internal/platform/wdc65816"
	"github.com/wiz-lang/wiz/internal/platform/z80"
)

// newPlatformRegistry builds the registry of every target this build
// knows how to compile for, and the output-extension table that infers
// a platform/format pair when --system/--format are left unset.
func newPlatformRegistry() *platform.Registry {
	r := platform.NewRegistry()
	r.Register("mos6502", func() platform.Platform { return mos6502.New() })
	r.Register("z80", func() platform.Platform { return z80.New() })
	r.Register("gb", func() platform.Platform { return gb.New() })
	r.Register("wdc65816", func() platform.Platform { return wdc65816.New() })
	r.Register("spc700", func() platform.Platform { return spc700.New() })

	r.RegisterExtension(".nes", "mos6502", "nes")
	r.RegisterExtension(".gb", "gb", "gb")
	r.RegisterExtension(".gbc", "gb", "gb")
	r.RegisterExtension(".sfc", "wdc65816", "sfc")
	r.RegisterExtension(".smc", "wdc65816", "smc")
	r.RegisterExtension(".sms", "z80", "sms")
	r.RegisterExtension(".gg", "z80", "gg")
	r.RegisterExtension(".spc", "spc700", "bin")
	return r
}
