package format

// Registry maps a format's short name (as named on the command line or
// inferred from an output extension) to the Formatter that implements
// it.
var Registry = map[string]Formatter{
	"bin": BinaryFormat{},
	"gb":  GameBoyFormat{},
	"nes": NesFormat{},
	"sms": SmsFormat{System: SmsMasterSystem},
	"gg":  SmsFormat{System: SmsGameGear},
	"sfc": SnesFormat{},
	"smc": SnesSmcFormat{},
}

// Lookup returns the formatter registered under name, or nil.
func Lookup(name string) Formatter { return Registry[name] }
