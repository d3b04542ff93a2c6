package format

import "github.com/wiz-lang/wiz/internal/ast"

const (
	inesHeaderSize    = 16
	inesPrgBankSize   = 16 * 1024
	inesChrBankSize   = 8 * 1024
	inesPrgRamBankSize = 8 * 1024
)

var inesCartTypes = map[string]byte{
	"nrom": 0, "sxrom": 1, "mmc1": 1, "uxrom": 2, "cnrom": 3,
	"txrom": 4, "mmc3": 4, "mmc6": 4, "exrom": 5, "mmc5": 5, "axrom": 7,
	"pxrom": 9, "mmc2": 9, "fxrom": 10, "mmc4": 10, "color-dreams": 11, "cprom": 13,
	"24c02": 16, "ss8806": 18, "n163": 19, "vrc4a": 21, "vrc4c": 21,
	"vrc2a": 22, "vrc2b": 23, "vrc4e": 23, "vrc6a": 24, "vrc4b": 25, "vrc4d": 25,
	"vrc6b": 26, "action-53": 28, "unrom-512": 30, "bnrom": 34, "rambo1": 64,
	"gxrom": 66, "mxrom": 66, "after-burner": 68, "fme7": 69, "sunsoft5b": 69,
	"codemasters": 71, "vrc3": 73, "vrc1": 75, "n109": 79, "vrc7": 85, "gtrom": 111,
	"txsrom": 118, "tqrom": 119, "24c01": 159, "dxrom": 206, "n118": 206,
	"n175": 210, "n340": 210, "action52": 228, "codemasters-quattro": 232,
}

// NesFormat writes an iNES container: a 16-byte header, then PRG banks
// (padded to a 16 KiB multiple), then CHR banks (padded to an 8 KiB
// multiple).
type NesFormat struct{}

func (NesFormat) Generate(ctx *OutputFormatContext) bool {
	ctx.Data = make([]byte, inesHeaderSize)

	prg, chr := partitionByCharacterRom(ctx.Banks)
	for _, b := range prg {
		ctx.appendBank(b)
	}
	prgSize := ceilToMultiple(len(ctx.Data)-inesHeaderSize, inesPrgBankSize)
	ctx.Data = padTo(ctx.Data, prgSize+inesHeaderSize, 0xFF)

	for _, b := range chr {
		ctx.appendBank(b)
	}
	chrSize := ceilToMultiple(len(ctx.Data)-prgSize-inesHeaderSize, inesChrBankSize)
	ctx.Data = padTo(ctx.Data, chrSize+prgSize+inesHeaderSize, 0xFF)

	copy(ctx.Data[0:4], "NES\x1A")
	ctx.Data[4] = byte(prgSize / inesPrgBankSize)
	ctx.Data[5] = byte(chrSize / inesChrBankSize)

	var mapper byte
	if cartType, ok := ctx.Config.String(ctx.Report, "cart_type", false); ok {
		if code, known := inesCartTypes[cartType]; known {
			mapper = code
		} else {
			ctx.Report.Errorf(ctx.Config.locs["cart_type"], "`cart_type` of \"%s\" is not supported", cartType)
		}
	}
	if cartTypeID, ok := ctx.Config.Integer(ctx.Report, "cart_type_id", false); ok {
		mapper = byte(cartTypeID.Int64())
	}
	ctx.Data[6] = (mapper & 0x0F) << 4
	ctx.Data[7] = (mapper & 0xF0)

	if verticalMirror, ok := ctx.Config.Boolean(ctx.Report, "vertical_mirror", false); ok && verticalMirror {
		ctx.Data[6] |= 0x01
	}
	if battery, ok := ctx.Config.Boolean(ctx.Report, "battery", false); ok && battery {
		ctx.Data[6] |= 0x02
	}
	if fourScreen, ok := ctx.Config.Boolean(ctx.Report, "four_screen", false); ok && fourScreen {
		ctx.Data[6] |= 0x08
	}
	if prgRamSize, ok := ctx.Config.Integer(ctx.Report, "prg_ram_size", false); ok {
		value := prgRamSize.Int64()
		if value >= int64(inesPrgRamBankSize*255) {
			ctx.Report.Errorf(ast.Builtin, "`prg_ram_size` of %d is too big (must be no more than %d bytes)", value, inesPrgRamBankSize*255)
		} else if value%inesPrgRamBankSize != 0 {
			ctx.Report.Errorf(ast.Builtin, "`prg_ram_size` of %d is not supported (must be divisible by %d bytes)", value, inesPrgRamBankSize)
		} else {
			ctx.Data[8] = byte(value / inesPrgRamBankSize)
		}
	}

	return true
}
