package format

import (
	"strings"

	"github.com/wiz-lang/wiz/internal/ast"
)

const gbRomBankSize = 32 * 1024
const gbMaxTotalRomSize = 8 * 1024 * 1024

var gbLogoBitmap = []byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E, 0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

var gbCartTypes = map[string]byte{
	"rom": 0x00, "mbc1": 0x01, "mbc1-ram": 0x02, "mbc1-ram-battery": 0x03,
	"mbc2": 0x05, "mbc2-battery": 0x06, "rom-ram": 0x08, "rom-ram-battery": 0x09,
	"mmm01": 0x0B, "mmm01-ram": 0x0C, "mmm01-ram-battery": 0x0D,
	"mbc3-timer-battery": 0x0F, "mbc3-timer-ram-battery": 0x10, "mbc3": 0x11,
	"mbc3-ram": 0x12, "mbc3-ram-battery": 0x13,
	"mbc4": 0x15, "mbc4-ram": 0x16, "mbc4-ram-battery": 0x17,
	"mbc5": 0x19, "mbc5-ram": 0x1A, "mbc5-ram-battery": 0x1B,
	"mbc5-rumble": 0x1C, "mbc5-rumble-ram": 0x1D, "mbc5-rumble-ram-battery": 0x1E,
	"camera": 0xFC, "tama5": 0xFD, "huc3": 0xFE, "huc1": 0xFF,
}

// GameBoyFormat lays out a Game Boy / Game Boy Color ROM: every stored
// bank concatenated, then the cartridge header stamped into the fixed
// 0x100-0x14F window of bank 0.
type GameBoyFormat struct{}

func (GameBoyFormat) Generate(ctx *OutputFormatContext) bool {
	for _, b := range storedBanks(ctx.Banks) {
		ctx.appendBank(b)
	}
	if len(ctx.Data) < gbRomBankSize {
		ctx.Data = padTo(ctx.Data, gbRomBankSize, 0xFF)
	}

	for i := 0x134; i < 0x14D; i++ {
		ctx.Data[i] = 0
	}
	copy(ctx.Data[0x104:], gbLogoBitmap)
	ctx.Data[0x14B] = 0x33

	_, hasManufacturer := ctx.Config.String(ctx.Report, "manufacturer", false)
	titleMaxLength := 15
	if hasManufacturer {
		titleMaxLength = 11
	}
	if title, ok := ctx.Config.FixedString(ctx.Report, "title", titleMaxLength, false); ok {
		copy(ctx.Data[0x134:], title)
	} else {
		truncated := strings.ToUpper(stripExtension(ctx.OutputName))
		if len(truncated) > titleMaxLength {
			truncated = truncated[:titleMaxLength]
		}
		copy(ctx.Data[0x134:], truncated)
	}
	if manufacturer, ok := ctx.Config.FixedString(ctx.Report, "manufacturer", 4, false); ok {
		copy(ctx.Data[0x13F:], manufacturer)
	}
	if gbcCompatible, ok := ctx.Config.Boolean(ctx.Report, "gbc_compatible", false); ok && gbcCompatible {
		ctx.Data[0x143] = 0x80
	}
	if gbcExclusive, ok := ctx.Config.Boolean(ctx.Report, "gbc_exclusive", false); ok && gbcExclusive {
		ctx.Data[0x143] = 0xC0
	}
	if licensee, ok := ctx.Config.FixedString(ctx.Report, "licensee", 2, false); ok {
		copy(ctx.Data[0x144:], licensee)
	}
	if sgbCompatible, ok := ctx.Config.Boolean(ctx.Report, "sgb_compatible", false); ok && sgbCompatible {
		ctx.Data[0x146] = 0x03
	}
	if cartType, ok := ctx.Config.String(ctx.Report, "cart_type", false); ok {
		if code, known := gbCartTypes[cartType]; known {
			ctx.Data[0x147] = code
		} else {
			ctx.Report.Errorf(ctx.Config.locs["cart_type"], "`cart_type` of \"%s\" is not supported", cartType)
		}
	}
	if cartTypeID, ok := ctx.Config.Integer(ctx.Report, "cart_type_id", false); ok {
		ctx.Data[0x147] = byte(cartTypeID.Int64())
	}
	if ramSize, ok := ctx.Config.Integer(ctx.Report, "ram_size", false); ok {
		value := ramSize.Int64()
		var setting byte
		switch {
		case value > 32*1024:
			ctx.Report.Errorf(ast.Builtin, "`ram_size` of %d is too large (max is 32 KiB)", value)
		case value > 8*1024:
			setting = 0x03
		case value > 2*1024:
			setting = 0x02
		case value > 0:
			setting = 0x01
		}
		ctx.Data[0x149] = setting
	}
	if international, ok := ctx.Config.Boolean(ctx.Report, "international", false); ok && international {
		ctx.Data[0x14A] = 0x01
	}
	if oldLicensee, ok := ctx.Config.Integer(ctx.Report, "old_licensee", false); ok {
		ctx.Data[0x14B] = byte(oldLicensee.Int64())
	}
	if version, ok := ctx.Config.Integer(ctx.Report, "version", false); ok {
		ctx.Data[0x14C] = byte(version.Int64())
	}

	rounded := nextPowerOfTwo(len(ctx.Data))
	if rounded > len(ctx.Data) {
		ctx.Data = padTo(ctx.Data, rounded, 0xFF)
	}
	if len(ctx.Data) > gbMaxTotalRomSize {
		ctx.Report.Errorf(ast.Builtin, "rom size of %d bytes is too large (max is %d bytes)", len(ctx.Data), gbMaxTotalRomSize)
		return false
	}
	ctx.Data[0x148] = byte(log2Int(len(ctx.Data)) - log2Int(gbRomBankSize))

	var headerChecksum byte
	for i := 0x134; i < 0x14D; i++ {
		headerChecksum = headerChecksum - ctx.Data[i] - 1
	}
	ctx.Data[0x14D] = headerChecksum

	var globalChecksum uint16
	for i, b := range ctx.Data {
		if i != 0x14E && i != 0x14F {
			globalChecksum += uint16(b)
		}
	}
	ctx.Data[0x14E] = byte(globalChecksum >> 8)
	ctx.Data[0x14F] = byte(globalChecksum)

	return true
}
