package format

import "github.com/wiz-lang/wiz/internal/ast"

const (
	snesHeaderSize     = 0x30
	snesTitleMaxLength = 21
	snesMinRomSize     = 128 * 1024
	snesMaxTotalRomSize = 8 * 1024 * 1024
	snesSmcHeaderSize  = 0x200
	snesSmcRomBlockSize = 8192
)

type snesMapMode struct {
	value        byte
	headerOffset int
}

var snesMapModes = map[string]snesMapMode{
	"lorom":   {0x20, 0x7F00},
	"hirom":   {0x21, 0xFF00},
	"sa1":     {0x23, 0x7F00},
	"sdd1":    {0x22, 0x7F00},
	"exhirom": {0x25, 0x40FF00},
	"spc7110": {0x2A, 0x40FF00},
}

var snesExpansionSettings = map[string]byte{
	"none": 0x00, "dsp": 0x03, "super-fx": 0x23, "obc1": 0x23,
	"sa1": 0x33, "other": 0xE3, "custom": 0xF3,
}

var snesRegionSettings = map[string]byte{
	"ntsc": 0x01, "pal": 0x02, "japanese": 0x00, "american": 0x01,
	"european": 0x02, "scandinavian": 0x03, "french": 0x06, "dutch": 0x07,
	"spanish": 0x08, "german": 0x09, "italian": 0x0A, "chinese": 0x0B,
	"korean": 0x0D, "canadian": 0x0F, "brazilian": 0x10, "australian": 0x11,
}

// SnesFormat writes a headerless (.sfc) Super Nintendo ROM: every bank
// concatenated, then the internal header stamped at the offset
// dictated by the chosen map mode.
type SnesFormat struct{}

func (SnesFormat) Generate(ctx *OutputFormatContext) bool {
	for _, b := range storedBanks(ctx.Banks) {
		ctx.appendBank(b)
	}

	mapModeSetting := byte(0x20)
	headerAddress := 0x7F00
	if mapModeName, ok := ctx.Config.String(ctx.Report, "map_mode", false); ok {
		if info, known := snesMapModes[mapModeName]; known {
			mapModeSetting = info.value
			headerAddress = info.headerOffset
		} else {
			ctx.Report.Errorf(ast.Builtin, "`map_mode` of \"%s\" is not supported", mapModeName)
		}
	}
	if fastrom, ok := ctx.Config.Boolean(ctx.Report, "fastrom", false); ok && fastrom {
		mapModeSetting |= 0x10
	}

	minRomSize := headerAddress + 0x100
	if minRomSize < snesMinRomSize {
		minRomSize = snesMinRomSize
	}
	ctx.Data = padTo(ctx.Data, minRomSize, 0xFF)

	for i := headerAddress + 0xB0; i < headerAddress+0xB0+snesHeaderSize; i++ {
		ctx.Data[i] = 0
	}
	for i := headerAddress + 0xC0; i < headerAddress+0xC0+snesTitleMaxLength; i++ {
		ctx.Data[i] = ' '
	}
	ctx.Data[headerAddress+0xD6] = mapModeSetting
	ctx.Data[headerAddress+0xDA] = 0x33
	ctx.Data[headerAddress+0xDC] = 0xFF
	ctx.Data[headerAddress+0xDD] = 0xFF

	if makerCode, ok := ctx.Config.FixedString(ctx.Report, "maker_code", 2, false); ok {
		copy(ctx.Data[headerAddress+0xB0:], makerCode)
	}
	if gameCode, ok := ctx.Config.FixedString(ctx.Report, "game_code", 4, false); ok {
		copy(ctx.Data[headerAddress+0xB2:], gameCode)
	}
	if expansionRamSize, ok := ctx.Config.Integer(ctx.Report, "expansion_ram_size", false); ok {
		value := int(expansionRamSize.Int64())
		if value != 0 {
			if value < 4096 {
				ctx.Report.Errorf(ast.Builtin, "`expansion_ram_size` of \"%d\" is not supported (must be at least 4096 bytes)", value)
			} else if value != 1<<log2Int(value) {
				ctx.Report.Errorf(ast.Builtin, "`expansion_ram_size` of \"%d\" is not supported (must be a power-of-two)", value)
			} else {
				ctx.Data[headerAddress+0xBD] = byte(log2Int(value) - log2Int(4096))
			}
		}
	}
	if specialVersion, ok := ctx.Config.Integer(ctx.Report, "special_version", false); ok {
		ctx.Data[headerAddress+0xBE] = byte(specialVersion.Int64())
	}
	if cartSubType, ok := ctx.Config.Integer(ctx.Report, "cart_subtype", false); ok {
		ctx.Data[headerAddress+0xBF] = byte(cartSubType.Int64())
	}
	if title, ok := ctx.Config.FixedString(ctx.Report, "title", snesTitleMaxLength, false); ok {
		copy(ctx.Data[headerAddress+0xC0:], title)
	}

	var cartTypeLower, cartTypeUpper byte
	if expansion, ok := ctx.Config.String(ctx.Report, "expansion_type", false); ok {
		if code, known := snesExpansionSettings[expansion]; known {
			cartTypeLower = code & 0x0F
			cartTypeUpper = code & 0xF0
		} else {
			ctx.Report.Errorf(ast.Builtin, "`expansion_type` of \"%s\" is not supported", expansion)
		}
	}
	if ramSize, ok := ctx.Config.Integer(ctx.Report, "ram_size", false); ok {
		value := int(ramSize.Int64())
		if value != 0 {
			if value < 4096 {
				ctx.Report.Errorf(ast.Builtin, "`ram_size` of \"%d\" is not supported (must be at least 4096 bytes)", value)
			} else if value != 1<<log2Int(value) {
				ctx.Report.Errorf(ast.Builtin, "`ram_size` of \"%d\" is not supported (must be a power-of-two)", value)
			} else {
				ctx.Data[headerAddress+0xD8] = byte(log2Int(value) - log2Int(4096))
				cartTypeLower = 0x04
			}
		}
	}
	if battery, ok := ctx.Config.Boolean(ctx.Report, "battery", false); ok && battery {
		switch cartTypeLower {
		case 0x00, 0x01:
			cartTypeLower = 0x02
		case 0x03:
			cartTypeLower = 0x06
		case 0x04:
			cartTypeLower = 0x05
		}
	}
	ctx.Data[headerAddress+0xD4] = cartTypeUpper | cartTypeLower

	rounded := nextPowerOfTwo(len(ctx.Data))
	if rounded > len(ctx.Data) {
		ctx.Data = padTo(ctx.Data, rounded, 0xFF)
	}
	if len(ctx.Data) > snesMaxTotalRomSize {
		ctx.Report.Errorf(ast.Builtin, "rom size of %d bytes is too large (max is %d bytes)", len(ctx.Data), snesMaxTotalRomSize)
		return false
	}
	ctx.Data[headerAddress+0xD7] = byte(log2Int(len(ctx.Data)) - log2Int(1024))

	if region, ok := ctx.Config.String(ctx.Report, "region", false); ok {
		if code, known := snesRegionSettings[region]; known {
			ctx.Data[headerAddress+0xD9] = code
		} else {
			ctx.Report.Errorf(ast.Builtin, "`region` of \"%s\" is not supported", region)
		}
	}
	if version, ok := ctx.Config.Integer(ctx.Report, "rom_version", false); ok {
		ctx.Data[headerAddress+0xDB] = byte(version.Int64())
	}

	dataSize := len(ctx.Data)
	wholeSize := 1 << log2Int(dataSize)
	var checksum uint16
	for i := 0; i < wholeSize; i++ {
		checksum += uint16(ctx.Data[i])
	}
	remainderSize := dataSize - wholeSize
	if remainderSize != 0 {
		repeatSize := 1 << log2Int(remainderSize)
		repeatCount := 0
		if repeatSize != 0 {
			repeatCount = remainderSize / repeatSize
		}
		var repeatChecksum uint16
		for i := 0; i < repeatSize; i++ {
			repeatChecksum += uint16(ctx.Data[wholeSize+i])
		}
		checksum += repeatChecksum * uint16(repeatCount)
	}
	ctx.Data[headerAddress+0xDC] = byte(checksum) ^ 0xFF
	ctx.Data[headerAddress+0xDD] = byte(checksum>>8) ^ 0xFF
	ctx.Data[headerAddress+0xDE] = byte(checksum)
	ctx.Data[headerAddress+0xDF] = byte(checksum >> 8)

	return true
}

// SnesSmcFormat wraps SnesFormat's output with a 0x200-byte copier
// header carrying just the 8 KiB block count; most emulators ignore it
// in favor of the internal header SnesFormat writes.
type SnesSmcFormat struct{}

func (SnesSmcFormat) Generate(ctx *OutputFormatContext) bool {
	if !(SnesFormat{}).Generate(ctx) {
		return false
	}
	blockCount := len(ctx.Data) / snesSmcRomBlockSize

	header := make([]byte, snesSmcHeaderSize)
	header[0] = byte(blockCount)
	header[1] = byte(blockCount >> 8)
	ctx.Data = append(header, ctx.Data...)
	for b := range ctx.BankOffsets {
		ctx.BankOffsets[b] += snesSmcHeaderSize
	}

	return true
}
