package format

import "github.com/wiz-lang/wiz/internal/ast"

// SmsSystem distinguishes the two "TMR SEGA" header variants: Master
// System and Game Gear differ only in the region nibble written for a
// configured `region`; without one, both get 0x4.
type SmsSystem int

const (
	SmsMasterSystem SmsSystem = iota
	SmsGameGear
)

// SmsFormat writes a Sega Master System / Game Gear ROM: every bank
// concatenated, then a 16-byte "TMR SEGA  " header stamped at the
// fixed offset appropriate to the final ROM size.
type SmsFormat struct {
	System SmsSystem
}

func (f SmsFormat) Generate(ctx *OutputFormatContext) bool {
	for _, b := range storedBanks(ctx.Banks) {
		ctx.appendBank(b)
	}

	headerAddress := 0x1FF0
	checksumRomSizeSetting := byte(0xA)
	switch {
	case len(ctx.Data) < 0x2000:
		ctx.Data = padTo(ctx.Data, 0x2000, 0xFF)
	case len(ctx.Data) > 0x2000 && len(ctx.Data) <= 0x4000:
		headerAddress = 0x3FF0
		checksumRomSizeSetting = 0xB
		ctx.Data = padTo(ctx.Data, 0x4000, 0xFF)
	case len(ctx.Data) > 0x4000:
		headerAddress = 0x7FF0
		checksumRomSizeSetting = 0xC
		if len(ctx.Data) < 0x8000 {
			ctx.Data = padTo(ctx.Data, 0x8000, 0xFF)
		}
	}

	for i := headerAddress; i < headerAddress+16; i++ {
		ctx.Data[i] = 0
	}
	copy(ctx.Data[headerAddress:], "TMR SEGA  ")

	if productCode, ok := ctx.Config.Integer(ctx.Report, "product_code", false); ok {
		value := productCode.Int64()
		if value < 0 || value > 159999 {
			ctx.Report.Errorf(ast.Builtin, "`product_code` of %d is invalid (must be between 0 and 159999)", value)
		} else {
			ctx.Data[headerAddress+0xC] |= byte(value % 10)
			value /= 10
			ctx.Data[headerAddress+0xC] |= byte(value%10) << 4
			value /= 10
			ctx.Data[headerAddress+0xD] |= byte(value % 10)
			value /= 10
			ctx.Data[headerAddress+0xD] |= byte(value%10) << 4
			value /= 10
			ctx.Data[headerAddress+0xE] |= byte(value&0xF) << 4
		}
	}
	if version, ok := ctx.Config.Integer(ctx.Report, "version", false); ok {
		value := version.Int64()
		if value < 0 || value > 0xF {
			ctx.Report.Errorf(ast.Builtin, "`version` of %d is invalid (must be between 0 and 15)", value)
		} else {
			ctx.Data[headerAddress+0xE] |= byte(value)
		}
	}

	ctx.Data[headerAddress+0xF] = 0x40 | checksumRomSizeSetting
	if region, ok := ctx.Config.String(ctx.Report, "region", false); ok {
		var setting byte = 0x04
		if f.System == SmsGameGear {
			setting = 0x07
		}
		switch region {
		case "japan":
			setting = 0x03
			if f.System == SmsGameGear {
				setting = 0x05
			}
		case "export":
			setting = 0x04
			if f.System == SmsGameGear {
				setting = 0x06
			}
		case "international":
			setting = 0x04
			if f.System == SmsGameGear {
				setting = 0x07
			}
		default:
			ctx.Report.Errorf(ast.Builtin, "`region` of \"%s\" is invalid (must be \"japan\", \"export\", or \"international\")", region)
		}
		ctx.Data[headerAddress+0xF] &^= 0xF0
		ctx.Data[headerAddress+0xF] |= setting << 4
	}

	var checksum uint16
	for i, b := range ctx.Data {
		if i < headerAddress || i >= headerAddress+16 {
			checksum += uint16(b)
		}
	}
	ctx.Data[headerAddress+0xA] = byte(checksum >> 8)
	ctx.Data[headerAddress+0xB] = byte(checksum)

	return true
}
