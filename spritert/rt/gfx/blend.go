package gfx

type BlendFactor uint32

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
)

func (f BlendFactor) String() string {
	switch f {
	case BlendZero:
		return "zero"
	case BlendOne:
		return "one"
	case BlendSrcAlpha:
		return "src-alpha"
	case BlendOneMinusSrcAlpha:
		return "one-minus-src-alpha"
	default:
		return "unknown"
	}
}

// BlendState mirrors a separate RGB/alpha blend function. The zero value
// disables blending.
type BlendState struct {
	Enabled  bool
	SrcRGB   BlendFactor
	DstRGB   BlendFactor
	SrcAlpha BlendFactor
	DstAlpha BlendFactor
}

var (
	BlendDisabled = BlendState{}

	// BlendAlpha is regular source-over blending.
	BlendAlpha = BlendState{
		Enabled:  true,
		SrcRGB:   BlendSrcAlpha,
		DstRGB:   BlendOneMinusSrcAlpha,
		SrcAlpha: BlendSrcAlpha,
		DstAlpha: BlendOneMinusSrcAlpha,
	}

	// BlendErase keeps the destination color and scales its alpha by one
	// minus the source alpha, clearing coverage under opaque source texels.
	BlendErase = BlendState{
		Enabled:  true,
		SrcRGB:   BlendZero,
		DstRGB:   BlendOne,
		SrcAlpha: BlendZero,
		DstAlpha: BlendOneMinusSrcAlpha,
	}

	// BlendAdditive accumulates the source on top of the destination.
	BlendAdditive = BlendState{
		Enabled:  true,
		SrcRGB:   BlendOne,
		DstRGB:   BlendOne,
		SrcAlpha: BlendOne,
		DstAlpha: BlendOne,
	}
)
