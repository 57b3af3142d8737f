package product

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrSizeRequired is returned when a product tracks per-size stock and no
// size was chosen.
var ErrSizeRequired = errors.New("size selection required")

// SizeUnavailableError indicates the chosen size is out of stock.
type SizeUnavailableError struct {
	Size string
}

func (e *SizeUnavailableError) Error() string {
	return fmt.Sprintf("size %s is out of stock", e.Size)
}

// UnknownSizeError indicates the chosen size is not offered for the product.
type UnknownSizeError struct {
	Size string
}

func (e *UnknownSizeError) Error() string {
	return fmt.Sprintf("size %s is not offered", e.Size)
}

// SelectionRequest holds what the shopper picked on the detail screen.
// Indexes out of range fall back to the first entry.
type SelectionRequest struct {
	ColorIndex int
	ImageIndex int
	Size       string
}

// SizeOption is a size as presented to the shopper.
type SizeOption struct {
	Name      string
	Stock     *int
	Available bool
	Selected  bool
}

// Selection is the resolved state of the detail screen.
type Selection struct {
	ColorIndex int
	Variant    *Variant
	Images     []string
	ImageIndex int
	MainImage  string
	Size       string
	Sizes      []SizeOption
}

// Color returns the color of the selected variant, or "" without variants.
func (s Selection) Color() string {
	if s.Variant == nil {
		return ""
	}
	return s.Variant.Color
}

// CartImage is the image stored on a cart line: the first image of the
// selected variant, whichever thumbnail is being viewed.
func (s Selection) CartImage() string {
	if len(s.Images) == 0 {
		return ""
	}
	return s.Images[0]
}

// Resolve computes the detail screen state for p.
func Resolve(p Product, req SelectionRequest) Selection {
	var sel Selection

	if len(p.Variants) > 0 {
		idx := req.ColorIndex
		if idx < 0 || idx >= len(p.Variants) {
			idx = 0
		}
		sel.ColorIndex = idx
		v := p.Variants[idx]
		sel.Variant = &v
		sel.Images = v.Images
	}

	if n := len(sel.Images); n > 0 {
		if req.ImageIndex >= 0 && req.ImageIndex < n {
			sel.ImageIndex = req.ImageIndex
		}
		sel.MainImage = sel.Images[sel.ImageIndex]
	}

	sel.Size = req.Size
	if sel.Size == "" && len(p.Sizes) > 0 && !p.TracksStock() {
		sel.Size = p.Sizes[0].Name
	}

	sel.Sizes = make([]SizeOption, len(p.Sizes))
	for i, s := range p.Sizes {
		sel.Sizes[i] = SizeOption{
			Name:      s.Name,
			Stock:     s.Stock,
			Available: s.Available(),
			Selected:  s.Name == sel.Size,
		}
	}
	return sel
}

// Orderable checks that the selection may be added to the cart.
func (s Selection) Orderable(p Product) error {
	if len(p.Sizes) == 0 {
		return nil
	}
	if s.Size == "" {
		return ErrSizeRequired
	}
	for _, opt := range s.Sizes {
		if opt.Name != s.Size {
			continue
		}
		if !opt.Available {
			return &SizeUnavailableError{Size: s.Size}
		}
		return nil
	}
	return &UnknownSizeError{Size: s.Size}
}
