// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package renderer

type Option func(p *Renderer) error

// WithSpots controls whether roster lines name starting spots.
func WithSpots(flag bool) Option {
	return func(p *Renderer) error {
		p.showSpots = flag
		return nil
	}
}

// WithColors controls whether roster lines name player colors.
func WithColors(flag bool) Option {
	return func(p *Renderer) error {
		p.showColors = flag
		return nil
	}
}
