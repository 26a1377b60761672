package main

import (
	"os"

	"github.com/justyntemme/ghostline/internal/render"
)

func writeWAV(path string, clip *render.Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render.Encode(f, clip, clip.BitDepth); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
