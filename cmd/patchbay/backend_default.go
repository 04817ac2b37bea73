//go:build !portaudio

package main

import "github.com/ingyamilmolinar/patchbay/internal/audio"

func newBackend() audio.Backend { return audio.NewOtoBackend() }
