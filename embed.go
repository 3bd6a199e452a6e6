package pubsite

import "embed"

// EmbeddedAssets contains the stylesheet and scripts shipped with the
// binary, served under /_assets/: site.css, nav.js, track.js
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
