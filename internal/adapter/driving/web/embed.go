package web

import "embed"

// StaticFS holds the embedded browser UI (index page, script, stylesheet).
//
//go:embed static/*
var StaticFS embed.FS
