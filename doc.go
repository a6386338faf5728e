// Package main provides the safari-xcode CLI, which finishes the Xcode
// project that safari-web-extension-converter generates for a Safari web
// extension.
//
// For the library API, see the safarixcode subpackage:
//
//	import "github.com/aluedeke/go-safari-xcode/pkg/safarixcode"
//
// # Installation
//
// Install the CLI:
//
//	go install github.com/aluedeke/go-safari-xcode@latest
//
// # Configuration
//
// Settings come from flags, SAFARI_XCODE_* environment variables (a .env
// file in the root is read too), safari-xcode.yaml in the root and finally
// package.json, in that order of precedence.
package main
