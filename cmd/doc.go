// Package cmd provides the command-line interface for tmplpack.
//
// This package implements all CLI commands using the Cobra framework. Every
// command drives the same pipeline: enumerate templates under the app root,
// normalize them into tmp/html, minify them into tmp/html-min and bundle the
// result into a single template-cache artifact under dist.
//
// # Available Commands
//
//   - build: Run the full pipeline once and print a size summary
//   - list: List the templates the build would pick up, with their cache keys
//   - clean: Remove the working directory
//   - watch: Rebuild on change, optionally pushing reload events over a websocket
//   - config: Print the effective configuration
//   - version: Print build information
//
// # Command Examples
//
//	// Build with the defaults from .tmplpack.yml
//	tmplpack build
//
//	// Emit an AngularJS run block instead of JSON
//	tmplpack build --format js --module app.templates
//
//	// List templates as JSON
//	tmplpack list -o json
//
//	// Watch and notify browsers on 127.0.0.1:35729
//	tmplpack watch --livereload 127.0.0.1:35729
//
// # Configuration Integration
//
// Commands respect configuration from multiple sources in order of precedence:
//
//  1. Command-line flags (highest priority)
//  2. Environment variables (TMPLPACK_*)
//  3. Configuration file (.tmplpack.yml)
//  4. Default values (lowest priority)
//
// # Error Handling
//
// Pipeline failures are returned from RunE with fix-it suggestions attached,
// so the process exits non-zero and prints what to try next.
package cmd
