// Package dl provides purego backed loader facilities for package loader.
//
// Ownership boundary:
// - dlopen handles for every loaded module
//
// - extraction of modules from application archives
//
// - native bridge symbol binding
//
// Handles are never closed while the process runs; loaded code may be
// referenced from anywhere once registration completed.
package dl
