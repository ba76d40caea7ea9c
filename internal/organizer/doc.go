// Package organizer computes canonical library paths for matched media and
// places files into the library via hard links.
package organizer
