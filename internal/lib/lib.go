// Packages lib acts as a library for modules that do not fit
// strictly into other layers.
//
// It contains shared utilities that several layers use.
package lib
