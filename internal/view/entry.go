// Package view holds the data model behind the strings panel: the entry
// store, the filtered/sorted projection read by the UI, and the coordinator
// that refreshes the store from a background scan.
package view

import "fmt"

// Entry is one discovered string and its metadata. Entries are immutable:
// they are built by a producer as part of a complete dataset and replaced
// wholesale, never edited in place.
type Entry struct {
	Address uint64 // virtual address of the string data
	Text    string // displayable content, unprintables escaped
	Kind    string // encoding tag: "ascii", "utf8", "utf16le"
	Length  int    // characters before encoding
	Size    int    // bytes occupied in the image
}

// AddressString formats the address the way the panel displays it.
func (e Entry) AddressString() string {
	return fmt.Sprintf("0x%08x", e.Address)
}
