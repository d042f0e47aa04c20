package types

// Handle identifies one logical blob: the page index of the head of its chain.
// Page 0 holds the file header and is never a valid handle.
type Handle uint32

// InvalidHandle is the zero handle, which always refers to the file header.
const InvalidHandle Handle = 0

// Valid reports whether h could name an allocated chain. It does not consult
// the store; it only rules out the header page.
func (h Handle) Valid() bool { return h != InvalidHandle }
