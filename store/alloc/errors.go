package alloc

import "errors"

var (
	// ErrNotFreeHead indicates the free-list head is not flagged free.
	ErrNotFreeHead = errors.New("alloc: free list head is not a free page")

	// ErrAlreadyFree indicates an attempt to free a chain whose head is free.
	ErrAlreadyFree = errors.New("alloc: page is already free")

	// ErrChainCycle indicates a chain that visits more pages than the file has.
	ErrChainCycle = errors.New("alloc: chain does not terminate")

	// ErrChainFree indicates an allocated chain that links to a free page.
	ErrChainFree = errors.New("alloc: chain links to a free page")
)
