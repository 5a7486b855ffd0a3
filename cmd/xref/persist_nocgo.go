//go:build !cgo

package main

import "fmt"

func runPersist([]string) error {
	return fmt.Errorf("the persist command requires a cgo build; rebuild with CGO_ENABLED=1")
}
