// Command ringsoak drives one producer and a set of consumers through a
// ringcast channel and reports how much each consumer received and lost.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
