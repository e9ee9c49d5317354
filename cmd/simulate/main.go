package main

import (
	"fmt"
	"os"

	"github.com/learnloop/backend/internal/simulation"
)

func main() {
	if err := simulation.SimulateWork(); err != nil {
		fmt.Fprintln(os.Stderr, "simulation failed:", err)
		os.Exit(1)
	}
}
