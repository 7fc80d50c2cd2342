// Package cmd provides common initialization functions for the strand
// command-line binaries.
package cmd

import (
	"log/slog"

	"github.com/aurelia-hq/strand/pkg/executors"
	"github.com/aurelia-hq/strand/pkg/registry"
)

func NewRegistry(log *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(log)

	if err := executors.RegisterDefaults(reg); err != nil {
		panic(err)
	}

	return reg
}
